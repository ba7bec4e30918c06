package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartResetTokenCleaner clears expired password reset tokens every interval
// until ctx is canceled.
func StartResetTokenCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				res, err := db.ExecContext(ctx, `
                    UPDATE users
                       SET reset_password_token = NULL, reset_password_expire = NULL
                     WHERE reset_password_expire < $1
                `, time.Now())
				if err != nil {
					log.Error("failed to clear expired reset tokens", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("cleared expired reset tokens", zap.Int64("cleared", rows))
				}
			}
		}
	}()
}
