// Package main initializes and starts the NoteKeeper API server, setting
// up configuration, logging, the database, photo storage, mail delivery,
// services, handlers and optional TLS.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/NoteKeeper/internal/auth"
	"github.com/atinyakov/NoteKeeper/internal/certgen"
	"github.com/atinyakov/NoteKeeper/internal/config"
	"github.com/atinyakov/NoteKeeper/internal/db"
	"github.com/atinyakov/NoteKeeper/internal/logger"
	"github.com/atinyakov/NoteKeeper/internal/mailer"
	"github.com/atinyakov/NoteKeeper/internal/middleware"
	"github.com/atinyakov/NoteKeeper/internal/repository"
	"github.com/atinyakov/NoteKeeper/internal/server/handler/http"
	"github.com/atinyakov/NoteKeeper/internal/service"
	"github.com/atinyakov/NoteKeeper/internal/storage"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line, config file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel, options.IsDevelopment()); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL connection and schema.
	postgresDB, err := db.InitPostgres(ctx, options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	// Withdraw expired password reset tokens in the background.
	db.StartResetTokenCleaner(ctx, postgresDB, 5*time.Minute, zapLogger)

	userRepo := repository.NewPostgresUserRepository(postgresDB)
	noteRepo := repository.NewPostgresNoteRepository(postgresDB)

	photos, err := newPhotoStore(ctx, options, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot init photo storage", zap.Error(err))
	}

	tokens := auth.NewTokenManager(options.JWTSecret, options.JWTCookieExpire, options.IsProduction())
	hasher := auth.NewPasswordHasher()

	// Initialize business-logic services.
	authService := service.NewAuthService(userRepo, tokens, hasher, newMailer(options, zapLogger))
	noteService := service.NewNoteService(noteRepo, photos, options.MaxFileUpload)
	userService := service.NewUserService(userRepo, hasher)

	// Create HTTP handlers.
	authHandler := &http.AuthHandler{Service: authService, Cookies: tokens, Log: zapLogger}
	noteHandler := &http.NoteHandler{
		Service:   noteService,
		Schema:    repository.NoteQuerySchema,
		MaxUpload: options.MaxFileUpload,
		Log:       zapLogger,
	}
	userHandler := &http.UserHandler{Service: userService, Schema: repository.UserQuerySchema, Log: zapLogger}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, noteHandler, userHandler, http.RouterOptions{
		Authenticate: middleware.Authenticate(tokens, userRepo, zapLogger),
		RateLimiter:  middleware.NewRateLimiter(options.RateLimitMax, time.Duration(options.RateLimitWindow)*time.Minute),
		CORSOrigin:   options.CORSOrigin,
	}, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	useTLS := options.TLSCert != "" && options.TLSKey != ""
	if useTLS {
		cert, err := certgen.LoadServerCertificate(options.TLSCert, options.TLSKey)
		if err != nil {
			zapLogger.Fatal("failed to load server TLS cert/key", zap.Error(err))
		}
		server.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	zapLogger.Info("starting server",
		zap.String("addr", options.Port),
		zap.String("environment", options.Environment),
		zap.Bool("tls", useTLS),
	)
	if useTLS {
		err = server.ListenAndServeTLS("", "")
	} else {
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}

// newPhotoStore returns the S3 store when a bucket is configured and the
// local upload directory otherwise.
func newPhotoStore(ctx context.Context, options *config.Options, log *zap.Logger) (service.PhotoStore, error) {
	if options.S3Bucket != "" {
		log.Info("storing photos in s3", zap.String("bucket", options.S3Bucket))
		return storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    options.S3Bucket,
			Region:    options.S3Region,
			Endpoint:  options.S3Endpoint,
			AccessKey: options.S3AccessKey,
			SecretKey: options.S3SecretKey,
		})
	}
	log.Info("storing photos on disk", zap.String("dir", options.FileUploadPath))
	return storage.NewLocalStore(options.FileUploadPath)
}

// newMailer returns an SMTP mailer when a relay is configured and a
// logging mailer otherwise.
func newMailer(options *config.Options, log *zap.Logger) service.Mailer {
	if options.SMTPHost == "" {
		return &mailer.LogMailer{Log: log}
	}
	return mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:      options.SMTPHost,
		Port:      options.SMTPPort,
		Username:  options.SMTPEmail,
		Password:  options.SMTPPassword,
		FromEmail: options.FromEmail,
		FromName:  options.FromName,
	})
}
