package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/NoteKeeper/internal/models"
	"github.com/atinyakov/NoteKeeper/internal/query"
	"github.com/google/uuid"
)

const userColumns = `id, name, email, role, password_hash, reset_password_token, reset_password_expire, created_at`

// UserQuerySchema lists the user fields available to list queries.
var UserQuerySchema = query.Schema{
	Fields: map[string]query.Field{
		"id":        {Column: "id", Type: query.UUID},
		"name":      {Column: "name", Type: query.String},
		"email":     {Column: "email", Type: query.String},
		"role":      {Column: "role", Type: query.String},
		"createdAt": {Column: "created_at", Type: query.Time},
	},
	DefaultSort: "-createdAt",
}

// PostgresUserRepository stores users in PostgreSQL.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the given database connection.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// Create inserts u, assigning its ID and CreatedAt.
// A duplicate email is reported as a validation error.
func (r *PostgresUserRepository) Create(ctx context.Context, u *models.User) error {
	u.ID = uuid.NewString()
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO users (id, name, email, role, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, u.ID, u.Name, u.Email, string(u.Role), u.PasswordHash).Scan(&u.CreatedAt)
	if err != nil {
		u.ID = ""
		return translate(err, "create user", "")
	}
	return nil
}

// GetByID fetches a user by ID.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, translate(err, "get user", id)
	}
	return u, nil
}

// GetByEmail fetches a user by email.
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, translate(err, "get user by email", email)
	}
	return u, nil
}

// GetByResetToken fetches the user holding the hashed reset token,
// provided the token has not expired.
func (r *PostgresUserRepository) GetByResetToken(ctx context.Context, hashed string) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE reset_password_token = $1 AND reset_password_expire > now()
	`, hashed)
	u, err := scanUser(row)
	if err != nil {
		return nil, translate(err, "get user by reset token", "")
	}
	return u, nil
}

// Update saves every mutable field of u.
func (r *PostgresUserRepository) Update(ctx context.Context, u *models.User) error {
	if err := checkID(u.ID); err != nil {
		return err
	}
	var expire sql.NullTime
	if u.ResetPasswordExpire != nil {
		expire = sql.NullTime{Time: *u.ResetPasswordExpire, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users
		   SET name = $2, email = $3, role = $4, password_hash = $5,
		       reset_password_token = $6, reset_password_expire = $7
		 WHERE id = $1
	`, u.ID, u.Name, u.Email, string(u.Role), u.PasswordHash, nullString(u.ResetPasswordToken), expire)
	if err != nil {
		return translate(err, "update user", u.ID)
	}
	return expectOne(res, u.ID)
}

// Delete removes the user and, by cascade, the user's notes.
func (r *PostgresUserRepository) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete user", id)
	}
	return expectOne(res, id)
}

// List returns one page of users matching q and the total match count.
func (r *PostgresUserRepository) List(ctx context.Context, q query.Query) ([]models.User, int, error) {
	var total int
	countSQL, countArgs := q.CountSQL(`SELECT COUNT(*) FROM users`)
	if err := r.DB.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, translate(err, "count users", "")
	}

	stmt, args := q.SelectSQL(`SELECT ` + userColumns + ` FROM users`)
	rows, err := r.DB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, 0, translate(err, "list users", "")
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*models.User, error) {
	var (
		u      models.User
		role   string
		token  sql.NullString
		expire sql.NullTime
	)
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &role, &u.PasswordHash, &token, &expire, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	u.ResetPasswordToken = token.String
	if expire.Valid {
		t := expire.Time
		u.ResetPasswordExpire = &t
	}
	return &u, nil
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}
