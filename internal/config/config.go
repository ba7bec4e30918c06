// Package config provides functionality for managing configuration options
// for the application using command-line flags, an optional JSON config file
// and environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/caarlos0/env/v11"
)

// Environment names recognised by the server.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"port" env:"SERVER_ADDRESS"`
	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn" env:"DATABASE_DSN"`
	// Config is the path to the Config file.
	Config string `json:"-"`
	// Environment is "development" or "production"; production marks cookies secure.
	Environment string `json:"environment" env:"ENVIRONMENT"`
	// LogLevel is the zap level name.
	LogLevel string `json:"log_level" env:"LOG_LEVEL"`

	// JWTSecret signs and verifies session tokens.
	JWTSecret string `json:"jwt_secret" env:"JWT_SECRET"`
	// JWTCookieExpire is the session lifetime in days, for both token and cookie.
	JWTCookieExpire int `json:"jwt_cookie_expire" env:"JWT_COOKIE_EXPIRE"`

	// FileUploadPath is the directory for note photos when S3 is not configured.
	FileUploadPath string `json:"file_upload_path" env:"FILE_UPLOAD_PATH"`
	// MaxFileUpload is the photo size limit in bytes.
	MaxFileUpload int64 `json:"max_file_upload" env:"MAX_FILE_UPLOAD"`

	// S3 settings; photos go to S3 when S3Bucket is set.
	S3Bucket    string `json:"s3_bucket" env:"S3_BUCKET"`
	S3Region    string `json:"s3_region" env:"S3_REGION"`
	S3Endpoint  string `json:"s3_endpoint" env:"S3_ENDPOINT"`
	S3AccessKey string `json:"s3_access_key" env:"S3_ACCESS_KEY"`
	S3SecretKey string `json:"s3_secret_key" env:"S3_SECRET_KEY"`

	// SMTP settings; reset emails are only logged when SMTPHost is empty.
	SMTPHost     string `json:"smtp_host" env:"SMTP_HOST"`
	SMTPPort     int    `json:"smtp_port" env:"SMTP_PORT"`
	SMTPEmail    string `json:"smtp_email" env:"SMTP_EMAIL"`
	SMTPPassword string `json:"smtp_password" env:"SMTP_PASSWORD"`
	FromEmail    string `json:"from_email" env:"FROM_EMAIL"`
	FromName     string `json:"from_name" env:"FROM_NAME"`

	// RateLimitMax requests are allowed per client every RateLimitWindow minutes.
	RateLimitMax    int `json:"rate_limit_max" env:"RATE_LIMIT_MAX"`
	RateLimitWindow int `json:"rate_limit_window" env:"RATE_LIMIT_WINDOW"`

	// CORSOrigin is the allowed origin ("*" for any).
	CORSOrigin string `json:"cors_origin" env:"CORS_ORIGIN"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert" env:"TLS_CERT"`
	TLSKey  string `json:"tls_key" env:"TLS_KEY"`
}

// IsProduction reports whether the server runs in production mode.
func (o *Options) IsProduction() bool {
	return o.Environment == EnvProduction
}

// IsDevelopment reports whether the server runs in development mode.
func (o *Options) IsDevelopment() bool {
	return o.Environment == EnvDevelopment
}

// Validate checks settings the server cannot start without.
func (o *Options) Validate() error {
	var errs []error
	if o.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret is required"))
	}
	if o.JWTCookieExpire <= 0 {
		errs = append(errs, fmt.Errorf("jwt cookie expire must be positive, got %d", o.JWTCookieExpire))
	}
	if o.MaxFileUpload <= 0 {
		errs = append(errs, fmt.Errorf("max file upload must be positive, got %d", o.MaxFileUpload))
	}
	if o.RateLimitMax <= 0 || o.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("rate limit max and window must be positive"))
	}
	return errors.Join(errs...)
}

// Load builds Options from args, then the JSON config file, then the
// environment; later sources override earlier ones. A nil environ reads
// the process environment.
func Load(args []string, environ map[string]string) (*Options, error) {
	options := &Options{}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	fs.StringVar(&options.Environment, "e", EnvDevelopment, "environment: development or production")
	fs.StringVar(&options.LogLevel, "l", "info", "log level")
	fs.StringVar(&options.JWTSecret, "s", "", "jwt signing secret")
	fs.IntVar(&options.JWTCookieExpire, "t", 30, "session lifetime in days")
	fs.StringVar(&options.FileUploadPath, "u", "./public/uploads", "photo upload directory")
	fs.Int64Var(&options.MaxFileUpload, "m", 1000000, "max photo size in bytes")
	fs.IntVar(&options.SMTPPort, "smtp-port", 587, "smtp port")
	fs.StringVar(&options.FromEmail, "from-email", "noreply@notekeeper.local", "sender address for emails")
	fs.StringVar(&options.FromName, "from-name", "NoteKeeper", "sender name for emails")
	fs.IntVar(&options.RateLimitMax, "rate-max", 100, "requests per client per window")
	fs.IntVar(&options.RateLimitWindow, "rate-window", 10, "rate limit window in minutes")
	fs.StringVar(&options.CORSOrigin, "cors", "*", "allowed CORS origin")
	fs.StringVar(&options.S3Region, "s3-region", "us-east-1", "S3 region")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Override flags with environment variables if set
	if configPath := lookup(environ, "CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if err := env.ParseWithOptions(options, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return options, nil
}

// Parse loads Options from the process arguments and environment and
// exits on invalid configuration.
func Parse() *Options {
	options, err := Load(os.Args[1:], nil)
	if err != nil {
		log.Fatalf("error while loading config: %v", err)
	}
	if err := options.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	return options
}

func lookup(environ map[string]string, key string) string {
	if environ == nil {
		return os.Getenv(key)
	}
	return environ[key]
}
