// Package config reads server settings from flags, falling back to the
// environment and an optional .env file. Every flag -foo-bar is also readable
// as FOO_BAR.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/namsral/flag"
)

type Config struct {
	Port        string
	DatabaseURL string
	CORSOrigins []string
	Debug       bool

	SupabaseURL       string
	SupabaseKey       string
	SupabaseJWTSecret string

	StorageDriver string
	StorageBucket string
	S3Endpoint    string
	S3Region      string
	S3AccessKey   string
	S3SecretKey   string
	S3PublicURL   string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	ContactTo    string

	ListLimit   int
	DeadlineTZ  *time.Location
	SourcesFile string
}

// LoadDotEnv loads .env from the working directory when present. A missing
// file is not an error.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Parse reads args (without the program name) and the process environment.
func Parse(args []string) (*Config, error) {
	var cfg Config
	var cors, tz string
	fs := flag.NewFlagSet("scholarhub", flag.ContinueOnError)

	fs.StringVar(&cfg.Port, "port", "8081", "HTTP server port (PORT)")
	fs.StringVar(&cfg.DatabaseURL, "database-url", "", "database connection URL (DATABASE_URL)")
	fs.StringVar(&cors, "cors-origins", "*", "comma-separated allowed origins (CORS_ORIGINS)")
	fs.BoolVar(&cfg.Debug, "debug", false, "enable debug logging (DEBUG)")

	fs.StringVar(&cfg.SupabaseURL, "supabase-url", "", "Supabase project URL (SUPABASE_URL)")
	fs.StringVar(&cfg.SupabaseKey, "supabase-key", "", "Supabase API key (SUPABASE_KEY)")
	fs.StringVar(&cfg.SupabaseJWTSecret, "supabase-jwt-secret", "", "secret used to verify access tokens (SUPABASE_JWT_SECRET)")

	fs.StringVar(&cfg.StorageDriver, "storage-driver", "supabase", "image storage backend: supabase or s3 (STORAGE_DRIVER)")
	fs.StringVar(&cfg.StorageBucket, "storage-bucket", "images", "bucket for uploaded images (STORAGE_BUCKET)")
	fs.StringVar(&cfg.S3Endpoint, "s3-endpoint", "", "S3-compatible endpoint host (S3_ENDPOINT)")
	fs.StringVar(&cfg.S3Region, "s3-region", "us-east-1", "S3 region (S3_REGION)")
	fs.StringVar(&cfg.S3AccessKey, "s3-access-key", "", "S3 access key (S3_ACCESS_KEY)")
	fs.StringVar(&cfg.S3SecretKey, "s3-secret-key", "", "S3 secret key (S3_SECRET_KEY)")
	fs.StringVar(&cfg.S3PublicURL, "s3-public-url", "", "public base URL for stored objects (S3_PUBLIC_URL)")

	fs.StringVar(&cfg.SMTPHost, "smtp-host", "", "SMTP relay host (SMTP_HOST)")
	fs.IntVar(&cfg.SMTPPort, "smtp-port", 587, "SMTP relay port (SMTP_PORT)")
	fs.StringVar(&cfg.SMTPUsername, "smtp-username", "", "SMTP username (SMTP_USERNAME)")
	fs.StringVar(&cfg.SMTPPassword, "smtp-password", "", "SMTP password (SMTP_PASSWORD)")
	fs.StringVar(&cfg.SMTPFrom, "smtp-from", "", "sender address (SMTP_FROM)")
	fs.StringVar(&cfg.ContactTo, "contact-to", "", "inbox receiving contact messages (CONTACT_TO)")

	fs.IntVar(&cfg.ListLimit, "list-limit", 500, "maximum rows fetched per listing (LIST_LIMIT)")
	fs.StringVar(&tz, "deadline-tz", "UTC", "IANA zone whose calendar defines today (DEADLINE_TZ)")
	fs.StringVar(&cfg.SourcesFile, "sources-file", "", "import sources YAML; empty uses the built-in list (SOURCES_FILE)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid DEADLINE_TZ %q: %w", tz, err)
	}
	cfg.DeadlineTZ = loc

	if cfg.ListLimit <= 0 {
		return nil, fmt.Errorf("LIST_LIMIT must be positive, got %d", cfg.ListLimit)
	}
	switch cfg.StorageDriver {
	case "supabase", "s3":
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	cfg.CORSOrigins = splitList(cors)
	if cfg.ContactTo == "" {
		cfg.ContactTo = cfg.SMTPFrom
	}
	return &cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Logger returns a text logger on stderr, at debug level when Debug is set.
func (c *Config) Logger() *slog.Logger {
	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
