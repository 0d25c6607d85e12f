// Package storage puts uploaded files into a public object store and hands
// back their URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrNotImage = errors.New("file is not a supported image")

// ObjectStore writes publicly readable objects.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (publicURL string, err error)
}

type Config struct {
	Driver string
	Bucket string

	SupabaseURL string
	SupabaseKey string

	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string
}

// New builds the store selected by cfg.Driver.
func New(cfg Config) (ObjectStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "supabase":
		return NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.Bucket)
	case "s3":
		return NewS3Store(S3Config{
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
		})
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
