package storage

import (
	"context"
	"fmt"
	"io"

	supabase "github.com/nedpals/supabase-go"
)

// SupabaseStore keeps objects in a public Supabase Storage bucket.
type SupabaseStore struct {
	client *supabase.Client
	bucket string
}

func NewSupabaseStore(supabaseURL, supabaseKey, bucket string) (*SupabaseStore, error) {
	if supabaseURL == "" || supabaseKey == "" {
		return nil, fmt.Errorf("supabase URL and key must be provided via SUPABASE_URL / SUPABASE_KEY")
	}
	if bucket == "" {
		bucket = "images"
	}
	return &SupabaseStore{client: supabase.CreateClient(supabaseURL, supabaseKey), bucket: bucket}, nil
}

// Put uploads body under key. The client library panics on transport
// failures, so those are recovered into errors here.
func (s *SupabaseStore) Put(_ context.Context, key, contentType string, body io.Reader) (publicURL string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("supabase upload %s: %v", key, r)
		}
	}()

	bucket := s.client.Storage.From(s.bucket)
	res := bucket.Upload(key, body, &supabase.FileUploadOptions{
		ContentType: contentType,
		MimeType:    contentType,
	})
	if res.Key == "" {
		return "", fmt.Errorf("supabase upload %s: %s", key, res.Message)
	}
	return bucket.GetPublicUrl(key).SignedUrl, nil
}
