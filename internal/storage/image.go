package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	MaxImageWidth  = 1600
	MaxImageHeight = 1600
	MaxUploadBytes = 10 << 20
	jpegQuality    = 85
)

var reFolder = regexp.MustCompile(`[^a-z0-9\-_]+`)

// ImageUploader normalises uploaded images to bounded JPEGs before storing
// them.
type ImageUploader struct {
	store ObjectStore
	now   func() time.Time
}

func NewImageUploader(store ObjectStore) *ImageUploader {
	return &ImageUploader{store: store, now: time.Now}
}

// Upload decodes r, fits it inside MaxImageWidth x MaxImageHeight, encodes it
// as JPEG and stores it under folder. Returns the public URL.
func (u *ImageUploader) Upload(ctx context.Context, folder string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return "", fmt.Errorf("%w: larger than %d MB", ErrNotImage, MaxUploadBytes>>20)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	b := img.Bounds()
	if b.Dx() > MaxImageWidth || b.Dy() > MaxImageHeight {
		img = imaging.Fit(img, MaxImageWidth, MaxImageHeight, imaging.Lanczos)
	}

	var out bytes.Buffer
	if err := imaging.Encode(&out, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	return u.store.Put(ctx, u.key(folder), "image/jpeg", bytes.NewReader(out.Bytes()))
}

func (u *ImageUploader) key(folder string) string {
	folder = reFolder.ReplaceAllString(strings.ToLower(strings.TrimSpace(folder)), "-")
	folder = strings.Trim(folder, "-")
	if folder == "" {
		folder = "misc"
	}
	return fmt.Sprintf("%s/%s-%s.jpg", folder, u.now().Format("20060102"), uuid.New().String())
}

// Dimensions reports the size of an encoded image without fully decoding it.
func Dimensions(r io.Reader) (int, int, error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return cfg.Width, cfg.Height, nil
}
