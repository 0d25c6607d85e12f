package content

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/unicode/norm"
)

const (
	maxSlugLen    = 80
	slugSuffixLen = 6
)

var (
	reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	suffixEnc  = base32.StdEncoding.WithPadding(base32.NoPadding)
)

func slugify(s string, fallback string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}

	s = reNonAlnum.ReplaceAllString(b.String(), "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLen {
		s = strings.TrimRight(s[:maxSlugLen], "-")
	}
	if s == "" {
		return fallback
	}
	return s
}

// Slugify turns a title into [a-z0-9-], dropping diacritics. Falls back to
// "post" when nothing survives.
func Slugify(title string) string {
	return slugify(title, "post")
}

func CountrySlug(country string) string {
	return slugify(country, "country")
}

// SlugSuffix derives a short suffix from blake2b(title, nonce).
func SlugSuffix(title, nonce string) string {
	sum := blake2b.Sum256([]byte(title + "\x00" + nonce))
	return strings.ToLower(suffixEnc.EncodeToString(sum[:]))[:slugSuffixLen]
}

// NewSlug returns Slugify(title) plus a random suffix. Storage still enforces
// uniqueness; callers retry with a fresh slug on conflict.
func NewSlug(title string) string {
	var nonce [8]byte
	_, _ = rand.Read(nonce[:])
	return Slugify(title) + "-" + SlugSuffix(title, hex.EncodeToString(nonce[:]))
}
