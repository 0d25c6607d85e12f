// Package content holds text helpers shared by posts, imports and the
// contact form.
package content

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

const wordsPerMinute = 200

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// SanitizeHTML strips unsafe tags and attributes from user-authored HTML.
func SanitizeHTML(html string) string {
	return ugcPolicy.Sanitize(html)
}

// StripTags removes all markup, leaving escaped text.
func StripTags(s string) string {
	return strictPolicy.Sanitize(s)
}

// PlainText converts HTML to text with collapsed whitespace.
func PlainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return CollapseSpace(html)
	}
	doc.Find("script, style").Remove()
	// Keep block boundaries from gluing words together.
	doc.Find("p, br, li, h1, h2, h3, h4, h5, h6, div").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return CollapseSpace(doc.Text())
}

func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most max runes, ending on a word boundary with "...".
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 3 {
		return string([]rune(s)[:max])
	}
	cut := string([]rune(s)[:max-3])
	if i := strings.LastIndex(cut, " "); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "..."
}

// Excerpt is the first n characters of the rendered text of html.
func Excerpt(html string, n int) string {
	return Truncate(PlainText(html), n)
}

// ReadingMinutes estimates reading time at 200 words per minute, minimum one.
func ReadingMinutes(html string) int {
	words := len(strings.Fields(PlainText(html)))
	m := (words + wordsPerMinute - 1) / wordsPerMinute
	if m < 1 {
		return 1
	}
	return m
}
