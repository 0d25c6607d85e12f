package ingest

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/david/scholarhub/internal/content"
	"github.com/david/scholarhub/internal/models"
)

const maxDescriptionLen = 2000

var (
	ErrMissingTitle = errors.New("item has no title")
	ErrBadLink      = errors.New("item link is not an absolute http(s) URL")
	ErrResultsPage  = errors.New("item announces results, not an open call")
)

// Draft is a normalised item ready to be stored for review.
type Draft struct {
	Opportunity models.Opportunity
	// DeadlineUnparsed is set when the item carried deadline text that could
	// not be read as a date. The draft is still stored without a deadline.
	DeadlineUnparsed bool
}

// Normalize turns a scraped item into an inactive opportunity of the
// source's type. Nothing imported is publicly visible until an admin
// activates it.
func Normalize(src SourceConfig, it Item) (Draft, error) {
	title := normalizeSpace(it.Title)
	if title == "" {
		return Draft{}, ErrMissingTitle
	}

	link := CanonicalizeURL(it.Link)
	u, err := url.Parse(link)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return Draft{}, fmt.Errorf("%w: %q", ErrBadLink, it.Link)
	}

	if isAnnouncement(it) {
		return Draft{}, ErrResultsPage
	}

	details, err := models.EmptyDetails(src.Type)
	if err != nil {
		return Draft{}, err
	}

	organization := normalizeSpace(it.Organization)
	if organization == "" {
		organization = src.Name
	}

	summary := content.Truncate(normalizeSpace(it.Summary), maxDescriptionLen)

	draft := Draft{
		Opportunity: models.Opportunity{
			Type:           src.Type,
			Title:          title,
			Organization:   organization,
			Country:        src.Country,
			IsActive:       false,
			Details:        details,
			Description:    content.SanitizeHTML(summary),
			ApplicationURL: link,
		},
	}

	text := normalizeSpace(it.DeadlineText)
	if text != "" && !isOpenEnded(text) {
		if d, err := ParseDeadlineText(text, src.DateLocales); err == nil {
			draft.Opportunity.Deadline = &d
		} else {
			draft.DeadlineUnparsed = true
		}
	}

	return draft, nil
}
