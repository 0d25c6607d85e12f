package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

const defaultUserAgent = "Mozilla/5.0 (compatible; ScholarHubImporter/1.0; +https://scholarhub.app)"

// CollyScraper implements the html_generic strategy: it visits a listing page,
// extracts every container element and follows the "next" link up to
// MaxPages, stopping on pagination cycles.
type CollyScraper struct {
	logger *slog.Logger
	// AllowPrivate lifts the private-address guard. Only tests set it.
	AllowPrivate bool
}

func NewCollyScraper(logger *slog.Logger) *CollyScraper {
	return &CollyScraper{logger: logger}
}

func (s *CollyScraper) collector(ctx context.Context, src SourceConfig, host string) *colly.Collector {
	ua := src.Fetch.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	timeout := 30 * time.Second
	if src.Fetch.TimeoutSeconds > 0 {
		timeout = time.Duration(src.Fetch.TimeoutSeconds) * time.Second
	}
	delay := time.Second
	if src.Fetch.RateLimitRPS > 0 {
		delay = time.Duration(float64(time.Second) / src.Fetch.RateLimitRPS)
	}

	c := colly.NewCollector(
		colly.AllowedDomains(host),
		colly.UserAgent(ua),
		colly.DetectCharset(),
		colly.AllowURLRevisit(),
		colly.StdlibContext(ctx),
	)
	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       delay,
	})
	c.SetRequestTimeout(timeout)
	c.WithTransport(newTransport(s.AllowPrivate))
	c.SetRedirectHandler(checkRedirect)
	return c
}

func childText(e *colly.HTMLElement, sel string) string {
	if sel == "" {
		return ""
	}
	if sel == "." {
		return strings.TrimSpace(e.Text)
	}
	return strings.TrimSpace(e.ChildText(sel))
}

func (s *CollyScraper) Scrape(ctx context.Context, src SourceConfig, emit func(Item)) (int, error) {
	base, err := url.Parse(src.BaseURL)
	if err != nil || base.Hostname() == "" {
		return 0, fmt.Errorf("invalid base URL %q", src.BaseURL)
	}
	sel := src.Selectors
	if sel.Container == "" {
		return 0, fmt.Errorf("selector 'container' is required for html_generic strategy")
	}

	c := s.collector(ctx, src, base.Hostname())

	linkAttr := sel.LinkAttr
	if linkAttr == "" {
		linkAttr = "href"
	}
	titleSel := sel.Title
	if titleSel == "" {
		titleSel = "."
	}

	c.OnHTML(sel.Container, func(e *colly.HTMLElement) {
		var link string
		if sel.Link == "" || sel.Link == "." {
			link = strings.TrimSpace(e.Attr(linkAttr))
		} else {
			link = strings.TrimSpace(e.ChildAttr(sel.Link, linkAttr))
		}
		if link != "" {
			link = e.Request.AbsoluteURL(link)
		}

		emit(Item{
			Title:        childText(e, titleSel),
			Link:         link,
			Organization: childText(e, sel.Organization),
			DeadlineText: childText(e, sel.Deadline),
			Summary:      childText(e, sel.Summary),
		})
	})

	var nextPageURL string
	if src.Pagination.Next != "" {
		c.OnHTML(src.Pagination.Next, func(e *colly.HTMLElement) {
			if href := e.Attr("href"); href != "" && nextPageURL == "" {
				nextPageURL = e.Request.AbsoluteURL(href)
			}
		})
	}

	var pageErr error
	c.OnError(func(r *colly.Response, err error) {
		pageErr = fmt.Errorf("fetch %s: status %d: %w", r.Request.URL, r.StatusCode, err)
	})

	visited := make(map[string]bool)
	pages := 0
	current := src.BaseURL

	for pages < src.MaxPages {
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		canon := CanonicalizeURL(current)
		if visited[canon] {
			s.logger.Info("pagination cycle detected", "source", src.ID, "url", canon)
			break
		}
		visited[canon] = true

		nextPageURL = ""
		pageErr = nil
		s.logger.Debug("fetching page", "source", src.ID, "page", pages+1, "url", current)

		if err := c.Visit(current); err != nil {
			return pages, fmt.Errorf("visit %s: %w", current, err)
		}
		c.Wait()
		if pageErr != nil {
			return pages, pageErr
		}
		pages++

		if nextPageURL == "" {
			break
		}
		current = nextPageURL
	}

	return pages, nil
}
