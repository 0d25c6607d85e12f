// Package deadline classifies opportunity deadlines at whole-day granularity:
// expiry, days remaining, the display badge, and the deadline-aware sort used
// by every listing.
package deadline

import (
	"math"
	"slices"
	"strconv"
	"time"
)

const (
	StatusExpired = "expired"
	StatusUrgent  = "urgent"
	StatusSoon    = "soon"
	StatusOpen    = "open"
)

// NoDeadlineLabel is rendered for rolling opportunities.
const NoDeadlineLabel = "No deadline"

const displayLayout = "January 2, 2006"

// Badge is the display classification of a deadline.
type Badge struct {
	Status  string `json:"status"`
	Label   string `json:"label"`
	Color   string `json:"color"`
	BgColor string `json:"bg_color"`
}

// Deadliner is anything that carries an optional deadline date.
type Deadliner interface {
	DeadlineDate() *time.Time
}

// Classifier evaluates deadlines against "today" in Location.
type Classifier struct {
	Now      func() time.Time
	Location *time.Location
}

func New(loc *time.Location) *Classifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Classifier{Now: time.Now, Location: loc}
}

// At returns a classifier frozen at now.
func At(now time.Time, loc *time.Location) *Classifier {
	c := New(loc)
	c.Now = func() time.Time { return now }
	return c
}

var defaultClassifier = New(time.UTC)

// today is the current civil date, expressed as midnight UTC.
func (c *Classifier) today() time.Time {
	now := c.Now().In(c.Location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// civil drops the time of day, keeping the calendar date the value carries.
func civil(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(today, d time.Time) int {
	return int(math.Ceil(civil(d).Sub(today).Hours() / 24))
}

// IsExpired reports whether d lies strictly before today. A missing deadline
// never expires and a deadline of today is still open.
func (c *Classifier) IsExpired(d *time.Time) bool {
	if d == nil {
		return false
	}
	return civil(*d).Before(c.today())
}

// DaysRemaining returns whole days from today to d, negative once expired,
// or nil when there is no deadline.
func (c *Classifier) DaysRemaining(d *time.Time) *int {
	if d == nil {
		return nil
	}
	n := daysBetween(c.today(), *d)
	return &n
}

// Status buckets d into expired / urgent / soon / open. Nil for no deadline.
func (c *Classifier) Status(d *time.Time) *Badge {
	days := c.DaysRemaining(d)
	if days == nil {
		return nil
	}
	b := badgeFor(*days)
	return &b
}

func badgeFor(days int) Badge {
	switch {
	case days < 0:
		return Badge{Status: StatusExpired, Label: "Expired", Color: "text-gray-500", BgColor: "bg-gray-100"}
	case days == 0:
		return Badge{Status: StatusUrgent, Label: "Last Day!", Color: "text-red-700", BgColor: "bg-red-100"}
	case days <= 3:
		return Badge{Status: StatusUrgent, Label: daysLeftLabel(days), Color: "text-red-600", BgColor: "bg-red-50"}
	case days <= 7:
		return Badge{Status: StatusSoon, Label: daysLeftLabel(days), Color: "text-orange-600", BgColor: "bg-orange-50"}
	case days <= 30:
		return Badge{Status: StatusOpen, Label: daysLeftLabel(days), Color: "text-yellow-700", BgColor: "bg-yellow-50"}
	default:
		return Badge{Status: StatusOpen, Label: daysLeftLabel(days), Color: "text-green-600", BgColor: "bg-green-50"}
	}
}

func daysLeftLabel(n int) string {
	if n == 1 {
		return "1 day left"
	}
	return strconv.Itoa(n) + " days left"
}

// Format renders d as "January 25, 2026", or NoDeadlineLabel.
func (c *Classifier) Format(d *time.Time) string {
	if d == nil {
		return NoDeadlineLabel
	}
	return civil(*d).Format(displayLayout)
}

// Sort orders items by deadline without touching the input slice. Expired
// items are dropped unless showExpired is set; when kept they always sink
// below every open item. Within a group dated items come before undated ones,
// then earliest deadline first. Equal keys keep their input order.
func Sort[T Deadliner](c *Classifier, items []T, showExpired bool) []T {
	today := c.today()

	type keyed struct {
		item    T
		expired bool
		date    *time.Time
	}

	ks := make([]keyed, 0, len(items))
	for _, it := range items {
		d := it.DeadlineDate()
		var date *time.Time
		expired := false
		if d != nil {
			cd := civil(*d)
			date = &cd
			expired = cd.Before(today)
		}
		if expired && !showExpired {
			continue
		}
		ks = append(ks, keyed{item: it, expired: expired, date: date})
	}

	slices.SortStableFunc(ks, func(a, b keyed) int {
		if a.expired != b.expired {
			if a.expired {
				return 1
			}
			return -1
		}
		if (a.date == nil) != (b.date == nil) {
			if a.date == nil {
				return 1
			}
			return -1
		}
		if a.date == nil {
			return 0
		}
		return a.date.Compare(*b.date)
	})

	out := make([]T, len(ks))
	for i, k := range ks {
		out[i] = k.item
	}
	return out
}

func IsExpired(d *time.Time) bool     { return defaultClassifier.IsExpired(d) }
func DaysRemaining(d *time.Time) *int { return defaultClassifier.DaysRemaining(d) }
func Status(d *time.Time) *Badge      { return defaultClassifier.Status(d) }
func Format(d *time.Time) string      { return defaultClassifier.Format(d) }

func SortByDeadline[T Deadliner](items []T, showExpired bool) []T {
	return Sort(defaultClassifier, items, showExpired)
}
