package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/david/scholarhub/internal/deadline"
)

var deadlinePrefixes = []string{
	"closing date:", "deadline:", "application deadline:", "apply by:", "apply before:",
	"due date:", "expires:", "ends:", "closes:",
	"fecha límite:", "fecha de cierre:", "cierre:", "plazo:",
}

var englishLayouts = []string{
	"2 January 2006",
	"02 January 2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Monday, January 2, 2006",
	"Monday, 2 January 2006",
}

var spanishMonths = map[string]time.Month{
	"enero": time.January, "febrero": time.February, "marzo": time.March,
	"abril": time.April, "mayo": time.May, "junio": time.June,
	"julio": time.July, "agosto": time.August, "septiembre": time.September,
	"setiembre": time.September, "octubre": time.October, "noviembre": time.November,
	"diciembre": time.December,
	"ene": time.January, "feb": time.February, "mar": time.March, "abr": time.April,
	"jun": time.June, "jul": time.July, "ago": time.August, "sep": time.September,
	"set": time.September, "oct": time.October, "nov": time.November, "dic": time.December,
}

var (
	isoRegex      = regexp.MustCompile(`\b(20\d{2})-(\d{2})-(\d{2})\b`)
	slashRegex    = regexp.MustCompile(`\b(\d{1,2})[/.](\d{1,2})[/.](20\d{2})\b`)
	monthRegex    = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)\.?\s+(\d{1,2}),?\s+(20\d{2})\b`)
	dayMonthRegex = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)\.?,?\s+(20\d{2})\b`)
	spanishRegex  = regexp.MustCompile(`(?i)\b(\d{1,2})\s+de\s+([a-záéíóú]+)\.?\s+(?:de|del)\s+(20\d{2})\b`)
	ordinalRegex  = regexp.MustCompile(`\b(\d{1,2})(st|nd|rd|th)\b`)
)

// ParseDeadlineText extracts a calendar date from free text such as
// "Deadline: 15th March 2026" or "Cierre: 17 de junio del 2025". Locales
// decide the order of ambiguous numeric dates: with "es" first, 03/04/2026 is
// the 3rd of April, otherwise March 4th.
func ParseDeadlineText(text string, locales []string) (time.Time, error) {
	cleaned := cleanDateString(text)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	cleaned = ordinalRegex.ReplaceAllString(cleaned, "$1")

	if t, err := time.Parse(time.RFC3339, cleaned); err == nil {
		return civilDate(t), nil
	}
	for _, layout := range englishLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return civilDate(t), nil
		}
	}

	if m := isoRegex.FindStringSubmatch(cleaned); m != nil {
		if t, ok := buildDate(m[1], m[2], m[3]); ok {
			return t, nil
		}
	}

	for _, loc := range locales {
		if strings.HasPrefix(loc, "es") {
			if t, ok := parseSpanish(cleaned); ok {
				return t, nil
			}
		}
	}

	if m := monthRegex.FindStringSubmatch(cleaned); m != nil {
		if t, err := time.Parse("Jan 2 2006", abbrevMonth(m[1])+" "+m[2]+" "+m[3]); err == nil {
			return civilDate(t), nil
		}
	}
	if m := dayMonthRegex.FindStringSubmatch(cleaned); m != nil {
		if t, err := time.Parse("Jan 2 2006", abbrevMonth(m[2])+" "+m[1]+" "+m[3]); err == nil {
			return civilDate(t), nil
		}
	}

	if m := slashRegex.FindStringSubmatch(cleaned); m != nil {
		first, second := m[1], m[2]
		if dayFirst(locales) {
			first, second = second, first
		}
		if t, ok := buildDate(m[3], first, second); ok {
			return t, nil
		}
		// 25/12/2026 can only be day-first regardless of locale.
		if t, ok := buildDate(m[3], second, first); ok {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", text)
}

func dayFirst(locales []string) bool {
	return len(locales) > 0 && !strings.HasPrefix(locales[0], "en")
}

func parseSpanish(text string) (time.Time, bool) {
	m := spanishRegex.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	month, ok := spanishMonths[strings.ToLower(m[2])]
	if !ok {
		return time.Time{}, false
	}
	return buildDate(m[3], strconv.Itoa(int(month)), m[1])
}

func abbrevMonth(name string) string {
	if len(name) < 3 {
		return name
	}
	return strings.ToUpper(name[:1]) + strings.ToLower(name[1:3])
}

// buildDate validates year/month/day strings and rejects overflow such as
// February 30th.
func buildDate(year, month, day string) (time.Time, bool) {
	y, err1 := strconv.Atoi(year)
	m, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil || m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := *deadline.Date(y, time.Month(m), d)
	if t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func civilDate(t time.Time) time.Time {
	return *deadline.Date(t.Year(), t.Month(), t.Day())
}

// cleanDateString removes label prefixes and surrounding whitespace.
func cleanDateString(s string) string {
	s = normalizeSpace(s)
	lower := strings.ToLower(s)
	for _, p := range deadlinePrefixes {
		if idx := strings.Index(lower, p); idx != -1 {
			s = s[idx+len(p):]
			lower = lower[idx+len(p):]
		}
	}
	return strings.TrimSpace(s)
}
