package listfilter

import (
	"slices"
	"strings"
)

const MaxSuggestions = 10

// Distinct collects the non-blank values observed across items, deduplicated
// and sorted, keeping their original case.
func Distinct[T any](items []T, values func(T) []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, item := range items {
		for _, v := range values(item) {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return out
}

// Suggest narrows sorted options to those containing input, ignoring case,
// and caps the result at MaxSuggestions.
func Suggest(options []string, input string) []string {
	needle := strings.ToLower(strings.TrimSpace(input))
	out := make([]string, 0, MaxSuggestions)
	for _, o := range options {
		if needle != "" && !strings.Contains(strings.ToLower(o), needle) {
			continue
		}
		out = append(out, o)
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}

func Suggestions[T any](items []T, values func(T) []string, input string) []string {
	return Suggest(Distinct(items, values), input)
}

// Picker is the state of an autocomplete control. Typing opens the panel with
// fresh suggestions; selecting a value or clicking outside closes it.
type Picker struct {
	options []string
	input   string
	open    bool
	shown   []string
}

func NewPicker(options []string) *Picker {
	return &Picker{options: options}
}

func (p *Picker) Type(input string) {
	p.input = input
	p.shown = Suggest(p.options, input)
	p.open = true
}

func (p *Picker) Select(value string) {
	p.input = value
	p.open = false
	p.shown = nil
}

func (p *Picker) ClickOutside() {
	p.open = false
	p.shown = nil
}

func (p *Picker) Open() bool    { return p.open }
func (p *Picker) Input() string { return p.input }

// Visible returns the suggestions on display, nil while the panel is closed.
func (p *Picker) Visible() []string {
	if !p.open {
		return nil
	}
	return p.shown
}
