// Package listfilter is the in-memory filter behind every list page: an AND
// of optional predicates over an already fetched slice, facet suggestions for
// the pickers, and a debouncer that separates what the user typed from what
// the filter currently uses.
package listfilter

import "strings"

// Match selects how a facet control is compared with an item's value.
type Match int

const (
	// Contains matches when the item value contains the control value,
	// ignoring case. An identical value is the trivial case.
	Contains Match = iota
	// Exact matches enum-like values verbatim.
	Exact
)

// Facet is one filter dimension of a list page.
type Facet[T any] struct {
	Name  string
	Match Match
	// Suggest marks facets that back an autocomplete picker.
	Suggest bool
	Values  func(T) []string
}

// One adapts a single-valued accessor.
func One[T any](f func(T) string) func(T) []string {
	return func(item T) []string { return []string{f(item)} }
}

// Spec describes how a list page reads its items.
type Spec[T any] struct {
	Search func(T) []string
	Facets []Facet[T]
}

// Facet looks up a facet by name.
func (s Spec[T]) Facet(name string) (Facet[T], bool) {
	for _, f := range s.Facets {
		if f.Name == name {
			return f, true
		}
	}
	return Facet[T]{}, false
}

// Query holds the effective control values. Empty values are ignored and so
// are names the spec does not declare.
type Query struct {
	Search string
	Facets map[string]string
}

// Empty reports whether no predicate is active.
func (q Query) Empty() bool {
	if strings.TrimSpace(q.Search) != "" {
		return false
	}
	for _, v := range q.Facets {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

type predicate[T any] func(T) bool

func (s Spec[T]) predicates(q Query) []predicate[T] {
	var preds []predicate[T]

	if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" && s.Search != nil {
		preds = append(preds, func(item T) bool {
			for _, field := range s.Search(item) {
				if strings.Contains(strings.ToLower(field), term) {
					return true
				}
			}
			return false
		})
	}

	for _, f := range s.Facets {
		want := strings.TrimSpace(q.Facets[f.Name])
		if want == "" {
			continue
		}
		preds = append(preds, facetPredicate(f, want))
	}
	return preds
}

func facetPredicate[T any](f Facet[T], want string) predicate[T] {
	if f.Match == Exact {
		return func(item T) bool {
			for _, v := range f.Values(item) {
				if v == want {
					return true
				}
			}
			return false
		}
	}
	lw := strings.ToLower(want)
	return func(item T) bool {
		for _, v := range f.Values(item) {
			if strings.Contains(strings.ToLower(v), lw) {
				return true
			}
		}
		return false
	}
}

// Apply returns the items satisfying every active predicate, in input order.
// The input slice is never modified.
func Apply[T any](items []T, spec Spec[T], q Query) []T {
	preds := spec.predicates(q)
	out := make([]T, 0, len(items))
next:
	for _, item := range items {
		for _, p := range preds {
			if !p(item) {
				continue next
			}
		}
		out = append(out, item)
	}
	return out
}
