package ingest

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/david/scholarhub/internal/models"
)

//go:embed config/sources.yaml
var defaultSources []byte

// Registry holds the configuration for all import sources.
type Registry struct {
	Sources []SourceConfig `yaml:"sources"`
}

// FetchConfig defines HTTP fetching behaviour for a source.
type FetchConfig struct {
	TimeoutSeconds int     `yaml:"timeout_seconds,omitempty"` // default 30
	RateLimitRPS   float64 `yaml:"rate_limit_rps,omitempty"`  // default 1
	UserAgent      string  `yaml:"user_agent,omitempty"`
}

// SourceConfig declares one listing site.
type SourceConfig struct {
	ID          string                 `yaml:"id"`
	Name        string                 `yaml:"name"`
	Type        models.OpportunityType `yaml:"type"`
	Country     string                 `yaml:"country,omitempty"`
	Strategy    string                 `yaml:"strategy,omitempty"` // default html_generic
	BaseURL     string                 `yaml:"base_url"`
	Description string                 `yaml:"description,omitempty"`

	Fetch       FetchConfig      `yaml:"fetch,omitempty"`
	Selectors   SelectorConfig   `yaml:"selectors"`
	Pagination  PaginationConfig `yaml:"pagination,omitempty"`
	MaxPages    int              `yaml:"max_pages,omitempty"`
	DateLocales []string         `yaml:"date_locales,omitempty"` // ["en", "es"]
}

type PaginationConfig struct {
	Next string `yaml:"next,omitempty"` // CSS selector for the next page link
}

type SelectorConfig struct {
	Container    string `yaml:"container"` // list item wrapper
	Link         string `yaml:"link,omitempty"`
	LinkAttr     string `yaml:"link_attr,omitempty"` // default href
	Title        string `yaml:"title,omitempty"`
	Organization string `yaml:"organization,omitempty"`
	Deadline     string `yaml:"deadline,omitempty"`
	Summary      string `yaml:"summary,omitempty"`
}

// LoadRegistry reads sources from path, or the built-in list when path is
// empty. ${VAR} references are expanded from the environment.
func LoadRegistry(path string) (*Registry, error) {
	data := defaultSources
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read sources: %w", err)
		}
		data = b
	}
	return ParseRegistry(data)
}

func ParseRegistry(data []byte) (*Registry, error) {
	expanded := os.ExpandEnv(string(data))

	var reg Registry
	if err := yaml.Unmarshal([]byte(expanded), &reg); err != nil {
		return nil, fmt.Errorf("parse sources: %w", err)
	}

	seen := make(map[string]bool, len(reg.Sources))
	for i := range reg.Sources {
		src := &reg.Sources[i]
		if src.ID == "" {
			return nil, fmt.Errorf("source #%d: id is required", i+1)
		}
		if seen[src.ID] {
			return nil, fmt.Errorf("source %s: duplicate id", src.ID)
		}
		seen[src.ID] = true

		if _, err := models.ParseOpportunityType(string(src.Type)); err != nil {
			return nil, fmt.Errorf("source %s: %w", src.ID, err)
		}
		if src.BaseURL == "" {
			return nil, fmt.Errorf("source %s: base_url is required", src.ID)
		}
		if src.Strategy == "" {
			src.Strategy = StrategyHTMLGeneric
		}
		if src.Strategy == StrategyHTMLGeneric && src.Selectors.Container == "" {
			return nil, fmt.Errorf("source %s: selector 'container' is required for html_generic strategy", src.ID)
		}
		if src.MaxPages <= 0 {
			src.MaxPages = 1
		}
		if len(src.DateLocales) == 0 {
			src.DateLocales = []string{"en"}
		}
	}

	return &reg, nil
}

func (r *Registry) Source(id string) (SourceConfig, bool) {
	for _, s := range r.Sources {
		if s.ID == id {
			return s, true
		}
	}
	return SourceConfig{}, false
}
