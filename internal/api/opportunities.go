package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/david/scholarhub/internal/content"
	"github.com/david/scholarhub/internal/db"
	"github.com/david/scholarhub/internal/deadline"
	"github.com/david/scholarhub/internal/listfilter"
	"github.com/david/scholarhub/internal/models"
)

const maxDescriptionLen = 20000

// opportunityView is an opportunity decorated with its deadline display
// state as of the request.
type opportunityView struct {
	models.Opportunity
	DaysRemaining  *int            `json:"days_remaining"`
	DeadlineStatus *deadline.Badge `json:"deadline_status"`
	DeadlineLabel  string          `json:"deadline_label"`
	IsExpired      bool            `json:"is_expired"`
}

func (s *Server) view(o models.Opportunity) opportunityView {
	return opportunityView{
		Opportunity:    o,
		DaysRemaining:  s.classifier.DaysRemaining(o.Deadline),
		DeadlineStatus: s.classifier.Status(o.Deadline),
		DeadlineLabel:  s.classifier.Format(o.Deadline),
		IsExpired:      s.classifier.IsExpired(o.Deadline),
	}
}

func (s *Server) views(items []models.Opportunity) []opportunityView {
	out := make([]opportunityView, len(items))
	for i, o := range items {
		out[i] = s.view(o)
	}
	return out
}

// listQuery reads the search box and every facet the page declares.
func listQuery[T any](c echo.Context, spec listfilter.Spec[T]) listfilter.Query {
	q := listfilter.Query{Search: c.QueryParam("q"), Facets: map[string]string{}}
	for _, f := range spec.Facets {
		if v := strings.TrimSpace(c.QueryParam(f.Name)); v != "" {
			q.Facets[f.Name] = v
		}
	}
	return q
}

// facetOptions lists the picker options of every suggest facet, drawn from
// the loaded set.
func facetOptions[T any](items []T, spec listfilter.Spec[T]) map[string][]string {
	out := map[string][]string{}
	for _, f := range spec.Facets {
		if f.Suggest {
			out[f.Name] = listfilter.Distinct(items, f.Values)
		}
	}
	return out
}

func queryType(c echo.Context) (models.OpportunityType, error) {
	raw := strings.TrimSpace(c.QueryParam("type"))
	if raw == "" {
		return "", nil
	}
	return models.ParseOpportunityType(raw)
}

func queryBool(c echo.Context, name string) bool {
	b, _ := strconv.ParseBool(c.QueryParam(name))
	return b
}

func queryLimit(c echo.Context) int {
	n, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (s *Server) handleListOpportunities(c echo.Context) error {
	typ, err := queryType(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	loaded, err := s.store.ListOpportunities(c.Request().Context(), db.OpportunityFilter{
		Type:       typ,
		ActiveOnly: true,
		Limit:      s.listLimit,
	})
	if err != nil {
		return s.storeError(c, "opportunities", err)
	}

	spec := listfilter.OpportunityPage(typ)
	filtered := listfilter.Apply(loaded, spec, listQuery(c, spec))
	sorted := deadline.Sort(s.classifier, filtered, queryBool(c, "show_expired"))

	total := len(sorted)
	if n := queryLimit(c); n > 0 && n < len(sorted) {
		sorted = sorted[:n]
	}

	return c.JSON(http.StatusOK, map[string]any{
		"items":  s.views(sorted),
		"total":  total,
		"facets": facetOptions(loaded, spec),
	})
}

func (s *Server) handleFeaturedOpportunities(c echo.Context) error {
	loaded, err := s.store.ListOpportunities(c.Request().Context(), db.OpportunityFilter{
		ActiveOnly:   true,
		FeaturedOnly: true,
		Limit:        s.listLimit,
	})
	if err != nil {
		return s.storeError(c, "opportunities", err)
	}
	sorted := deadline.Sort(s.classifier, loaded, false)
	if n := queryLimit(c); n > 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return c.JSON(http.StatusOK, s.views(sorted))
}

func (s *Server) handleGetOpportunity(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c, "opportunity")
	}
	o, err := s.store.GetOpportunity(c.Request().Context(), id)
	if err != nil {
		return s.storeError(c, "opportunity", err)
	}
	// Drafts and deactivated records are invisible to the public.
	if !o.IsActive {
		return notFound(c, "opportunity")
	}
	return c.JSON(http.StatusOK, s.view(*o))
}

func (s *Server) handleSuggestions(c echo.Context) error {
	typ, err := queryType(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	name := c.QueryParam("facet")
	if name == "" {
		name = "country"
	}
	spec := listfilter.OpportunityPage(typ)
	facet, ok := spec.Facet(name)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown facet: " + name})
	}

	loaded, err := s.store.ListOpportunities(c.Request().Context(), db.OpportunityFilter{
		Type:       typ,
		ActiveOnly: true,
		Limit:      s.listLimit,
	})
	if err != nil {
		return s.storeError(c, "opportunities", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"facet":       name,
		"suggestions": listfilter.Suggestions(loaded, facet.Values, c.QueryParam("input")),
	})
}

// Admin

type opportunityInput struct {
	Type           string          `json:"type" validate:"required"`
	Title          string          `json:"title" validate:"required,max=300"`
	Organization   string          `json:"organization" validate:"required,max=200"`
	Country        string          `json:"country" validate:"max=100"`
	Location       string          `json:"location" validate:"max=200"`
	Deadline       string          `json:"deadline"`
	IsActive       bool            `json:"is_active"`
	IsFeatured     bool            `json:"is_featured"`
	Details        json.RawMessage `json:"details"`
	Description    string          `json:"description"`
	ApplicationURL string          `json:"application_url" validate:"omitempty,url"`
	ImageURL       string          `json:"image_url" validate:"omitempty,url"`
}

// toOpportunity checks what tags cannot: the type enum, the deadline date
// and the details variant. It returns field errors on failure.
func (in opportunityInput) toOpportunity(c echo.Context) (models.Opportunity, map[string]string) {
	fields := map[string]string{}

	typ, err := models.ParseOpportunityType(in.Type)
	if err != nil {
		fields["type"] = err.Error()
		return models.Opportunity{}, fields
	}

	due, err := deadline.Parse(in.Deadline)
	if err != nil {
		fields["deadline"] = "must be a date in YYYY-MM-DD format"
	}

	details, err := models.UnmarshalDetails(typ, in.Details)
	if err != nil {
		fields["details"] = err.Error()
	} else if err := c.Validate(details); err != nil {
		for name, msg := range fieldErrors(err) {
			fields["details."+name] = msg
		}
	}

	if len(in.Description) > maxDescriptionLen {
		fields["description"] = "must be at most " + strconv.Itoa(maxDescriptionLen) + " characters"
	}

	if len(fields) > 0 {
		return models.Opportunity{}, fields
	}

	return models.Opportunity{
		Type:           typ,
		Title:          strings.TrimSpace(in.Title),
		Organization:   strings.TrimSpace(in.Organization),
		Country:        strings.TrimSpace(in.Country),
		Location:       strings.TrimSpace(in.Location),
		Deadline:       due,
		IsActive:       in.IsActive,
		IsFeatured:     in.IsFeatured,
		Details:        details,
		Description:    content.SanitizeHTML(in.Description),
		ApplicationURL: strings.TrimSpace(in.ApplicationURL),
		ImageURL:       strings.TrimSpace(in.ImageURL),
	}, nil
}

func (s *Server) handleAdminListOpportunities(c echo.Context) error {
	typ, err := queryType(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	loaded, err := s.store.ListOpportunities(c.Request().Context(), db.OpportunityFilter{
		Type:  typ,
		Limit: s.listLimit,
	})
	if err != nil {
		return s.storeError(c, "opportunities", err)
	}
	spec := listfilter.OpportunityPage(typ)
	filtered := listfilter.Apply(loaded, spec, listQuery(c, spec))
	return c.JSON(http.StatusOK, map[string]any{
		"items": s.views(filtered),
		"total": len(filtered),
	})
}

func (s *Server) handleAdminGetOpportunity(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c, "opportunity")
	}
	o, err := s.store.GetOpportunity(c.Request().Context(), id)
	if err != nil {
		return s.storeError(c, "opportunity", err)
	}
	return c.JSON(http.StatusOK, s.view(*o))
}

func (s *Server) handleCreateOpportunity(c echo.Context) error {
	var in opportunityInput
	if ok, err := bindValid(c, &in); !ok {
		return err
	}
	o, fields := in.toOpportunity(c)
	if fields != nil {
		return validationFailed(c, fields)
	}

	created, err := s.store.CreateOpportunity(c.Request().Context(), o)
	if err != nil {
		return s.storeError(c, "opportunity", err)
	}
	s.logger.Info("opportunity created", "id", created.ID, "type", created.Type)
	return c.JSON(http.StatusCreated, s.view(*created))
}

func (s *Server) handleUpdateOpportunity(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c, "opportunity")
	}
	var in opportunityInput
	if ok, err := bindValid(c, &in); !ok {
		return err
	}
	o, fields := in.toOpportunity(c)
	if fields != nil {
		return validationFailed(c, fields)
	}

	updated, err := s.store.UpdateOpportunity(c.Request().Context(), id, o)
	if err != nil {
		return s.storeError(c, "opportunity", err)
	}
	return c.JSON(http.StatusOK, s.view(*updated))
}

func (s *Server) handleSetOpportunityFlags(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c, "opportunity")
	}
	var flags db.Flags
	if err := c.Bind(&flags); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if flags.IsActive == nil && flags.IsFeatured == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "is_active or is_featured is required"})
	}

	updated, err := s.store.SetOpportunityFlags(c.Request().Context(), id, flags)
	if err != nil {
		return s.storeError(c, "opportunity", err)
	}
	return c.JSON(http.StatusOK, s.view(*updated))
}

func (s *Server) handleDeleteOpportunity(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c, "opportunity")
	}
	if err := s.store.DeleteOpportunity(c.Request().Context(), id); err != nil {
		return s.storeError(c, "opportunity", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleOpportunityStats(c echo.Context) error {
	stats, err := s.store.OpportunityStats(c.Request().Context())
	if err != nil {
		return s.storeError(c, "opportunity stats", err)
	}
	return c.JSON(http.StatusOK, stats)
}
