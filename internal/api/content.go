package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/david/scholarhub/internal/content"
	"github.com/david/scholarhub/internal/db"
	"github.com/david/scholarhub/internal/listfilter"
	"github.com/david/scholarhub/internal/models"
)

const (
	slugAttempts = 5
	excerptLen   = 200
)

// createWithSlug tries the plain slug first and then fresh suffixed slugs
// until storage accepts one. The UNIQUE constraint on slug is the only
// arbiter, so an unsuffixed slug is kept for the first post with a given
// title and every later one gets title-slug plus a random suffix.
func createWithSlug[T any](ctx context.Context, title string, create func(ctx context.Context, slug string) (T, error)) (T, error) {
	slug := content.Slugify(title)
	var zero T
	for attempt := 0; attempt < slugAttempts; attempt++ {
		v, err := create(ctx, slug)
		if !errors.Is(err, db.ErrSlugTaken) {
			return v, err
		}
		slug = content.NewSlug(title)
	}
	return zero, fmt.Errorf("no free slug after %d attempts: %w", slugAttempts, db.ErrSlugTaken)
}

// Posts

type postInput struct {
	Title         string   `json:"title" validate:"required,max=200"`
	Content       string   `json:"content" validate:"required"`
	Excerpt       string   `json:"excerpt" validate:"max=500"`
	Tags          []string `json:"tags" validate:"max=20,dive,max=40"`
	IsPublished   bool     `json:"is_published"`
	AuthorName    string   `json:"author_name" validate:"max=120"`
	CoverImageURL string   `json:"cover_image_url" validate:"omitempty,url"`
}

func (in postInput) toPost() models.Post {
	html := content.SanitizeHTML(in.Content)
	excerpt := strings.TrimSpace(in.Excerpt)
	if excerpt == "" {
		excerpt = content.Excerpt(html, excerptLen)
	}
	tags := make([]string, 0, len(in.Tags))
	for _, t := range in.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return models.Post{
		Title:          strings.TrimSpace(in.Title),
		Content:        html,
		Excerpt:        excerpt,
		Tags:           tags,
		IsPublished:    in.IsPublished,
		AuthorName:     strings.TrimSpace(in.AuthorName),
		CoverImageURL:  strings.TrimSpace(in.CoverImageURL),
		ReadingMinutes: content.ReadingMinutes(html),
	}
}

func (s *Server) handleListPosts(c echo.Context) error {
	loaded, err := s.store.ListPosts(c.Request().Context(), true, s.listLimit)
	if err != nil {
		return s.storeError(c, "posts", err)
	}
	spec := listfilter.PostPage
	filtered := listfilter.Apply(loaded, spec, listQuery(c, spec))
	return c.JSON(http.StatusOK, map[string]any{
		"items":  filtered,
		"total":  len(filtered),
		"facets": facetOptions(loaded, spec),
	})
}

func (s *Server) handleGetPost(c echo.Context) error {
	p, err := s.store.GetPostBySlug(c.Request().Context(), c.Param("slug"), true)
	if err != nil {
		return s.storeError(c, "post", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleAdminListPosts(c echo.Context) error {
	posts, err := s.store.ListPosts(c.Request().Context(), false, s.listLimit)
	if err != nil {
		return s.storeError(c, "posts", err)
	}
	return c.JSON(http.StatusOK, posts)
}

func (s *Server) handleAdminGetPost(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c, "post")
	}
	p, err := s.store.GetPost(c.Request().Context(), id)
	if err != nil {
		return s.storeError(c, "post", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleCreatePost(c echo.Context) error {
	var in postInput
	if ok, err := bindValid(c, &in); !ok {
		return err
	}
	p := in.toPost()

	created, err := createWithSlug(c.Request().Context(), p.Title, func(ctx context.Context, slug string) (*models.Post, error) {
		p.Slug = slug
		return s.store.CreatePost(ctx, p)
	})
	if errors.Is(err, db.ErrSlugTaken) {
		return c.JSON(http.StatusConflict, map[string]string{"error": "could not allocate a unique slug"})
	}
	if err != nil {
		return s.storeError(c, "post", err)
	}
	s.logger.Info("post created", "id", created.ID, "slug", created.Slug)
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUpdatePost(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c, "post")
	}
	var in postInput
	if ok, err := bindValid(c, &in); !ok {
		return err
	}
	updated, err := s.store.UpdatePost(c.Request().Context(), id, in.toPost())
	if err != nil {
		return s.storeError(c, "post", err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeletePost(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c, "post")
	}
	if err := s.store.DeletePost(c.Request().Context(), id); err != nil {
		return s.storeError(c, "post", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Visa guides

type visaGuideInput struct {
	Country        string   `json:"country" validate:"required,max=100"`
	Overview       string   `json:"overview"`
	Requirements   []string `json:"requirements"`
	ProcessSteps   []string `json:"process_steps"`
	UsefulLinks    []string `json:"useful_links" validate:"dive,url"`
	Fees           string   `json:"fees" validate:"max=200"`
	ProcessingTime string   `json:"processing_time" validate:"max=200"`
}

func (in visaGuideInput) toVisaGuide() models.VisaGuide {
	country := strings.TrimSpace(in.Country)
	return models.VisaGuide{
		Country:        country,
		Slug:           content.CountrySlug(country),
		Overview:       content.SanitizeHTML(in.Overview),
		Requirements:   in.Requirements,
		ProcessSteps:   in.ProcessSteps,
		UsefulLinks:    in.UsefulLinks,
		Fees:           strings.TrimSpace(in.Fees),
		ProcessingTime: strings.TrimSpace(in.ProcessingTime),
	}
}

func (s *Server) visaGuideError(c echo.Context, err error) error {
	if errors.Is(err, db.ErrSlugTaken) {
		return c.JSON(http.StatusConflict, map[string]string{"error": "a guide for this country already exists"})
	}
	return s.storeError(c, "visa guide", err)
}

func (s *Server) handleListVisaGuides(c echo.Context) error {
	loaded, err := s.store.ListVisaGuides(c.Request().Context())
	if err != nil {
		return s.storeError(c, "visa guides", err)
	}
	spec := listfilter.VisaGuidePage
	filtered := listfilter.Apply(loaded, spec, listQuery(c, spec))
	return c.JSON(http.StatusOK, map[string]any{
		"items":  filtered,
		"total":  len(filtered),
		"facets": facetOptions(loaded, spec),
	})
}

func (s *Server) handleGetVisaGuide(c echo.Context) error {
	g, err := s.store.GetVisaGuideBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return s.storeError(c, "visa guide", err)
	}
	return c.JSON(http.StatusOK, g)
}

func (s *Server) handleCreateVisaGuide(c echo.Context) error {
	var in visaGuideInput
	if ok, err := bindValid(c, &in); !ok {
		return err
	}
	created, err := s.store.CreateVisaGuide(c.Request().Context(), in.toVisaGuide())
	if err != nil {
		return s.visaGuideError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUpdateVisaGuide(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c, "visa guide")
	}
	var in visaGuideInput
	if ok, err := bindValid(c, &in); !ok {
		return err
	}
	updated, err := s.store.UpdateVisaGuide(c.Request().Context(), id, in.toVisaGuide())
	if err != nil {
		return s.visaGuideError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteVisaGuide(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c, "visa guide")
	}
	if err := s.store.DeleteVisaGuide(c.Request().Context(), id); err != nil {
		return s.storeError(c, "visa guide", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Banners

type bannerInput struct {
	Title           string `json:"title" validate:"required,max=120"`
	Description     string `json:"description" validate:"max=300"`
	BackgroundColor string `json:"background_color" validate:"max=40"`
	TextColor       string `json:"text_color" validate:"max=40"`
	LinkURL         string `json:"link_url"`
	LinkLabel       string `json:"link_label" validate:"max=60"`
	ImageURL        string `json:"image_url" validate:"omitempty,url"`
	DisplayOrder    int    `json:"display_order" validate:"min=0"`
	IsActive        bool   `json:"is_active"`
}

func (in bannerInput) toBanner() models.Banner {
	return models.Banner{
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		BackgroundColor: in.BackgroundColor,
		TextColor:       in.TextColor,
		LinkURL:         strings.TrimSpace(in.LinkURL),
		LinkLabel:       strings.TrimSpace(in.LinkLabel),
		ImageURL:        strings.TrimSpace(in.ImageURL),
		DisplayOrder:    in.DisplayOrder,
		IsActive:        in.IsActive,
	}
}

func (s *Server) handleListBanners(c echo.Context) error {
	banners, err := s.store.ListBanners(c.Request().Context(), true)
	if err != nil {
		return s.storeError(c, "banners", err)
	}
	return c.JSON(http.StatusOK, banners)
}

func (s *Server) handleAdminListBanners(c echo.Context) error {
	banners, err := s.store.ListBanners(c.Request().Context(), false)
	if err != nil {
		return s.storeError(c, "banners", err)
	}
	return c.JSON(http.StatusOK, banners)
}

func (s *Server) handleCreateBanner(c echo.Context) error {
	var in bannerInput
	if ok, err := bindValid(c, &in); !ok {
		return err
	}
	created, err := s.store.CreateBanner(c.Request().Context(), in.toBanner())
	if err != nil {
		return s.storeError(c, "banner", err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUpdateBanner(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c, "banner")
	}
	var in bannerInput
	if ok, err := bindValid(c, &in); !ok {
		return err
	}
	updated, err := s.store.UpdateBanner(c.Request().Context(), id, in.toBanner())
	if err != nil {
		return s.storeError(c, "banner", err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteBanner(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return notFound(c, "banner")
	}
	if err := s.store.DeleteBanner(c.Request().Context(), id); err != nil {
		return s.storeError(c, "banner", err)
	}
	return c.NoContent(http.StatusNoContent)
}

type reorderRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}

func (s *Server) handleReorderBanners(c echo.Context) error {
	var req reorderRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	if err := s.store.ReorderBanners(c.Request().Context(), req.IDs); err != nil {
		return s.storeError(c, "banner", err)
	}
	return c.NoContent(http.StatusNoContent)
}
