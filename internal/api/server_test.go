package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/david/scholarhub/internal/auth"
	"github.com/david/scholarhub/internal/deadline"
	"github.com/david/scholarhub/internal/ingest"
	"github.com/david/scholarhub/internal/mail"
	"github.com/david/scholarhub/internal/models"
	"github.com/david/scholarhub/internal/storage"
)

const testSecret = "test-jwt-secret"

var (
	adminID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	userID  = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	today   = time.Date(2026, time.January, 20, 9, 30, 0, 0, time.UTC)
)

func scholarship(title, country string, due *time.Time, active bool) models.Opportunity {
	return models.Opportunity{
		ID:           uuid.New(),
		Type:         models.TypeScholarship,
		Title:        title,
		Organization: title + " Foundation",
		Country:      country,
		Deadline:     due,
		IsActive:     active,
		Details:      models.ScholarshipDetails{FundingType: "fully_funded"},
	}
}

func seededStore() *fakeStore {
	return &fakeStore{
		opps: []models.Opportunity{
			scholarship("Fulbright", "United States", deadline.Date(2026, time.February, 15), true),
			scholarship("Chevening", "United Kingdom", deadline.Date(2026, time.January, 10), true),
			scholarship("Rolling Grant", "Peru", nil, true),
			scholarship("DAAD", "Germany", deadline.Date(2026, time.January, 25), true),
			scholarship("Hidden Draft", "Germany", deadline.Date(2026, time.March, 1), false),
			{
				ID:           uuid.New(),
				Type:         models.TypeJob,
				Title:        "Backend Engineer",
				Organization: "Gopher Inc",
				IsActive:     true,
				Details:      models.JobDetails{EmploymentType: "full_time"},
			},
		},
		profiles: map[uuid.UUID]models.Profile{
			adminID: {ID: adminID, Email: "admin@example.com", Role: models.RoleAdmin},
			userID:  {ID: userID, Email: "user@example.com", Role: models.RoleUser},
		},
	}
}

func newTestServer(t *testing.T, store *fakeStore, tweak ...func(*Deps)) *Server {
	t.Helper()
	d := Deps{
		Store:      store,
		Verifier:   auth.NewVerifier(testSecret),
		Classifier: deadline.At(today, time.UTC),
		ContactTo:  "inbox@scholarhub.test",
	}
	for _, fn := range tweak {
		fn(&d)
	}
	return NewServer(d)
}

func tokenFor(t *testing.T, id uuid.UUID, email string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   id.String(),
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func do(t *testing.T, s *Server, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type listItem struct {
	ID             uuid.UUID       `json:"id"`
	Title          string          `json:"title"`
	DaysRemaining  *int            `json:"days_remaining"`
	DeadlineStatus *deadline.Badge `json:"deadline_status"`
	DeadlineLabel  string          `json:"deadline_label"`
	IsExpired      bool            `json:"is_expired"`
}

type listResponse struct {
	Items  []listItem          `json:"items"`
	Total  int                 `json:"total"`
	Facets map[string][]string `json:"facets"`
}

func titles(items []listItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, seededStore())
	rec := do(t, s, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestListOpportunities_SortsByDeadlineAndHidesExpired(t *testing.T) {
	s := newTestServer(t, seededStore())

	rec := do(t, s, http.MethodGet, "/api/v1/opportunities?type=scholarship", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[listResponse](t, rec)

	assert.Equal(t, []string{"DAAD", "Fulbright", "Rolling Grant"}, titles(resp.Items))
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, []string{"Germany", "Peru", "United Kingdom", "United States"}, resp.Facets["country"])

	daad := resp.Items[0]
	require.NotNil(t, daad.DaysRemaining)
	assert.Equal(t, 5, *daad.DaysRemaining)
	require.NotNil(t, daad.DeadlineStatus)
	assert.Equal(t, deadline.StatusSoon, daad.DeadlineStatus.Status)
	assert.Equal(t, "January 25, 2026", daad.DeadlineLabel)

	rolling := resp.Items[2]
	assert.Nil(t, rolling.DaysRemaining)
	assert.Nil(t, rolling.DeadlineStatus)
	assert.Equal(t, deadline.NoDeadlineLabel, rolling.DeadlineLabel)
}

func TestListOpportunities_ShowExpiredSinksThem(t *testing.T) {
	s := newTestServer(t, seededStore())

	rec := do(t, s, http.MethodGet, "/api/v1/opportunities?type=scholarship&show_expired=true", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[listResponse](t, rec)

	assert.Equal(t, []string{"DAAD", "Fulbright", "Rolling Grant", "Chevening"}, titles(resp.Items))
	assert.True(t, resp.Items[3].IsExpired)
	assert.Equal(t, deadline.StatusExpired, resp.Items[3].DeadlineStatus.Status)
}

func TestListOpportunities_Filters(t *testing.T) {
	s := newTestServer(t, seededStore())

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"country substring", "type=scholarship&country=ger", []string{"DAAD"}},
		{"search organization", "type=scholarship&q=fulbright+foundation", []string{"Fulbright"}},
		{"enum facet exact", "type=scholarship&funding_type=fully", []string{}},
		{"enum facet match", "type=scholarship&funding_type=fully_funded", []string{"DAAD", "Fulbright", "Rolling Grant"}},
		{"cross type", "", []string{"DAAD", "Fulbright", "Rolling Grant", "Backend Engineer"}},
		{"limit keeps total", "type=scholarship&limit=1", []string{"DAAD"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, "/api/v1/opportunities?"+tt.query, "", "")
			require.Equal(t, http.StatusOK, rec.Code)
			resp := decode[listResponse](t, rec)
			assert.Equal(t, tt.want, titles(resp.Items))
		})
	}
}

func TestListOpportunities_LimitReportsFullTotal(t *testing.T) {
	s := newTestServer(t, seededStore())
	rec := do(t, s, http.MethodGet, "/api/v1/opportunities?type=scholarship&limit=1", "", "")
	resp := decode[listResponse](t, rec)
	assert.Len(t, resp.Items, 1)
	assert.Equal(t, 3, resp.Total)
}

func TestListOpportunities_RejectsUnknownType(t *testing.T) {
	s := newTestServer(t, seededStore())
	rec := do(t, s, http.MethodGet, "/api/v1/opportunities?type=grant", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOpportunity(t *testing.T) {
	store := seededStore()
	s := newTestServer(t, store)

	active := store.opps[0]
	rec := do(t, s, http.MethodGet, "/api/v1/opportunities/"+active.ID.String(), "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Fulbright", decode[listItem](t, rec).Title)

	draft := store.opps[4]
	rec = do(t, s, http.MethodGet, "/api/v1/opportunities/"+draft.ID.String(), "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/opportunities/"+uuid.NewString(), "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"opportunity not found"}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/v1/opportunities/not-a-uuid", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSuggestions(t *testing.T) {
	s := newTestServer(t, seededStore())

	rec := do(t, s, http.MethodGet, "/api/v1/opportunities/suggestions?type=scholarship&facet=country&input=un", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[struct {
		Suggestions []string `json:"suggestions"`
	}](t, rec)
	assert.Equal(t, []string{"United Kingdom", "United States"}, resp.Suggestions)

	rec = do(t, s, http.MethodGet, "/api/v1/opportunities/suggestions?type=scholarship&facet=pacing", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeatured(t *testing.T) {
	store := seededStore()
	store.opps[0].IsFeatured = true
	store.opps[1].IsFeatured = true // expired
	s := newTestServer(t, store)

	rec := do(t, s, http.MethodGet, "/api/v1/opportunities/featured", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Fulbright"}, titles(decode[[]listItem](t, rec)))
}

func TestAdminRoutes_RequireAdminRole(t *testing.T) {
	s := newTestServer(t, seededStore())

	rec := do(t, s, http.MethodGet, "/api/v1/admin/opportunities", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/admin/opportunities", "", tokenFor(t, userID, "user@example.com"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/admin/opportunities", "", tokenFor(t, uuid.New(), "ghost@example.com"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/admin/opportunities", "", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/admin/opportunities", "", tokenFor(t, adminID, "admin@example.com"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 6, decode[listResponse](t, rec).Total)
}

func TestAdminRoutes_BootstrapTimeout(t *testing.T) {
	store := seededStore()
	store.blockProfiles = true
	s := newTestServer(t, store, func(d *Deps) { d.BootstrapTimeout = 20 * time.Millisecond })

	rec := do(t, s, http.MethodGet, "/api/v1/admin/opportunities", "", tokenFor(t, adminID, "admin@example.com"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), auth.ErrBootstrapTimeout.Error())
}

func TestCreateOpportunity(t *testing.T) {
	store := seededStore()
	s := newTestServer(t, store)
	admin := tokenFor(t, adminID, "admin@example.com")

	body := `{
		"type": "online_course",
		"title": "Intro to Go",
		"organization": "Gopher Academy",
		"deadline": "2026-03-01",
		"is_active": true,
		"description": "<p>Learn Go</p><script>alert(1)</script>",
		"details": {"provider": "Coursera", "pacing": "self_paced", "has_certificate": true}
	}`
	rec := do(t, s, http.MethodPost, "/api/v1/admin/opportunities", body, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := store.opps[len(store.opps)-1]
	assert.Equal(t, models.TypeOnlineCourse, created.Type)
	assert.Equal(t, deadline.Date(2026, time.March, 1), created.Deadline)
	assert.NotContains(t, created.Description, "<script>")
	course, ok := created.Details.(models.OnlineCourseDetails)
	require.True(t, ok, "got %T", created.Details)
	assert.Equal(t, "Coursera", course.Provider)
}

func TestCreateOpportunity_ValidationErrors(t *testing.T) {
	s := newTestServer(t, seededStore())
	admin := tokenFor(t, adminID, "admin@example.com")

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing title", `{"type":"job","organization":"Acme"}`, "title"},
		{"unknown type", `{"type":"grant","title":"x","organization":"Acme"}`, "type"},
		{"malformed deadline", `{"type":"job","title":"x","organization":"Acme","deadline":"next friday"}`, "deadline"},
		{"bad enum in details", `{"type":"scholarship","title":"x","organization":"Acme","details":{"funding_type":"free money"}}`, "details.funding_type"},
		{"bad url", `{"type":"job","title":"x","organization":"Acme","application_url":"not a url"}`, "application_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/v1/admin/opportunities", tt.body, admin)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			resp := decode[struct {
				Fields map[string]string `json:"fields"`
			}](t, rec)
			assert.Contains(t, resp.Fields, tt.field)
		})
	}
}

func TestSetOpportunityFlagsAndDelete(t *testing.T) {
	store := seededStore()
	s := newTestServer(t, store)
	admin := tokenFor(t, adminID, "admin@example.com")
	draft := store.opps[4]

	rec := do(t, s, http.MethodPatch, "/api/v1/admin/opportunities/"+draft.ID.String()+"/flags", `{"is_active":true}`, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, store.opps[4].IsActive)
	assert.False(t, store.opps[4].IsFeatured)

	rec = do(t, s, http.MethodPatch, "/api/v1/admin/opportunities/"+draft.ID.String()+"/flags", `{}`, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/v1/admin/opportunities/"+draft.ID.String(), "", admin)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodDelete, "/api/v1/admin/opportunities/"+draft.ID.String(), "", admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreatePost_RetriesSlugOnConflict(t *testing.T) {
	store := seededStore()
	store.posts = []models.Post{{ID: uuid.New(), Title: "Hello World", Slug: "hello-world", IsPublished: true}}
	s := newTestServer(t, store)
	admin := tokenFor(t, adminID, "admin@example.com")

	rec := do(t, s, http.MethodPost, "/api/v1/admin/posts",
		`{"title":"Hello, World!","content":"<p>Some words here</p>","tags":["news"," "],"is_published":true}`, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[models.Post](t, rec)
	assert.True(t, strings.HasPrefix(created.Slug, "hello-world-"), created.Slug)
	assert.Equal(t, "Some words here", created.Excerpt)
	assert.Equal(t, []string{"news"}, created.Tags)
	assert.Equal(t, 1, created.ReadingMinutes)

	rec = do(t, s, http.MethodGet, "/api/v1/posts/"+created.Slug, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreatePost_FreeSlugHasNoSuffix(t *testing.T) {
	s := newTestServer(t, seededStore())

	rec := do(t, s, http.MethodPost, "/api/v1/admin/posts",
		`{"title":"Study in Germany","content":"<p>body</p>"}`, tokenFor(t, adminID, "admin@example.com"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "study-in-germany", decode[models.Post](t, rec).Slug)
}

func TestCreatePost_GivesUpAfterRepeatedConflicts(t *testing.T) {
	store := seededStore()
	store.slugAlwaysTaken = true
	s := newTestServer(t, store)

	rec := do(t, s, http.MethodPost, "/api/v1/admin/posts", `{"title":"Taken","content":"body"}`, tokenFor(t, adminID, "admin@example.com"))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPosts_PublicSeesPublishedOnly(t *testing.T) {
	store := seededStore()
	store.posts = []models.Post{
		{ID: uuid.New(), Title: "Visa tips", Slug: "visa-tips", Tags: []string{"visa"}, IsPublished: true},
		{ID: uuid.New(), Title: "Draft", Slug: "draft", Tags: []string{"internal"}},
	}
	s := newTestServer(t, store)

	rec := do(t, s, http.MethodGet, "/api/v1/posts", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[struct {
		Items  []models.Post       `json:"items"`
		Facets map[string][]string `json:"facets"`
	}](t, rec)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "visa-tips", resp.Items[0].Slug)
	assert.Equal(t, []string{"visa"}, resp.Facets["tag"])

	rec = do(t, s, http.MethodGet, "/api/v1/posts/draft", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/admin/posts", "", tokenFor(t, adminID, "admin@example.com"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Post](t, rec), 2)
}

func TestVisaGuides_SlugFromCountry(t *testing.T) {
	store := seededStore()
	s := newTestServer(t, store)
	admin := tokenFor(t, adminID, "admin@example.com")

	body := `{"country":"Côte d'Ivoire","overview":"<p>Apply early</p>","useful_links":["https://example.org/visa"]}`
	rec := do(t, s, http.MethodPost, "/api/v1/admin/visa-guides", body, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "cote-d-ivoire", decode[models.VisaGuide](t, rec).Slug)

	rec = do(t, s, http.MethodPost, "/api/v1/admin/visa-guides", body, admin)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/visa-guides/cote-d-ivoire", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/visa-guides?country=ivoire", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)
}

func TestBanners(t *testing.T) {
	store := seededStore()
	a, b := uuid.New(), uuid.New()
	store.banners = []models.Banner{
		{ID: a, Title: "Apply now", IsActive: true, DisplayOrder: 0},
		{ID: b, Title: "Hidden", DisplayOrder: 1},
	}
	s := newTestServer(t, store)
	admin := tokenFor(t, adminID, "admin@example.com")

	rec := do(t, s, http.MethodGet, "/api/v1/banners", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Banner](t, rec), 1)

	rec = do(t, s, http.MethodPut, "/api/v1/admin/banners/order", `{"ids":["`+b.String()+`","`+a.String()+`"]}`, admin)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	assert.Equal(t, 1, store.banners[0].DisplayOrder)
	assert.Equal(t, 0, store.banners[1].DisplayOrder)

	rec = do(t, s, http.MethodPut, "/api/v1/admin/banners/order", `{"ids":[]}`, admin)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/admin/banners", `{"title":"New","is_active":true}`, admin)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestContact(t *testing.T) {
	mailer := &fakeMailer{}
	s := newTestServer(t, seededStore(), func(d *Deps) { d.Mailer = mailer })

	rec := do(t, s, http.MethodPost, "/api/v1/contact",
		`{"name":"Ana Lopez","email":"ana@example.com","subject":"Question","message":"Hello there"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "inbox@scholarhub.test", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].ReplyTo, "ana@example.com")

	rec = do(t, s, http.MethodPost, "/api/v1/contact",
		`{"name":"Ana","email":"not-an-email","subject":"Q","message":"Hi"}`, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email"`)
}

func TestContact_MailerNotConfigured(t *testing.T) {
	s := newTestServer(t, seededStore(), func(d *Deps) { d.Mailer = &fakeMailer{err: mail.ErrNotConfigured} })
	rec := do(t, s, http.MethodPost, "/api/v1/contact",
		`{"name":"Ana","email":"ana@example.com","subject":"Q","message":"Hi"}`, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t, seededStore(), func(d *Deps) {
		d.Auth = fakeAuthenticator{signIn: func(_ context.Context, email, password string) (*auth.Tokens, error) {
			if password != "s3cret" {
				return nil, auth.ErrInvalidCreds
			}
			return &auth.Tokens{AccessToken: "access", UserID: userID, Email: email}, nil
		}}
	})

	rec := do(t, s, http.MethodPost, "/api/v1/auth/login", `{"email":"user@example.com","password":"s3cret"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "access", decode[auth.Tokens](t, rec).AccessToken)

	rec = do(t, s, http.MethodPost, "/api/v1/auth/login", `{"email":"user@example.com","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/auth/login", `{"email":"user@example.com"}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/auth/oauth/myspace", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/auth/oauth/google?redirect_to=https://app.test/cb", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "provider=google")
}

func TestSession(t *testing.T) {
	s := newTestServer(t, seededStore())

	rec := do(t, s, http.MethodGet, "/api/v1/auth/session", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/auth/session", "", tokenFor(t, adminID, "admin@example.com"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RoleAdmin, decode[auth.Session](t, rec).Role)

	stranger := uuid.New()
	rec = do(t, s, http.MethodGet, "/api/v1/auth/session", "", tokenFor(t, stranger, "new@example.com"))
	require.Equal(t, http.StatusOK, rec.Code)
	sess := decode[auth.Session](t, rec)
	assert.Equal(t, stranger, sess.UserID)
	assert.Equal(t, models.RoleUser, sess.Role)
}

func TestUpload(t *testing.T) {
	upload := func(s *Server) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		part, err := w.CreateFormFile("file", "cover.png")
		require.NoError(t, err)
		_, _ = part.Write([]byte("fake image bytes"))
		require.NoError(t, w.WriteField("folder", "banners"))
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/uploads", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, adminID, "admin@example.com"))
		rec := httptest.NewRecorder()
		s.Echo.ServeHTTP(rec, req)
		return rec
	}

	ok := newTestServer(t, seededStore(), func(d *Deps) {
		d.Uploader = fakeUploader{url: "https://cdn.test/banners/x.jpg"}
	})
	rec := upload(ok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"url":"https://cdn.test/banners/x.jpg"}`, rec.Body.String())

	bad := newTestServer(t, seededStore(), func(d *Deps) {
		d.Uploader = fakeUploader{err: storage.ErrNotImage}
	})
	assert.Equal(t, http.StatusUnprocessableEntity, upload(bad).Code)

	none := newTestServer(t, seededStore())
	assert.Equal(t, http.StatusServiceUnavailable, upload(none).Code)
}

type jobStatus struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Error  string          `json:"error"`
	Result json.RawMessage `json:"result"`
}

// pollJob is safe to call from the Eventually goroutine.
func pollJob(s *Server, path, token string) jobStatus {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)

	var st jobStatus
	_ = json.Unmarshal(rec.Body.Bytes(), &st)
	return st
}

func TestImportJob(t *testing.T) {
	imp := &fakeImporter{
		sources: []ingest.SourceConfig{{ID: "daad", Name: "DAAD", Type: models.TypeScholarship, BaseURL: "https://daad.test", MaxPages: 1}},
		release: make(chan struct{}),
		result:  &ingest.Result{Status: "success", Stats: ingest.Stats{Found: 3, Saved: 2, Skipped: 1}},
	}
	s := newTestServer(t, seededStore(), func(d *Deps) { d.Importer = imp })
	admin := tokenFor(t, adminID, "admin@example.com")

	rec := do(t, s, http.MethodGet, "/api/v1/admin/import/sources", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"daad"`)

	rec = do(t, s, http.MethodPost, "/api/v1/admin/import/nope", "", admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/admin/import/daad", "", admin)
	require.Equal(t, http.StatusAccepted, rec.Code)
	started := decode[struct {
		JobID string `json:"job_id"`
		Poll  string `json:"poll"`
	}](t, rec)
	assert.Equal(t, "/api/v1/admin/job/"+started.JobID, started.Poll)

	rec = do(t, s, http.MethodPost, "/api/v1/admin/import/daad", "", admin)
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(imp.release)
	require.Eventually(t, func() bool {
		return pollJob(s, started.Poll, admin).Status == "completed"
	}, 2*time.Second, 10*time.Millisecond)

	rec = do(t, s, http.MethodGet, started.Poll, "", admin)
	status := decode[jobStatus](t, rec)
	assert.Contains(t, string(status.Result), `"saved":2`)
	assert.Contains(t, string(status.Result), `"source_id":"daad"`)

	rec = do(t, s, http.MethodGet, "/api/v1/admin/job/unknown", "", admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportJob_Failure(t *testing.T) {
	imp := &fakeImporter{
		sources: []ingest.SourceConfig{{ID: "daad"}},
		err:     errors.New("listing page returned 503"),
	}
	s := newTestServer(t, seededStore(), func(d *Deps) { d.Importer = imp })
	admin := tokenFor(t, adminID, "admin@example.com")

	rec := do(t, s, http.MethodPost, "/api/v1/admin/import/daad", "", admin)
	require.Equal(t, http.StatusAccepted, rec.Code)
	jobID := decode[struct {
		JobID string `json:"job_id"`
	}](t, rec).JobID

	require.Eventually(t, func() bool {
		st := pollJob(s, "/api/v1/admin/job/"+jobID, admin)
		return st.Status == "failed" && strings.Contains(st.Error, "503")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestImportRuns(t *testing.T) {
	store := seededStore()
	store.runs = []models.ImportRun{{RunID: uuid.New(), SourceID: "daad", Status: "success", ItemsFound: 4, ItemsSaved: 4}}
	s := newTestServer(t, store)

	rec := do(t, s, http.MethodGet, "/api/v1/admin/import/runs", "", tokenFor(t, adminID, "admin@example.com"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.ImportRun](t, rec), 1)
}
