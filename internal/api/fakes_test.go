package api

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/david/scholarhub/internal/auth"
	"github.com/david/scholarhub/internal/db"
	"github.com/david/scholarhub/internal/ingest"
	"github.com/david/scholarhub/internal/mail"
	"github.com/david/scholarhub/internal/models"
)

type fakeStore struct {
	mu       sync.Mutex
	opps     []models.Opportunity
	posts    []models.Post
	guides   []models.VisaGuide
	banners  []models.Banner
	profiles map[uuid.UUID]models.Profile
	runs     []models.ImportRun

	slugAlwaysTaken bool
	// blockProfiles makes GetProfile wait for its context to end.
	blockProfiles bool
}

func notFoundErr(op string) error {
	return fmt.Errorf("%s: %w", op, db.ErrNotFound)
}

func (f *fakeStore) ListOpportunities(_ context.Context, flt db.OpportunityFilter) ([]models.Opportunity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Opportunity
	for _, o := range f.opps {
		if flt.Type != "" && o.Type != flt.Type {
			continue
		}
		if flt.ActiveOnly && !o.IsActive {
			continue
		}
		if flt.FeaturedOnly && !o.IsFeatured {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeStore) GetOpportunity(_ context.Context, id uuid.UUID) (*models.Opportunity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.opps {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, notFoundErr("get opportunity")
}

func (f *fakeStore) CreateOpportunity(_ context.Context, o models.Opportunity) (*models.Opportunity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o.ID = uuid.New()
	f.opps = append(f.opps, o)
	return &o, nil
}

func (f *fakeStore) UpdateOpportunity(_ context.Context, id uuid.UUID, o models.Opportunity) (*models.Opportunity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.opps {
		if f.opps[i].ID == id {
			o.ID = id
			f.opps[i] = o
			return &o, nil
		}
	}
	return nil, notFoundErr("update opportunity")
}

func (f *fakeStore) SetOpportunityFlags(_ context.Context, id uuid.UUID, flags db.Flags) (*models.Opportunity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.opps {
		if f.opps[i].ID != id {
			continue
		}
		if flags.IsActive != nil {
			f.opps[i].IsActive = *flags.IsActive
		}
		if flags.IsFeatured != nil {
			f.opps[i].IsFeatured = *flags.IsFeatured
		}
		o := f.opps[i]
		return &o, nil
	}
	return nil, notFoundErr("set opportunity flags")
}

func (f *fakeStore) DeleteOpportunity(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.opps {
		if f.opps[i].ID == id {
			f.opps = slices.Delete(f.opps, i, i+1)
			return nil
		}
	}
	return notFoundErr("delete opportunity")
}

func (f *fakeStore) OpportunityStats(context.Context) ([]db.TypeStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := make([]db.TypeStats, 0, len(models.OpportunityTypes))
	for _, t := range models.OpportunityTypes {
		st := db.TypeStats{Type: t}
		for _, o := range f.opps {
			if o.Type != t {
				continue
			}
			st.Total++
			if o.IsActive {
				st.Active++
			}
			if o.IsFeatured {
				st.Featured++
			}
		}
		stats = append(stats, st)
	}
	return stats, nil
}

func (f *fakeStore) ListPosts(_ context.Context, publishedOnly bool, _ int) ([]models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Post
	for _, p := range f.posts {
		if publishedOnly && !p.IsPublished {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) GetPost(_ context.Context, id uuid.UUID) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.posts {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, notFoundErr("get post")
}

func (f *fakeStore) GetPostBySlug(_ context.Context, slug string, publishedOnly bool) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.posts {
		if p.Slug == slug && (p.IsPublished || !publishedOnly) {
			return &p, nil
		}
	}
	return nil, notFoundErr("get post")
}

func (f *fakeStore) CreatePost(_ context.Context, p models.Post) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.slugAlwaysTaken {
		return nil, fmt.Errorf("create post: %w", db.ErrSlugTaken)
	}
	for _, existing := range f.posts {
		if existing.Slug == p.Slug {
			return nil, fmt.Errorf("create post: %w", db.ErrSlugTaken)
		}
	}
	p.ID = uuid.New()
	f.posts = append(f.posts, p)
	return &p, nil
}

func (f *fakeStore) UpdatePost(_ context.Context, id uuid.UUID, p models.Post) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.posts {
		if f.posts[i].ID == id {
			p.ID = id
			p.Slug = f.posts[i].Slug
			f.posts[i] = p
			return &p, nil
		}
	}
	return nil, notFoundErr("update post")
}

func (f *fakeStore) DeletePost(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.posts {
		if f.posts[i].ID == id {
			f.posts = slices.Delete(f.posts, i, i+1)
			return nil
		}
	}
	return notFoundErr("delete post")
}

func (f *fakeStore) ListVisaGuides(context.Context) ([]models.VisaGuide, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.guides), nil
}

func (f *fakeStore) GetVisaGuideBySlug(_ context.Context, slug string) (*models.VisaGuide, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.guides {
		if g.Slug == slug {
			return &g, nil
		}
	}
	return nil, notFoundErr("get visa guide")
}

func (f *fakeStore) CreateVisaGuide(_ context.Context, g models.VisaGuide) (*models.VisaGuide, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.guides {
		if existing.Slug == g.Slug {
			return nil, fmt.Errorf("create visa guide: %w", db.ErrSlugTaken)
		}
	}
	g.ID = uuid.New()
	f.guides = append(f.guides, g)
	return &g, nil
}

func (f *fakeStore) UpdateVisaGuide(_ context.Context, id uuid.UUID, g models.VisaGuide) (*models.VisaGuide, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.guides {
		if f.guides[i].ID == id {
			g.ID = id
			f.guides[i] = g
			return &g, nil
		}
	}
	return nil, notFoundErr("update visa guide")
}

func (f *fakeStore) DeleteVisaGuide(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.guides {
		if f.guides[i].ID == id {
			f.guides = slices.Delete(f.guides, i, i+1)
			return nil
		}
	}
	return notFoundErr("delete visa guide")
}

func (f *fakeStore) ListBanners(_ context.Context, activeOnly bool) ([]models.Banner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Banner
	for _, b := range f.banners {
		if activeOnly && !b.IsActive {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeStore) CreateBanner(_ context.Context, b models.Banner) (*models.Banner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.ID = uuid.New()
	f.banners = append(f.banners, b)
	return &b, nil
}

func (f *fakeStore) UpdateBanner(_ context.Context, id uuid.UUID, b models.Banner) (*models.Banner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.banners {
		if f.banners[i].ID == id {
			b.ID = id
			f.banners[i] = b
			return &b, nil
		}
	}
	return nil, notFoundErr("update banner")
}

func (f *fakeStore) DeleteBanner(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.banners {
		if f.banners[i].ID == id {
			f.banners = slices.Delete(f.banners, i, i+1)
			return nil
		}
	}
	return notFoundErr("delete banner")
}

func (f *fakeStore) ReorderBanners(_ context.Context, ids []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for pos, id := range ids {
		idx := slices.IndexFunc(f.banners, func(b models.Banner) bool { return b.ID == id })
		if idx < 0 {
			return notFoundErr("reorder banners")
		}
		f.banners[idx].DisplayOrder = pos
	}
	return nil
}

func (f *fakeStore) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	if f.blockProfiles {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, notFoundErr("get profile")
	}
	return &p, nil
}

func (f *fakeStore) RecentImportRuns(_ context.Context, limit int) ([]models.ImportRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.runs) > limit {
		return slices.Clone(f.runs[:limit]), nil
	}
	return slices.Clone(f.runs), nil
}

type fakeAuthenticator struct {
	signIn func(ctx context.Context, email, password string) (*auth.Tokens, error)
}

func (a fakeAuthenticator) SignIn(ctx context.Context, email, password string) (*auth.Tokens, error) {
	return a.signIn(ctx, email, password)
}

func (a fakeAuthenticator) OAuthURL(_ context.Context, provider, redirectTo string) (string, error) {
	if provider != "google" {
		return "", fmt.Errorf("%w %q", auth.ErrUnsupportedProvider, provider)
	}
	return "https://auth.example.test/authorize?provider=google&redirect_to=" + redirectTo, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fakeUploader struct {
	url string
	err error
}

func (u fakeUploader) Upload(context.Context, string, io.Reader) (string, error) {
	return u.url, u.err
}

type fakeImporter struct {
	sources []ingest.SourceConfig
	// release, when set, holds Import until it is closed.
	release chan struct{}
	result  *ingest.Result
	err     error
}

func (f *fakeImporter) Sources() []ingest.SourceConfig { return f.sources }

func (f *fakeImporter) Import(ctx context.Context, sourceID string) (*ingest.Result, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return f.result, f.err
	}
	res := *f.result
	res.SourceID = sourceID
	return &res, nil
}
