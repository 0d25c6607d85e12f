package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/david/scholarhub/internal/models"
)

type Store struct {
	db DBTX
}

func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

// DefaultListLimit bounds list fetches when the caller passes no limit.
const DefaultListLimit = 500

type OpportunityFilter struct {
	Type         models.OpportunityType
	ActiveOnly   bool
	FeaturedOnly bool
	Limit        int
}

const opportunityCols = `id, type, title, organization, country, location, deadline,
	is_active, is_featured, details, description, application_url, image_url,
	created_at, updated_at`

func scanOpportunity(scan func(dest ...any) error) (models.Opportunity, error) {
	var o models.Opportunity
	var country, location, description, applicationURL, imageURL *string
	var detailsRaw []byte

	err := scan(
		&o.ID, &o.Type, &o.Title, &o.Organization, &country, &location, &o.Deadline,
		&o.IsActive, &o.IsFeatured, &detailsRaw, &description, &applicationURL, &imageURL,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return o, err
	}

	o.Country = deref(country)
	o.Location = deref(location)
	o.Description = deref(description)
	o.ApplicationURL = deref(applicationURL)
	o.ImageURL = deref(imageURL)

	details, err := models.UnmarshalDetails(o.Type, detailsRaw)
	if err != nil {
		return o, err
	}
	o.Details = details
	return o, nil
}

func (s *Store) ListOpportunities(ctx context.Context, f OpportunityFilter) ([]models.Opportunity, error) {
	where := "WHERE 1=1"
	var args []any
	argIdx := 1

	if f.Type != "" {
		where += fmt.Sprintf(" AND type = $%d", argIdx)
		args = append(args, string(f.Type))
		argIdx++
	}
	if f.ActiveOnly {
		where += " AND is_active = true"
	}
	if f.FeaturedOnly {
		where += " AND is_featured = true"
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query := fmt.Sprintf("SELECT %s FROM opportunities %s ORDER BY created_at DESC LIMIT $%d", opportunityCols, where, argIdx)
	args = append(args, limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap("list opportunities", err)
	}
	defer rows.Close()

	opps := []models.Opportunity{}
	for rows.Next() {
		o, err := scanOpportunity(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		opps = append(opps, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return opps, nil
}

func (s *Store) GetOpportunity(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	row := s.db.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM opportunities WHERE id = $1", opportunityCols), id)
	o, err := scanOpportunity(row.Scan)
	if err != nil {
		return nil, wrap("get opportunity", err)
	}
	return &o, nil
}

func (s *Store) CreateOpportunity(ctx context.Context, o models.Opportunity) (*models.Opportunity, error) {
	details, err := models.MarshalDetails(o.Type, o.Details)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO opportunities (type, title, organization, country, location, deadline,
			is_active, is_featured, details, description, application_url, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING %s`, opportunityCols),
		string(o.Type), o.Title, o.Organization, nullable(o.Country), nullable(o.Location), o.Deadline,
		o.IsActive, o.IsFeatured, details, nullable(o.Description), nullable(o.ApplicationURL), nullable(o.ImageURL),
	)
	created, err := scanOpportunity(row.Scan)
	if err != nil {
		return nil, wrap("create opportunity", err)
	}
	return &created, nil
}

// UpdateOpportunity replaces every editable field. Concurrent edits are last
// write wins.
func (s *Store) UpdateOpportunity(ctx context.Context, id uuid.UUID, o models.Opportunity) (*models.Opportunity, error) {
	details, err := models.MarshalDetails(o.Type, o.Details)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRow(ctx, fmt.Sprintf(`
		UPDATE opportunities SET
			type = $2, title = $3, organization = $4, country = $5, location = $6, deadline = $7,
			is_active = $8, is_featured = $9, details = $10, description = $11,
			application_url = $12, image_url = $13, updated_at = NOW()
		WHERE id = $1
		RETURNING %s`, opportunityCols),
		id, string(o.Type), o.Title, o.Organization, nullable(o.Country), nullable(o.Location), o.Deadline,
		o.IsActive, o.IsFeatured, details, nullable(o.Description), nullable(o.ApplicationURL), nullable(o.ImageURL),
	)
	updated, err := scanOpportunity(row.Scan)
	if err != nil {
		return nil, wrap("update opportunity", err)
	}
	return &updated, nil
}

// Flags is a partial update of the admin toggles; nil leaves a flag as is.
type Flags struct {
	IsActive   *bool `json:"is_active"`
	IsFeatured *bool `json:"is_featured"`
}

func (s *Store) SetOpportunityFlags(ctx context.Context, id uuid.UUID, f Flags) (*models.Opportunity, error) {
	row := s.db.QueryRow(ctx, fmt.Sprintf(`
		UPDATE opportunities SET
			is_active = COALESCE($2, is_active),
			is_featured = COALESCE($3, is_featured),
			updated_at = NOW()
		WHERE id = $1
		RETURNING %s`, opportunityCols),
		id, f.IsActive, f.IsFeatured,
	)
	o, err := scanOpportunity(row.Scan)
	if err != nil {
		return nil, wrap("set opportunity flags", err)
	}
	return &o, nil
}

func (s *Store) DeleteOpportunity(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, "opportunities", "delete opportunity", id)
}

// OpportunityURLExists reports whether an opportunity already links to url.
func (s *Store) OpportunityURLExists(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM opportunities WHERE application_url = $1)", url).Scan(&exists)
	if err != nil {
		return false, wrap("check opportunity url", err)
	}
	return exists, nil
}

type TypeStats struct {
	Type     models.OpportunityType `json:"type"`
	Total    int                    `json:"total"`
	Active   int                    `json:"active"`
	Featured int                    `json:"featured"`
}

// OpportunityStats returns counts for every type, including types with no rows.
func (s *Store) OpportunityStats(ctx context.Context) ([]TypeStats, error) {
	rows, err := s.db.Query(ctx, `
		SELECT type,
			COUNT(*),
			COUNT(*) FILTER (WHERE is_active),
			COUNT(*) FILTER (WHERE is_featured)
		FROM opportunities
		GROUP BY type`)
	if err != nil {
		return nil, wrap("opportunity stats", err)
	}
	defer rows.Close()

	byType := map[models.OpportunityType]TypeStats{}
	for rows.Next() {
		var ts TypeStats
		if err := rows.Scan(&ts.Type, &ts.Total, &ts.Active, &ts.Featured); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		byType[ts.Type] = ts
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	stats := make([]TypeStats, 0, len(models.OpportunityTypes))
	for _, t := range models.OpportunityTypes {
		ts := byType[t]
		ts.Type = t
		stats = append(stats, ts)
	}
	return stats, nil
}

func (s *Store) deleteByID(ctx context.Context, table, op string, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return wrap(op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

var countedTables = []string{"opportunities", "posts", "visa_guides", "banners", "profiles", "import_runs"}

// TableCounts returns the row count of every application table.
func (s *Store) TableCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(countedTables))
	for _, table := range countedTables {
		var n int
		if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, wrap("count "+table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
