package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/david/scholarhub/internal/models"
)

const visaGuideCols = `id, country, slug, overview, requirements, process_steps, useful_links,
	fees, processing_time, created_at, updated_at`

func scanVisaGuide(scan func(dest ...any) error) (models.VisaGuide, error) {
	var g models.VisaGuide
	var fees, processingTime *string
	err := scan(
		&g.ID, &g.Country, &g.Slug, &g.Overview, &g.Requirements, &g.ProcessSteps, &g.UsefulLinks,
		&fees, &processingTime, &g.CreatedAt, &g.UpdatedAt,
	)
	g.Fees = deref(fees)
	g.ProcessingTime = deref(processingTime)
	g.Requirements = nonNil(g.Requirements)
	g.ProcessSteps = nonNil(g.ProcessSteps)
	g.UsefulLinks = nonNil(g.UsefulLinks)
	return g, err
}

func (s *Store) ListVisaGuides(ctx context.Context) ([]models.VisaGuide, error) {
	rows, err := s.db.Query(ctx, fmt.Sprintf("SELECT %s FROM visa_guides ORDER BY country ASC", visaGuideCols))
	if err != nil {
		return nil, wrap("list visa guides", err)
	}
	defer rows.Close()

	guides := []models.VisaGuide{}
	for rows.Next() {
		g, err := scanVisaGuide(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		guides = append(guides, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return guides, nil
}

func (s *Store) GetVisaGuideBySlug(ctx context.Context, slug string) (*models.VisaGuide, error) {
	g, err := scanVisaGuide(s.db.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM visa_guides WHERE slug = $1", visaGuideCols), slug).Scan)
	if err != nil {
		return nil, wrap("get visa guide", err)
	}
	return &g, nil
}

func (s *Store) CreateVisaGuide(ctx context.Context, g models.VisaGuide) (*models.VisaGuide, error) {
	row := s.db.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO visa_guides (country, slug, overview, requirements, process_steps, useful_links, fees, processing_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s`, visaGuideCols),
		g.Country, g.Slug, g.Overview, nonNil(g.Requirements), nonNil(g.ProcessSteps), nonNil(g.UsefulLinks),
		nullable(g.Fees), nullable(g.ProcessingTime),
	)
	created, err := scanVisaGuide(row.Scan)
	if err != nil {
		return nil, wrap("create visa guide", err)
	}
	return &created, nil
}

func (s *Store) UpdateVisaGuide(ctx context.Context, id uuid.UUID, g models.VisaGuide) (*models.VisaGuide, error) {
	row := s.db.QueryRow(ctx, fmt.Sprintf(`
		UPDATE visa_guides SET
			country = $2, slug = $3, overview = $4, requirements = $5, process_steps = $6,
			useful_links = $7, fees = $8, processing_time = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING %s`, visaGuideCols),
		id, g.Country, g.Slug, g.Overview, nonNil(g.Requirements), nonNil(g.ProcessSteps), nonNil(g.UsefulLinks),
		nullable(g.Fees), nullable(g.ProcessingTime),
	)
	updated, err := scanVisaGuide(row.Scan)
	if err != nil {
		return nil, wrap("update visa guide", err)
	}
	return &updated, nil
}

func (s *Store) DeleteVisaGuide(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, "visa_guides", "delete visa guide", id)
}
