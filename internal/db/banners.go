package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/david/scholarhub/internal/models"
)

const bannerCols = `id, title, description, background_color, text_color, link_url, link_label,
	image_url, display_order, is_active, created_at`

func scanBanner(scan func(dest ...any) error) (models.Banner, error) {
	var b models.Banner
	var description, linkURL, linkLabel, imageURL *string
	err := scan(
		&b.ID, &b.Title, &description, &b.BackgroundColor, &b.TextColor, &linkURL, &linkLabel,
		&imageURL, &b.DisplayOrder, &b.IsActive, &b.CreatedAt,
	)
	b.Description = deref(description)
	b.LinkURL = deref(linkURL)
	b.LinkLabel = deref(linkLabel)
	b.ImageURL = deref(imageURL)
	return b, err
}

func (s *Store) ListBanners(ctx context.Context, activeOnly bool) ([]models.Banner, error) {
	where := ""
	if activeOnly {
		where = "WHERE is_active = true"
	}
	rows, err := s.db.Query(ctx, fmt.Sprintf("SELECT %s FROM banners %s ORDER BY display_order ASC, created_at ASC", bannerCols, where))
	if err != nil {
		return nil, wrap("list banners", err)
	}
	defer rows.Close()

	banners := []models.Banner{}
	for rows.Next() {
		b, err := scanBanner(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		banners = append(banners, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return banners, nil
}

func (s *Store) CreateBanner(ctx context.Context, b models.Banner) (*models.Banner, error) {
	row := s.db.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO banners (title, description, background_color, text_color, link_url, link_label, image_url, display_order, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING %s`, bannerCols),
		b.Title, nullable(b.Description), b.BackgroundColor, b.TextColor, nullable(b.LinkURL), nullable(b.LinkLabel),
		nullable(b.ImageURL), b.DisplayOrder, b.IsActive,
	)
	created, err := scanBanner(row.Scan)
	if err != nil {
		return nil, wrap("create banner", err)
	}
	return &created, nil
}

func (s *Store) UpdateBanner(ctx context.Context, id uuid.UUID, b models.Banner) (*models.Banner, error) {
	row := s.db.QueryRow(ctx, fmt.Sprintf(`
		UPDATE banners SET
			title = $2, description = $3, background_color = $4, text_color = $5, link_url = $6,
			link_label = $7, image_url = $8, display_order = $9, is_active = $10
		WHERE id = $1
		RETURNING %s`, bannerCols),
		id, b.Title, nullable(b.Description), b.BackgroundColor, b.TextColor, nullable(b.LinkURL),
		nullable(b.LinkLabel), nullable(b.ImageURL), b.DisplayOrder, b.IsActive,
	)
	updated, err := scanBanner(row.Scan)
	if err != nil {
		return nil, wrap("update banner", err)
	}
	return &updated, nil
}

func (s *Store) DeleteBanner(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, "banners", "delete banner", id)
}

// ReorderBanners assigns display_order by position in ids. All or nothing.
func (s *Store) ReorderBanners(ctx context.Context, ids []uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return wrap("reorder banners", err)
	}

	for i, id := range ids {
		tag, err := tx.Exec(ctx, "UPDATE banners SET display_order = $2 WHERE id = $1", id, i)
		if err != nil {
			_ = tx.Rollback(ctx)
			return wrap("reorder banners", err)
		}
		if tag.RowsAffected() == 0 {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("reorder banners: banner %s: %w", id, ErrNotFound)
		}
	}

	return wrap("reorder banners", tx.Commit(ctx))
}
