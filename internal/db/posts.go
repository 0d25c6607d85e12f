package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/david/scholarhub/internal/models"
)

const postCols = `id, title, slug, content, excerpt, tags, is_published, author_name,
	cover_image_url, reading_minutes, created_at, updated_at`

func scanPost(scan func(dest ...any) error) (models.Post, error) {
	var p models.Post
	var cover *string
	err := scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.Tags, &p.IsPublished, &p.AuthorName,
		&cover, &p.ReadingMinutes, &p.CreatedAt, &p.UpdatedAt,
	)
	p.CoverImageURL = deref(cover)
	p.Tags = nonNil(p.Tags)
	return p, err
}

func (s *Store) ListPosts(ctx context.Context, publishedOnly bool, limit int) ([]models.Post, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	where := ""
	if publishedOnly {
		where = "WHERE is_published = true"
	}
	rows, err := s.db.Query(ctx, fmt.Sprintf("SELECT %s FROM posts %s ORDER BY created_at DESC LIMIT $1", postCols, where), limit)
	if err != nil {
		return nil, wrap("list posts", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return posts, nil
}

func (s *Store) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM posts WHERE id = $1", postCols), id).Scan)
	if err != nil {
		return nil, wrap("get post", err)
	}
	return &p, nil
}

func (s *Store) GetPostBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.Post, error) {
	query := fmt.Sprintf("SELECT %s FROM posts WHERE slug = $1", postCols)
	if publishedOnly {
		query += " AND is_published = true"
	}
	p, err := scanPost(s.db.QueryRow(ctx, query, slug).Scan)
	if err != nil {
		return nil, wrap("get post", err)
	}
	return &p, nil
}

// CreatePost inserts p under p.Slug. A slug collision yields ErrSlugTaken.
func (s *Store) CreatePost(ctx context.Context, p models.Post) (*models.Post, error) {
	row := s.db.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO posts (title, slug, content, excerpt, tags, is_published, author_name, cover_image_url, reading_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING %s`, postCols),
		p.Title, p.Slug, p.Content, p.Excerpt, nonNil(p.Tags), p.IsPublished, p.AuthorName, nullable(p.CoverImageURL), p.ReadingMinutes,
	)
	created, err := scanPost(row.Scan)
	if err != nil {
		return nil, wrap("create post", err)
	}
	return &created, nil
}

// UpdatePost keeps the existing slug so published links stay valid.
func (s *Store) UpdatePost(ctx context.Context, id uuid.UUID, p models.Post) (*models.Post, error) {
	row := s.db.QueryRow(ctx, fmt.Sprintf(`
		UPDATE posts SET
			title = $2, content = $3, excerpt = $4, tags = $5, is_published = $6,
			author_name = $7, cover_image_url = $8, reading_minutes = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING %s`, postCols),
		id, p.Title, p.Content, p.Excerpt, nonNil(p.Tags), p.IsPublished, p.AuthorName, nullable(p.CoverImageURL), p.ReadingMinutes,
	)
	updated, err := scanPost(row.Scan)
	if err != nil {
		return nil, wrap("update post", err)
	}
	return &updated, nil
}

func (s *Store) DeletePost(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, "posts", "delete post", id)
}
