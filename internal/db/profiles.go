package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/david/scholarhub/internal/models"
)

func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	var displayName *string
	err := s.db.QueryRow(ctx,
		"SELECT id, email, display_name, role, created_at FROM profiles WHERE id = $1", id,
	).Scan(&p.ID, &p.Email, &displayName, &p.Role, &p.CreatedAt)
	if err != nil {
		return nil, wrap("get profile", err)
	}
	p.DisplayName = deref(displayName)
	return &p, nil
}
