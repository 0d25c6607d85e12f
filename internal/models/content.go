package models

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	Content        string    `json:"content"`
	Excerpt        string    `json:"excerpt"`
	Tags           []string  `json:"tags"`
	IsPublished    bool      `json:"is_published"`
	AuthorName     string    `json:"author_name"`
	CoverImageURL  string    `json:"cover_image_url"`
	ReadingMinutes int       `json:"reading_minutes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type VisaGuide struct {
	ID             uuid.UUID `json:"id"`
	Country        string    `json:"country"`
	Slug           string    `json:"slug"`
	Overview       string    `json:"overview"`
	Requirements   []string  `json:"requirements"`
	ProcessSteps   []string  `json:"process_steps"`
	UsefulLinks    []string  `json:"useful_links"`
	Fees           string    `json:"fees"`
	ProcessingTime string    `json:"processing_time"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Banner struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	BackgroundColor string    `json:"background_color"`
	TextColor       string    `json:"text_color"`
	LinkURL         string    `json:"link_url"`
	LinkLabel       string    `json:"link_label"`
	ImageURL        string    `json:"image_url"`
	DisplayOrder    int       `json:"display_order"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Profile mirrors the auth user with the application role.
type Profile struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

func (p Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type ImportRun struct {
	RunID       uuid.UUID  `json:"run_id"`
	SourceID    string     `json:"source_id"`
	Status      string     `json:"status"`
	ItemsFound  int        `json:"items_found"`
	ItemsSaved  int        `json:"items_saved"`
	Errors      int        `json:"errors"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}
