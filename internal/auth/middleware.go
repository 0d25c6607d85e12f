package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/david/scholarhub/internal/db"
	"github.com/david/scholarhub/internal/models"
)

// BootstrapTimeout bounds the role lookup that completes a session.
const BootstrapTimeout = 4 * time.Second

var ErrBootstrapTimeout = errors.New("session bootstrap timed out")

const sessionKey = "session"

// Session is the per-request auth state. Role stays empty until RequireAdmin
// has resolved it.
type Session struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role,omitempty"`
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == models.RoleAdmin
}

// SessionFrom returns the session attached to c, or nil for anonymous requests.
func SessionFrom(c echo.Context) *Session {
	s, _ := c.Get(sessionKey).(*Session)
	return s
}

func WithSession(c echo.Context, s *Session) {
	c.Set(sessionKey, s)
}

// ProfileSource resolves the application role of an authenticated user.
type ProfileSource interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", true
	}
	return strings.TrimSpace(parts[1]), true
}

// Middleware attaches a Session when the request carries a valid bearer
// token. Requests without a token pass through anonymously; a malformed or
// expired token is rejected.
func Middleware(v *Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, present := bearerToken(c.Request())
			if !present {
				return next(c)
			}
			if token == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid Authorization header format"})
			}

			id, err := v.Verify(token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
			}

			WithSession(c, &Session{UserID: id.UserID, Email: id.Email})
			return next(c)
		}
	}
}

// RequireSession rejects anonymous requests.
func RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if SessionFrom(c) == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		}
		return next(c)
	}
}

// RequireAdmin resolves the session's role and lets only admins through.
func RequireAdmin(profiles ProfileSource, timeout time.Duration) echo.MiddlewareFunc {
	if timeout <= 0 {
		timeout = BootstrapTimeout
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := SessionFrom(c)
			if sess == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			}

			if err := ResolveRole(c.Request().Context(), profiles, sess, timeout); err != nil {
				switch {
				case errors.Is(err, ErrBootstrapTimeout):
					return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
				case errors.Is(err, db.ErrNotFound):
					return c.JSON(http.StatusForbidden, map[string]string{"error": ErrForbidden.Error()})
				default:
					return c.JSON(http.StatusInternalServerError, map[string]string{"error": db.BackendMessage(err)})
				}
			}
			if !sess.IsAdmin() {
				return c.JSON(http.StatusForbidden, map[string]string{"error": ErrForbidden.Error()})
			}
			return next(c)
		}
	}
}

// ResolveRole fills sess.Role from profiles. The lookup is abandoned with
// ErrBootstrapTimeout once timeout elapses.
func ResolveRole(ctx context.Context, profiles ProfileSource, sess *Session, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		profile *models.Profile
		err     error
	}
	done := make(chan result, 1)
	go func() {
		p, err := profiles.GetProfile(ctx, sess.UserID)
		done <- result{p, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if errors.Is(r.err, context.DeadlineExceeded) {
				return ErrBootstrapTimeout
			}
			return r.err
		}
		sess.Role = r.profile.Role
		if sess.Email == "" {
			sess.Email = r.profile.Email
		}
		return nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrBootstrapTimeout
		}
		return ctx.Err()
	}
}
