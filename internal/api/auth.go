package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/david/scholarhub/internal/auth"
	"github.com/david/scholarhub/internal/db"
	"github.com/david/scholarhub/internal/models"
)

func (s *Server) handleLogin(c echo.Context) error {
	if s.auth == nil {
		return unavailable(c, "authentication")
	}
	var req auth.LoginRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	tokens, err := s.auth.SignIn(c.Request().Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCreds) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
	}
	if err != nil {
		s.logger.Error("sign in failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, tokens)
}

func (s *Server) handleOAuth(c echo.Context) error {
	if s.auth == nil {
		return unavailable(c, "authentication")
	}
	url, err := s.auth.OAuthURL(c.Request().Context(), c.Param("provider"), c.QueryParam("redirect_to"))
	if errors.Is(err, auth.ErrUnsupportedProvider) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}

// handleSession reports who the bearer is. Users without a profile row are
// plain users.
func (s *Server) handleSession(c echo.Context) error {
	sess := auth.SessionFrom(c)
	err := auth.ResolveRole(c.Request().Context(), s.store, sess, s.bootstrap)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrBootstrapTimeout):
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	case errors.Is(err, db.ErrNotFound):
		sess.Role = models.RoleUser
	default:
		return s.storeError(c, "profile", err)
	}
	return c.JSON(http.StatusOK, sess)
}
