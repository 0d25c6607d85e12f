package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/david/scholarhub/internal/mail"
)

func (s *Server) handleContact(c echo.Context) error {
	if s.mailer == nil {
		return unavailable(c, "email")
	}
	var msg mail.ContactMessage
	if ok, err := bindValid(c, &msg); !ok {
		return err
	}

	err := s.mailer.Send(c.Request().Context(), msg.Render(s.contactTo))
	if errors.Is(err, mail.ErrNotConfigured) {
		return unavailable(c, "email")
	}
	if err != nil {
		s.logger.Error("contact email failed", "from", msg.Email, "error", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Failed to send message"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Message sent"})
}
