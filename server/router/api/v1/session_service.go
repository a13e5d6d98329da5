package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apierrors "github.com/hrygo/wabot/server/internal/errors"
)

// GetSession returns the persisted conversation state of a sender.
// GET /api/v1/sessions/:phone
func (s *APIV1Service) GetSession(c echo.Context) error {
	phone := normalizePhone(c.Param("phone"))
	sess, err := s.Sessions.Load(c.Request().Context(), phone)
	if err != nil {
		return respondError(c, err)
	}
	// Load falls back to a fresh default session, which was never saved.
	if sess.CreatedAt == 0 {
		return respondError(c, apierrors.NotFound("no session for "+phone))
	}
	return c.JSON(http.StatusOK, sess)
}

// DeleteSession resets a sender to the default session.
// DELETE /api/v1/sessions/:phone
func (s *APIV1Service) DeleteSession(c echo.Context) error {
	phone := normalizePhone(c.Param("phone"))
	if err := s.Sessions.Delete(c.Request().Context(), phone); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
