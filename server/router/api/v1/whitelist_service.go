package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apierrors "github.com/hrygo/wabot/server/internal/errors"
)

type WhitelistRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type WhitelistResponse struct {
	PhoneNumbers []string `json:"phone_numbers"`
}

// ListWhitelist returns every whitelisted number.
// GET /api/v1/whitelist
func (s *APIV1Service) ListWhitelist(c echo.Context) error {
	numbers, err := s.Store.ListWhitelist(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, WhitelistResponse{PhoneNumbers: numbers})
}

// AddWhitelist adds a number. Adding a present number succeeds.
// POST /api/v1/whitelist
func (s *APIV1Service) AddWhitelist(c echo.Context) error {
	var req WhitelistRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apierrors.InvalidArgument("invalid request body"))
	}
	phone := normalizePhone(req.PhoneNumber)
	if phone == "" {
		return respondError(c, apierrors.InvalidArgument("phone_number is required"))
	}

	if err := s.Store.AddToWhitelist(c.Request().Context(), phone); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, WhitelistRequest{PhoneNumber: phone})
}

// RemoveWhitelist removes a number. Removing an absent number succeeds.
// DELETE /api/v1/whitelist/:phone
func (s *APIV1Service) RemoveWhitelist(c echo.Context) error {
	phone := normalizePhone(c.Param("phone"))
	if phone == "" {
		return respondError(c, apierrors.InvalidArgument("phone number is required"))
	}
	if err := s.Store.RemoveFromWhitelist(c.Request().Context(), phone); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// normalizePhone strips whitespace and a leading "+"; WhatsApp senders
// arrive without one.
func normalizePhone(phone string) string {
	return strings.TrimPrefix(strings.TrimSpace(phone), "+")
}
