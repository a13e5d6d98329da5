package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/wabot/plugin/ai"
	apierrors "github.com/hrygo/wabot/server/internal/errors"
)

// ModelResponse is the health record of one model.
type ModelResponse struct {
	Provider       string     `json:"provider"`
	Name           string     `json:"name"`
	Available      bool       `json:"available"`
	SuspendedUntil *time.Time `json:"suspended_until,omitempty"`
	ErrorCount     int32      `json:"error_count"`
	LastError      string     `json:"last_error,omitempty"`
}

// ListModels lists the model registry.
// GET /api/v1/models?provider=gemini|openrouter
func (s *APIV1Service) ListModels(c echo.Context) error {
	provider := c.QueryParam("provider")
	if provider != "" && provider != ai.ProviderGemini && provider != ai.ProviderOpenRouter {
		return respondError(c, apierrors.InvalidArgument("unknown provider: "+provider))
	}

	models, err := s.Registry.List(c.Request().Context(), provider)
	if err != nil {
		return respondError(c, err)
	}

	now := time.Now().Unix()
	list := make([]ModelResponse, 0, len(models))
	for _, m := range models {
		resp := ModelResponse{
			Provider:   m.Provider,
			Name:       m.Name,
			Available:  m.IsAvailable(now),
			ErrorCount: m.ErrorCount,
		}
		if m.SuspendedUntil != nil {
			until := time.Unix(*m.SuspendedUntil, 0).UTC()
			resp.SuspendedUntil = &until
		}
		if m.LastError != nil {
			resp.LastError = *m.LastError
		}
		list = append(list, resp)
	}
	return c.JSON(http.StatusOK, map[string]any{"models": list})
}
