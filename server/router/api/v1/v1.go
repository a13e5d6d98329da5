// Package v1 serves the admin API: model health, whitelist, sessions and
// processing metrics.
package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/wabot/plugin/ai/metrics"
	"github.com/hrygo/wabot/plugin/ai/registry"
	"github.com/hrygo/wabot/plugin/ai/session"
	"github.com/hrygo/wabot/server/auth"
	apierrors "github.com/hrygo/wabot/server/internal/errors"
	"github.com/hrygo/wabot/server/internal/observability"
	"github.com/hrygo/wabot/store"
)

// Prefix is the route prefix of the admin API.
const Prefix = "/api/v1"

type APIV1Service struct {
	Secret   string
	Store    *store.Store
	Registry *registry.Registry
	Sessions session.SessionService
	// Metrics and Observability may be nil; the overview then reports zeros.
	Metrics       metrics.MetricsService
	Observability *observability.Metrics

	authenticator *auth.Authenticator
}

func NewAPIV1Service(secret string, st *store.Store, reg *registry.Registry, sessions session.SessionService, metricsSvc metrics.MetricsService, obs *observability.Metrics) *APIV1Service {
	return &APIV1Service{
		Secret:        secret,
		Store:         st,
		Registry:      reg,
		Sessions:      sessions,
		Metrics:       metricsSvc,
		Observability: obs,
		authenticator: auth.NewAuthenticator(secret),
	}
}

// RegisterRoutes registers every admin route behind bearer authentication.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	g := e.Group(Prefix, s.authMiddleware)

	g.GET("/models", s.ListModels)

	g.GET("/whitelist", s.ListWhitelist)
	g.POST("/whitelist", s.AddWhitelist)
	g.DELETE("/whitelist/:phone", s.RemoveWhitelist)

	g.GET("/sessions/:phone", s.GetSession)
	g.DELETE("/sessions/:phone", s.DeleteSession)

	g.GET("/system/metrics/overview", s.GetMetricsOverview)
}

func (s *APIV1Service) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims := s.authenticator.Authenticate(c.Request().Header.Get(echo.HeaderAuthorization))
		if claims == nil {
			return respondError(c, apierrors.Unauthorized("authentication required"))
		}
		req := c.Request()
		c.SetRequest(req.WithContext(auth.SetClaimsInContext(req.Context(), claims)))
		return next(c)
	}
}

// respondError writes err as a structured error body. Errors that carry no
// code are reported as internal failures without their cause.
func respondError(c echo.Context, err error) error {
	var aiErr *apierrors.AIError
	if !errors.As(err, &aiErr) {
		aiErr = apierrors.Internal("internal error", err)
	}
	if aiErr.HTTPStatus() == http.StatusInternalServerError {
		slog.Error("admin api request failed", "path", c.Path(), "error", aiErr.Error())
	}
	return c.JSON(aiErr.HTTPStatus(), aiErr.Body())
}
