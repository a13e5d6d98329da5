// Package webhook serves the WhatsApp webhook: Meta's verification handshake
// and inbound deliveries from Kapso.
package webhook

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/wabot/plugin/whatsapp"
	apierrors "github.com/hrygo/wabot/server/internal/errors"
	"github.com/hrygo/wabot/server/internal/observability"
	"github.com/hrygo/wabot/server/middleware"
)

// Path is the route of both webhook endpoints.
const Path = "/webhook"

// maxBodyBytes caps the webhook body read into memory.
const maxBodyBytes = 1 << 20

// Submitter accepts deliveries for background processing.
type Submitter interface {
	Submit(deliveries []whatsapp.Delivery) (string, error)
}

// Config configures the webhook.
type Config struct {
	// VerifyToken is compared with hub.verify_token during verification.
	VerifyToken string
	// AppSecret enables X-Hub-Signature-256 checks when set.
	AppSecret string
	// PhoneNumberID is used for deliveries whose payload names no business number.
	PhoneNumberID string
}

// Service handles webhook requests.
type Service struct {
	config    Config
	submitter Submitter
	limiter   *middleware.RateLimiter
	metrics   *observability.Metrics
}

// NewService creates a webhook Service. limiter and metrics may be nil.
func NewService(cfg Config, submitter Submitter, limiter *middleware.RateLimiter, metrics *observability.Metrics) *Service {
	return &Service{
		config:    cfg,
		submitter: submitter,
		limiter:   limiter,
		metrics:   metrics,
	}
}

// RegisterRoutes registers the webhook routes.
func (s *Service) RegisterRoutes(e *echo.Echo) {
	e.GET(Path, s.Verify)
	e.POST(Path, s.Receive)
}

// Verify answers Meta's subscription handshake.
// GET /webhook?hub.mode=subscribe&hub.verify_token=...&hub.challenge=...
func (s *Service) Verify(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")

	if mode == "subscribe" && token == s.config.VerifyToken {
		slog.Info("webhook verified")
		return c.String(http.StatusOK, challenge)
	}
	slog.Warn("webhook verification failed", "mode", mode)
	return c.String(http.StatusForbidden, "Forbidden")
}

// Receive accepts a delivery and hands its messages to the runner. The
// response never waits on message processing.
// POST /webhook
func (s *Service) Receive(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err != nil {
		s.recordWebhook(observability.WebhookInvalidPayload)
		return respondError(c, apierrors.InvalidArgument("failed to read request body"))
	}

	if s.config.AppSecret != "" && !whatsapp.VerifySignature(s.config.AppSecret, body, c.Request().Header.Get(whatsapp.SignatureHeader)) {
		slog.Warn("webhook signature mismatch", "remote_ip", c.RealIP())
		s.recordWebhook(observability.WebhookInvalidSignature)
		aiErr := apierrors.InvalidSignature()
		return c.String(aiErr.HTTPStatus(), aiErr.Message)
	}

	deliveries, err := whatsapp.Normalize(body)
	if err != nil {
		slog.Warn("invalid webhook payload", "error", err)
		s.recordWebhook(observability.WebhookInvalidPayload)
		return respondError(c, apierrors.InvalidArgument("invalid JSON payload"))
	}
	s.recordWebhook(observability.WebhookAccepted)

	accepted := s.admit(deliveries)
	if len(accepted) > 0 {
		jobID, err := s.submitter.Submit(accepted)
		if err != nil {
			slog.Error("failed to schedule webhook messages", "count", len(accepted), "error", err)
			return respondError(c, apierrors.ServiceUnavailable("message processing is unavailable"))
		}
		slog.Debug("webhook messages scheduled", "job_id", jobID, "count", len(accepted))
	}

	return c.JSON(http.StatusAccepted, map[string]string{"status": "accepted"})
}

// admit fills in missing business numbers and drops senders over their rate.
func (s *Service) admit(deliveries []whatsapp.Delivery) []whatsapp.Delivery {
	accepted := make([]whatsapp.Delivery, 0, len(deliveries))
	for _, d := range deliveries {
		if d.PhoneNumberID == "" {
			d.PhoneNumberID = s.config.PhoneNumberID
		}
		// Echoes are cheap to drop downstream and must not consume the sender's budget.
		if s.limiter != nil && !d.Message.IsOutbound() && !s.limiter.Allow(d.Message.From) {
			slog.Warn("sender rate limited, dropping message", "sender", d.Message.From, "message_id", d.Message.ID)
			if s.metrics != nil {
				s.metrics.RecordMessage(observability.OutcomeRateLimited)
			}
			continue
		}
		accepted = append(accepted, d)
	}
	return accepted
}

func (s *Service) recordWebhook(result string) {
	if s.metrics != nil {
		s.metrics.RecordWebhook(result)
	}
}

func respondError(c echo.Context, err error) error {
	var aiErr *apierrors.AIError
	if !errors.As(err, &aiErr) {
		aiErr = apierrors.Internal("internal error", err)
	}
	return c.JSON(aiErr.HTTPStatus(), aiErr.Body())
}
