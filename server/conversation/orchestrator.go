// Package conversation drives one inbound WhatsApp message from receipt to reply.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hrygo/wabot/plugin/ai/intent"
	"github.com/hrygo/wabot/plugin/ai/metrics"
	"github.com/hrygo/wabot/plugin/ai/module"
	"github.com/hrygo/wabot/plugin/ai/session"
	"github.com/hrygo/wabot/plugin/ai/timeout"
	"github.com/hrygo/wabot/plugin/whatsapp"
	"github.com/hrygo/wabot/server/internal/observability"
)

// ReplyTemplate is the outward reply: module, intent, model, routed reply.
const ReplyTemplate = "Module: %s\nIntent: %s\nModel: %s\n\n%s"

// Classifier classifies a message in the context of a session.
type Classifier interface {
	Classify(ctx context.Context, sess *session.Session, text string) *intent.Result
}

// Dispatcher routes a classification to a module handler.
type Dispatcher interface {
	Dispatch(ctx context.Context, sess *session.Session, msg module.Inbound, submodule, intentName, aiReply string, actions []module.Action) (string, error)
}

// Whitelist answers whether a sender may talk to the bot.
type Whitelist interface {
	IsWhitelisted(ctx context.Context, phoneNumber string) (bool, error)
}

// Config configures an Orchestrator.
type Config struct {
	// TransportConfigured is false when no Kapso API key is set; messages are then dropped.
	TransportConfigured bool
	// TypingInterval is how often the typing indicator is refreshed (default: 15s).
	TypingInterval time.Duration
}

// Orchestrator processes messages. It holds no per-sender lock: two messages
// from the same sender may be processed concurrently, and the later session
// save wins.
type Orchestrator struct {
	whitelist  Whitelist
	sessions   session.SessionService
	classifier Classifier
	router     Dispatcher
	transport  whatsapp.Transport
	metrics    metrics.MetricsService
	config     Config
	logger     *slog.Logger
}

// New creates an Orchestrator. metricsSvc may be nil.
func New(whitelist Whitelist, sessions session.SessionService, classifier Classifier, router Dispatcher, transport whatsapp.Transport, metricsSvc metrics.MetricsService, cfg Config) *Orchestrator {
	if cfg.TypingInterval <= 0 {
		cfg.TypingInterval = timeout.TypingRefreshInterval
	}
	return &Orchestrator{
		whitelist:  whitelist,
		sessions:   sessions,
		classifier: classifier,
		router:     router,
		transport:  transport,
		metrics:    metricsSvc,
		config:     cfg,
		logger:     slog.Default(),
	}
}

// HandleMessage processes one message and reports its outcome. Drops are
// silent apart from logging; failures are logged and never returned.
func (o *Orchestrator) HandleMessage(ctx context.Context, msg whatsapp.Message, phoneNumberID string) string {
	if msg.IsOutbound() {
		slog.Debug("ignoring outbound echo", "message_id", msg.ID)
		return observability.OutcomeOutbound
	}

	rc := observability.NewRequestContext(o.logger, msg.From)
	ctx = observability.WithRequestContext(ctx, rc)

	allowed, err := o.whitelist.IsWhitelisted(ctx, msg.From)
	if err != nil {
		rc.Error("failed to check whitelist", err)
		return observability.OutcomeFailed
	}
	if !allowed {
		rc.Info("ignoring message from non-whitelisted sender")
		return observability.OutcomeNotWhitelisted
	}

	text := msg.Body()
	rc.Info("incoming message",
		slog.String("message_id", msg.ID),
		slog.String("text", timeout.Truncate(text)))

	if !o.config.TransportConfigured {
		rc.Warn("kapso api key not configured, dropping message")
		return observability.OutcomeNotConfigured
	}

	outcome, moduleName := o.process(ctx, rc, msg, text, phoneNumberID)
	if o.metrics != nil {
		success := outcome == observability.OutcomeProcessed || outcome == observability.OutcomeDeliveryFailed
		o.metrics.RecordMessage(ctx, strings.ToLower(moduleName), rc.Duration(), success)
	}
	rc.Info("message handled",
		slog.String("outcome", outcome),
		slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
	return outcome
}

func (o *Orchestrator) process(ctx context.Context, rc *observability.RequestContext, msg whatsapp.Message, text, phoneNumberID string) (string, string) {
	if msg.ID != "" {
		if err := o.transport.MarkRead(ctx, phoneNumberID, msg.ID, true); err != nil {
			rc.Warn("failed to mark message as read", slog.String("error", err.Error()))
		}
	}

	sess, err := o.sessions.Load(ctx, msg.From)
	if err != nil {
		rc.Error("failed to load session", err)
		return observability.OutcomeFailed, session.DefaultModule
	}
	rc.Module = sess.ActiveModule

	// Checkpoint the inbound message before the model is consulted.
	sess.AppendUser(text)
	if err := o.sessions.Save(ctx, sess); err != nil {
		rc.Error("failed to save session", err)
		return observability.OutcomeFailed, sess.ActiveModule
	}
	rc.Debug("session loaded", slog.Int("history_length", len(sess.History)))

	stopTyping := o.keepTyping(ctx, phoneNumberID, msg.ID)
	defer stopTyping()

	result := o.classifier.Classify(ctx, sess, text)
	sess.ActiveModule = result.Module
	sess.ActiveSubmodule = result.Submodule
	rc.Module = result.Module

	inbound := module.Inbound{From: msg.From, ID: msg.ID, Text: text}
	body, err := o.router.Dispatch(ctx, sess, inbound, result.Submodule, result.Intent, result.Reply, result.Actions)
	if err != nil {
		rc.Error("failed to dispatch message", err)
		return observability.OutcomeFailed, sess.ActiveModule
	}

	reply := fmt.Sprintf(ReplyTemplate, sess.ActiveModule, result.Intent, result.ChosenModel, body)
	sess.AppendAssistant(reply)
	if err := o.sessions.Save(ctx, sess); err != nil {
		rc.Error("failed to save session", err)
		return observability.OutcomeFailed, sess.ActiveModule
	}

	// Stop the indicator before the reply lands.
	stopTyping()
	if err := o.transport.SendText(ctx, phoneNumberID, msg.From, reply); err != nil {
		rc.Error("failed to send reply", err)
		return observability.OutcomeDeliveryFailed, sess.ActiveModule
	}
	return observability.OutcomeProcessed, sess.ActiveModule
}

// keepTyping refreshes the typing indicator until the returned stop func is
// called. stop waits for the refresher to exit and is safe to call twice.
func (o *Orchestrator) keepTyping(ctx context.Context, phoneNumberID, messageID string) func() {
	if messageID == "" {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(o.config.TypingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := o.transport.MarkRead(ctx, phoneNumberID, messageID, true); err != nil {
					slog.Debug("failed to refresh typing indicator", "error", err)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}
