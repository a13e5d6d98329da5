package module

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const (
	SubmoduleMain     = "Main"
	SubmoduleSettings = "Settings"

	IntentReadWhitelist = "Read whitelist"
)

// WhitelistStore is the whitelist capability used by the Settings submodule.
type WhitelistStore interface {
	AddToWhitelist(ctx context.Context, phoneNumber string) error
	RemoveFromWhitelist(ctx context.Context, phoneNumber string) error
	ListWhitelist(ctx context.Context) ([]string, error)
}

// BaseHandler serves the Base module. Only the Settings submodule has side
// effects; every other submodule passes the AI reply through.
type BaseHandler struct {
	whitelist WhitelistStore
}

func NewBaseHandler(whitelist WhitelistStore) *BaseHandler {
	return &BaseHandler{whitelist: whitelist}
}

func (h *BaseHandler) Handle(ctx context.Context, req *Request, action *Action) (string, error) {
	if req.Submodule != SubmoduleSettings {
		return req.AIReply, nil
	}

	if action != nil {
		if err := h.apply(ctx, action); err != nil {
			return "", err
		}
	}

	if !isReadIntent(req.Intent) {
		return req.AIReply, nil
	}

	numbers, err := h.whitelist.ListWhitelist(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list whitelist: %w", err)
	}
	return req.AIReply + formatWhitelist(numbers), nil
}

func (h *BaseHandler) apply(ctx context.Context, action *Action) error {
	if action.Value == "" {
		return nil
	}

	switch strings.ToLower(action.Type) {
	case "add_whitelist", "create_whitelist":
		if err := h.whitelist.AddToWhitelist(ctx, action.Value); err != nil {
			return fmt.Errorf("failed to add %s to whitelist: %w", action.Value, err)
		}
		slog.Info("whitelist entry added", "phone_number", action.Value)
	case "remove_whitelist", "delete_whitelist":
		if err := h.whitelist.RemoveFromWhitelist(ctx, action.Value); err != nil {
			return fmt.Errorf("failed to remove %s from whitelist: %w", action.Value, err)
		}
		slog.Info("whitelist entry removed", "phone_number", action.Value)
	default:
		slog.Debug("ignoring unsupported action", "type", action.Type)
	}
	return nil
}

func isReadIntent(intent string) bool {
	return intent == IntentReadWhitelist || strings.Contains(strings.ToLower(intent), "read")
}

func formatWhitelist(numbers []string) string {
	if len(numbers) == 0 {
		return "\n\n*The whitelist is currently empty.*"
	}
	var sb strings.Builder
	sb.WriteString("\n\n*Current Whitelist:*")
	for _, n := range numbers {
		sb.WriteString("\n- ")
		sb.WriteString(n)
	}
	return sb.String()
}
