// Package intent classifies an inbound message into the module/submodule/intent
// taxonomy and extracts the requested actions.
package intent

import (
	"context"
	"log/slog"

	"github.com/hrygo/wabot/plugin/ai"
	"github.com/hrygo/wabot/plugin/ai/module"
	"github.com/hrygo/wabot/plugin/ai/selector"
	"github.com/hrygo/wabot/plugin/ai/session"
	"github.com/hrygo/wabot/plugin/ai/timeout"
)

const (
	// NoModel is reported as the chosen model when no model produced the result.
	NoModel = "None"

	emptyMessageReply = "How can I help you today?"
	fallbackReply     = "I'm sorry, I'm having trouble processing that right now."
)

// Result is the outcome of one classification.
type Result struct {
	Module      string
	Submodule   string
	Intent      string
	Reply       string
	ChosenModel string
	Actions     []module.Action
}

// ModelSelector runs invoke against the provider's models until one succeeds.
type ModelSelector interface {
	Select(ctx context.Context, provider string, invoke selector.InvokeFunc) (string, string, error)
}

// Classifier turns a message into a Result using the LLM behind a ModelSelector.
type Classifier struct {
	llm      ai.LLMService
	selector ModelSelector
}

func NewClassifier(llm ai.LLMService, sel ModelSelector) *Classifier {
	return &Classifier{
		llm:      llm,
		selector: sel,
	}
}

// Classify never fails: an empty message, or any model or parse failure,
// yields a default result that keeps the session's active module.
func (c *Classifier) Classify(ctx context.Context, sess *session.Session, text string) *Result {
	if text == "" {
		return defaultResult(sess, emptyMessageReply)
	}

	prompt := BuildPrompt(sess, text)
	messages := []ai.Message{
		ai.SystemPrompt(ai.SystemInstruction),
		ai.UserMessage(prompt),
	}

	invoke := func(ctx context.Context, model string) (string, error) {
		raw, err := c.llm.Chat(ctx, model, messages)
		if err != nil {
			return "", err
		}
		cleaned := CleanResponse(raw)
		if cleaned == "" {
			return "", selector.ErrEmptyResult
		}
		if _, err := ParseResponse(cleaned, sess.ActiveModule); err != nil {
			return "", &selector.InvalidOutputError{Err: err}
		}
		return cleaned, nil
	}

	provider := c.llm.Provider()
	reply, model, err := c.selector.Select(ctx, provider, invoke)
	if err != nil {
		slog.Error("intent classification failed",
			"provider", provider,
			"sender", sess.Sender,
			"error", err)
		return defaultResult(sess, fallbackReply)
	}

	slog.Info("intent classified",
		"provider", provider,
		"model", model,
		"response", timeout.Truncate(reply))

	result, err := ParseResponse(reply, sess.ActiveModule)
	if err != nil {
		// Unreachable in practice: invoke already validated the reply.
		slog.Error("failed to parse validated reply", "model", model, "error", err)
		return defaultResult(sess, fallbackReply)
	}
	result.ChosenModel = model
	return result
}

func defaultResult(sess *session.Session, reply string) *Result {
	return &Result{
		Module:      sess.ActiveModule,
		Submodule:   "Main",
		Intent:      "Other",
		Reply:       reply,
		ChosenModel: NoModel,
		Actions:     []module.Action{},
	}
}
