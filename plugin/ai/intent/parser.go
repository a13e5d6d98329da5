package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hrygo/wabot/plugin/ai/module"
)

const defaultReply = "I'm here to help!"

var errMissingFields = errors.New("reply has none of module, intent or reply")

// payload is the JSON contract requested from the model. Pointer fields
// distinguish absent keys from empty values.
type payload struct {
	Module    *string           `json:"module"`
	Submodule *string           `json:"submodule"`
	Intent    *string           `json:"intent"`
	Reply     *string           `json:"reply"`
	Actions   []json.RawMessage `json:"actions"`
}

// CleanResponse strips markdown code fences around a JSON reply.
func CleanResponse(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// ParseResponse validates a model reply and fills defaults for missing
// fields. activeModule is the default module; unknown modules become Base.
func ParseResponse(raw, activeModule string) (*Result, error) {
	var p payload
	if err := json.Unmarshal([]byte(CleanResponse(raw)), &p); err != nil {
		return nil, fmt.Errorf("failed to decode reply: %w", err)
	}
	if p.Module == nil && p.Intent == nil && p.Reply == nil {
		return nil, errMissingFields
	}

	result := &Result{
		Module:    activeModule,
		Submodule: "Main",
		Intent:    "Other",
		Reply:     defaultReply,
		Actions:   []module.Action{},
	}
	if p.Module != nil {
		result.Module = *p.Module
	}
	if p.Submodule != nil {
		result.Submodule = *p.Submodule
	}
	if p.Intent != nil {
		result.Intent = *p.Intent
	}
	if p.Reply != nil {
		result.Reply = *p.Reply
	}
	result.Module = string(module.Coerce(result.Module))

	for _, raw := range p.Actions {
		// Skip malformed entries instead of rejecting the whole reply.
		var action struct {
			Type  string          `json:"type"`
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(raw, &action); err != nil || action.Type == "" {
			continue
		}
		result.Actions = append(result.Actions, module.Action{
			Type:  action.Type,
			Value: actionValue(action.Value),
		})
	}
	return result, nil
}

// actionValue accepts numbers as well as strings; models often emit phone
// numbers unquoted.
func actionValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
