// Package module routes a classified message to the handler of the sender's
// active module.
package module

import (
	"context"

	"github.com/hrygo/wabot/plugin/ai/session"
)

// Module is one of the fixed top-level branches of the conversation taxonomy.
type Module string

const (
	ModuleBase Module = "Base"
	ModuleMeal Module = "Meal"
)

// Modules lists every known module, in taxonomy order.
var Modules = []Module{ModuleBase, ModuleMeal}

// Parse returns the module with the given name, and false for unknown names.
func Parse(name string) (Module, bool) {
	for _, m := range Modules {
		if string(m) == name {
			return m, true
		}
	}
	return ModuleBase, false
}

// Coerce maps unknown module names to ModuleBase.
func Coerce(name string) Module {
	m, _ := Parse(name)
	return m
}

// Action is a side effect requested by the classifier.
type Action struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// Inbound is the user message being answered.
type Inbound struct {
	From string
	ID   string
	Text string
}

// Request carries everything a handler may need for one invocation.
type Request struct {
	Session   *session.Session
	Message   Inbound
	Submodule string
	Intent    string
	AIReply   string
}

// Handler produces the reply body for one module. action is nil when the
// classifier requested no side effect.
type Handler interface {
	Handle(ctx context.Context, req *Request, action *Action) (string, error)
}
