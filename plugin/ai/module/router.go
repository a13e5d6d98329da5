package module

import (
	"context"

	"github.com/hrygo/wabot/plugin/ai/session"
)

// Router dispatches a classification to the handler of the session's active module.
type Router struct {
	base Handler
	meal Handler
}

// NewRouter creates a router over the fixed module set.
func NewRouter(whitelist WhitelistStore) *Router {
	return &Router{
		base: NewBaseHandler(whitelist),
		meal: MealHandler{},
	}
}

// Handler returns the handler for m. Unknown modules are served by Base.
func (r *Router) Handler(m Module) Handler {
	switch m {
	case ModuleMeal:
		return r.meal
	default:
		return r.base
	}
}

// Dispatch invokes the handler once when there are no actions, otherwise once
// per action in order. The reply of the last invocation wins.
func (r *Router) Dispatch(ctx context.Context, sess *session.Session, msg Inbound, submodule, intent, aiReply string, actions []Action) (string, error) {
	handler := r.Handler(Coerce(sess.ActiveModule))
	req := &Request{
		Session:   sess,
		Message:   msg,
		Submodule: submodule,
		Intent:    intent,
		AIReply:   aiReply,
	}

	if len(actions) == 0 {
		return handler.Handle(ctx, req, nil)
	}

	var reply string
	for i := range actions {
		var err error
		if reply, err = handler.Handle(ctx, req, &actions[i]); err != nil {
			return "", err
		}
	}
	return reply, nil
}
