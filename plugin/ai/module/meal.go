package module

import "context"

// MealHandler serves the Meal module, which has no side effects yet.
type MealHandler struct{}

func (MealHandler) Handle(_ context.Context, req *Request, _ *Action) (string, error) {
	return req.AIReply, nil
}
