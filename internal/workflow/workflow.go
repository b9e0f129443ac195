// Package workflow composes LLM call sequences as explicit typed stages.
//
// The chains in this service are always linear, so a fixed-arity runner over
// plain state structs is enough; each stage receives the accumulated state
// and returns the next one.
package workflow

import (
	"context"
	"fmt"
)

// Stage transforms workflow state. A stage that fails aborts the chain.
type Stage[S any] struct {
	Name string
	Run  func(ctx context.Context, state S) (S, error)
}

// Run executes stages in order, threading state through them.
func Run[S any](ctx context.Context, initial S, stages ...Stage[S]) (S, error) {
	state := initial
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return state, fmt.Errorf("workflow %q: %w", stage.Name, err)
		}
		next, err := stage.Run(ctx, state)
		if err != nil {
			return state, fmt.Errorf("workflow %q: %w", stage.Name, err)
		}
		state = next
	}
	return state, nil
}
