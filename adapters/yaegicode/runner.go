// Package yaegicode implements the engine's CodeRunner on the yaegi Go
// interpreter: code nodes carry a snippet defining
//
//	func Main(in map[string]any) map[string]any
//
// which runs in-process against a fresh interpreter per call.
package yaegicode

import (
	"context"
	"fmt"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

type Runner struct{}

func New() *Runner { return &Runner{} }

func (r *Runner) Run(ctx context.Context, code string, inputs map[string]any) (out map[string]any, err error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("load stdlib symbols: %w", err)
	}
	if _, err := i.EvalWithContext(ctx, code); err != nil {
		return nil, fmt.Errorf("eval code: %w", err)
	}
	v, err := i.EvalWithContext(ctx, "Main")
	if err != nil {
		return nil, fmt.Errorf("code must define Main: %w", err)
	}
	fn, ok := v.Interface().(func(map[string]any) map[string]any)
	if !ok {
		return nil, fmt.Errorf("Main must have signature func(map[string]any) map[string]any")
	}

	// Interpreted code can panic; keep that an error, not a crash.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("code panicked: %v", rec)
		}
	}()
	return fn(inputs), nil
}
