// Package modelstub provides scripted model and tool invokers for demos
// and tests. They satisfy the engine's collaborator contracts without any
// model backend.
package modelstub

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Scripted replays canned responses in order, repeating the last one when
// exhausted. It records every prompt it receives.
type Scripted struct {
	mu        sync.Mutex
	responses []string
	idx       int
	prompts   []string
}

func NewScripted(responses ...string) *Scripted {
	return &Scripted{responses: responses}
}

func (s *Scripted) Invoke(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if len(s.responses) == 0 {
		return "ok", nil
	}
	r := s.responses[min(s.idx, len(s.responses)-1)]
	s.idx++
	return r, nil
}

// InvokeStream emits the response word by word before returning it whole.
func (s *Scripted) InvokeStream(ctx context.Context, prompt string, emit func(chunk string)) (string, error) {
	full, err := s.Invoke(ctx, prompt)
	if err != nil {
		return "", err
	}
	for _, w := range strings.Fields(full) {
		emit(w)
	}
	return full, nil
}

// Prompts returns every prompt seen so far.
func (s *Scripted) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// Keyed answers with the response whose key occurs in the prompt, falling
// back to def. Keys are tried in sorted order for determinism.
type Keyed struct {
	mu    sync.Mutex
	rules map[string]string
	keys  []string
	def   string
}

func NewKeyed(rules map[string]string, def string) *Keyed {
	keys := make([]string, 0, len(rules))
	for k := range rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &Keyed{rules: rules, keys: keys, def: def}
}

func (k *Keyed) Invoke(ctx context.Context, prompt string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, key := range k.keys {
		if strings.Contains(prompt, key) {
			return k.rules[key], nil
		}
	}
	return k.def, nil
}

// EchoTools is a ToolInvoker that echoes the call back, with args in
// sorted key order so outputs are stable.
type EchoTools struct{}

func (EchoTools) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, args[k]))
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", ")), nil
}
