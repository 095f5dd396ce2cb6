package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

type Registry struct {
	mu     sync.RWMutex
	byName map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]Tool{}}
}

func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return errors.New("tool is nil")
	}
	name := strings.TrimSpace(tool.Name())
	if name == "" {
		return errors.New("tool name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.byName[name] = tool
	return nil
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.byName[strings.TrimSpace(name)]
	return tool, ok
}

func (r *Registry) Specs() []ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]ToolSpec, 0, len(names))
	for _, name := range names {
		out = append(out, r.byName[name].Spec())
	}
	return out
}

// Execute dispatches one tool call. An unknown tool name degrades to an
// error string like every other tool failure.
func (r *Registry) Execute(ctx context.Context, name string, input json.RawMessage) string {
	tool, ok := r.Get(name)
	if !ok {
		return fmt.Sprintf("Error: tool %q is not available", strings.TrimSpace(name))
	}
	return tool.Execute(ctx, input)
}
