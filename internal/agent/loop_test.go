package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"codeforge/server/internal/logging"
)

type scriptedClient struct {
	results []*Result
	calls   int
	seen    []Request
}

func (c *scriptedClient) CreateResponse(_ context.Context, req Request) (*Result, error) {
	c.seen = append(c.seen, req)
	if c.calls >= len(c.results) {
		return &Result{FinalText: "ran out of script"}, nil
	}
	res := c.results[c.calls]
	c.calls++
	return res, nil
}

type echoTool struct {
	name     string
	executed int
}

func (t *echoTool) Name() string { return t.name }
func (t *echoTool) Spec() ToolSpec {
	return ToolSpec{Type: "function", Name: t.name, Parameters: map[string]any{"type": "object"}}
}
func (t *echoTool) Execute(_ context.Context, input json.RawMessage) string {
	t.executed++
	return fmt.Sprintf("echo:%s", strings.TrimSpace(string(input)))
}

func newLoopRunner(client Client, tools *Registry, max int) *LoopRunner {
	lg := logging.NewLogger(logging.Options{Level: "error", Component: "agent-test"})
	return NewLoopRunner(client, tools, LoopOptions{MaxIterations: max}, lg)
}

func TestLoopTerminatesOnFinalText(t *testing.T) {
	client := &scriptedClient{results: []*Result{{FinalText: "done", ID: "r1"}}}
	runner := newLoopRunner(client, NewRegistry(), 5)

	out, err := runner.Run(context.Background(), "system", "hello")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "done" {
		t.Fatalf("expected final text, got %q", out)
	}
	if client.calls != 1 {
		t.Fatalf("expected one model turn, got %d", client.calls)
	}
	if client.seen[0].Instructions != "system" {
		t.Fatalf("system prompt not forwarded: %q", client.seen[0].Instructions)
	}
}

func TestLoopExecutesToolsAndFeedsResultsBack(t *testing.T) {
	tool := &echoTool{name: "list-files"}
	registry := NewRegistry()
	if err := registry.Register(tool); err != nil {
		t.Fatalf("register: %v", err)
	}
	client := &scriptedClient{results: []*Result{
		{ID: "r1", ToolCalls: []ToolCall{{CallID: "call_1", Name: "list-files", Arguments: json.RawMessage(`{}`)}}},
		{ID: "r2", FinalText: "all files listed"},
	}}
	runner := newLoopRunner(client, registry, 5)

	out, err := runner.Run(context.Background(), "system", "list")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "all files listed" {
		t.Fatalf("unexpected final answer %q", out)
	}
	if tool.executed != 1 {
		t.Fatalf("tool must execute once, executed %d", tool.executed)
	}

	second := client.seen[1].Input
	if len(second) != 3 {
		t.Fatalf("expected user msg + function_call + output in history, got %d items", len(second))
	}
	if second[1]["type"] != "function_call" || second[2]["type"] != "function_call_output" {
		t.Fatalf("history items malformed: %+v", second[1:])
	}
	if second[2]["output"] != "echo:{}" {
		t.Fatalf("tool output not fed back: %v", second[2]["output"])
	}
}

func TestLoopUnknownToolBecomesErrorString(t *testing.T) {
	client := &scriptedClient{results: []*Result{
		{ID: "r1", ToolCalls: []ToolCall{{CallID: "call_1", Name: "no-such-tool", Arguments: json.RawMessage(`{}`)}}},
		{ID: "r2", FinalText: "ok"},
	}}
	runner := newLoopRunner(client, NewRegistry(), 5)

	if _, err := runner.Run(context.Background(), "s", "u"); err != nil {
		t.Fatalf("run: %v", err)
	}
	output, _ := client.seen[1].Input[2]["output"].(string)
	if !strings.HasPrefix(output, "Error:") {
		t.Fatalf("unknown tool must degrade to error text, got %q", output)
	}
}

func TestLoopCeilingForcesTermination(t *testing.T) {
	registry := NewRegistry()
	tool := &echoTool{name: "loop-tool"}
	if err := registry.Register(tool); err != nil {
		t.Fatalf("register: %v", err)
	}
	// The model requests the tool forever and never answers.
	results := make([]*Result, 0, 8)
	for i := 0; i < 8; i++ {
		results = append(results, &Result{
			ID:        fmt.Sprintf("r%d", i),
			ToolCalls: []ToolCall{{CallID: fmt.Sprintf("call_%d", i), Name: "loop-tool", Arguments: json.RawMessage(`{}`)}},
		})
	}
	client := &scriptedClient{results: results}
	runner := newLoopRunner(client, registry, 3)

	out, err := runner.Run(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("ceiling must not be an error: %v", err)
	}
	if out != FallbackText {
		t.Fatalf("expected fallback text, got %q", out)
	}
	if client.calls != 3 {
		t.Fatalf("expected exactly 3 turns, got %d", client.calls)
	}
}

func TestLoopCeilingKeepsLastText(t *testing.T) {
	registry := NewRegistry()
	tool := &echoTool{name: "loop-tool"}
	if err := registry.Register(tool); err != nil {
		t.Fatalf("register: %v", err)
	}
	client := &scriptedClient{results: []*Result{
		{ID: "r1", FinalText: "partial progress", ToolCalls: []ToolCall{{CallID: "c1", Name: "loop-tool", Arguments: json.RawMessage(`{}`)}}},
		{ID: "r2", ToolCalls: []ToolCall{{CallID: "c2", Name: "loop-tool", Arguments: json.RawMessage(`{}`)}}},
	}}
	runner := newLoopRunner(client, registry, 2)

	out, err := runner.Run(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "partial progress" {
		t.Fatalf("expected last text to win at the ceiling, got %q", out)
	}
}

func TestSystemPromptWithContext(t *testing.T) {
	plain := SystemPromptWithContext(nil)
	if plain != CodingAgentSystemPrompt {
		t.Fatal("no turns must leave the persona untouched")
	}
	withCtx := SystemPromptWithContext([]PriorTurn{
		{Role: "user", Content: "make a todo app"},
		{Role: "assistant", Content: "created index.html"},
	})
	if !strings.Contains(withCtx, "make a todo app") || !strings.Contains(withCtx, "created index.html") {
		t.Fatal("prior turns missing from context block")
	}
	if !strings.Contains(withCtx, "Do not repeat") {
		t.Fatal("context scoping instruction missing")
	}
}

func TestTitleGeneratorTrimsOutput(t *testing.T) {
	client := &scriptedClient{results: []*Result{{FinalText: "  Todo App Plan  \n"}}}
	gen := NewTitleGenerator(client)
	title, err := gen.Generate(context.Background(), "build me a todo app")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if title != "Todo App Plan" {
		t.Fatalf("expected trimmed title, got %q", title)
	}
	if len(client.seen[0].Tools) != 0 {
		t.Fatal("title generation must not offer tools")
	}
}

type memoryStepLog struct {
	names []string
	saved map[string][]byte
}

func (m *memoryStepLog) step(ctx context.Context, name string, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if raw, ok := m.saved[name]; ok {
		return raw, nil
	}
	raw, err := fn(ctx)
	if err != nil {
		return nil, err
	}
	m.saved[name] = raw
	m.names = append(m.names, name)
	return raw, nil
}

func TestLoopRecordsEveryTurnAndToolAsStep(t *testing.T) {
	tool := &echoTool{name: "create-folder"}
	registry := NewRegistry()
	if err := registry.Register(tool); err != nil {
		t.Fatalf("register: %v", err)
	}
	steps := &memoryStepLog{saved: map[string][]byte{}}
	client := &scriptedClient{results: []*Result{
		{ID: "r1", ToolCalls: []ToolCall{{CallID: "call_1", Name: "create-folder", Arguments: json.RawMessage(`{}`)}}},
		{ID: "r2", FinalText: "folder ready"},
	}}
	lg := logging.NewLogger(logging.Options{Level: "error", Component: "agent-test"})
	runner := NewLoopRunner(client, registry, LoopOptions{MaxIterations: 5, Step: steps.step}, lg)

	out, err := runner.Run(context.Background(), "system", "make a folder")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "folder ready" {
		t.Fatalf("unexpected answer %q", out)
	}
	want := []string{"model-turn-1", "tool-1-create-folder", "model-turn-2"}
	if len(steps.names) != len(want) {
		t.Fatalf("recorded steps %v, want %v", steps.names, want)
	}
	for i, name := range want {
		if steps.names[i] != name {
			t.Fatalf("recorded steps %v, want %v", steps.names, want)
		}
	}
}

func TestLoopReplaysRecordedStepsWithoutReExecuting(t *testing.T) {
	tool := &echoTool{name: "create-folder"}
	registry := NewRegistry()
	if err := registry.Register(tool); err != nil {
		t.Fatalf("register: %v", err)
	}
	steps := &memoryStepLog{saved: map[string][]byte{}}
	script := []*Result{
		{ID: "r1", ToolCalls: []ToolCall{{CallID: "call_1", Name: "create-folder", Arguments: json.RawMessage(`{}`)}}},
		{ID: "r2", FinalText: "folder ready"},
	}
	lg := logging.NewLogger(logging.Options{Level: "error", Component: "agent-test"})

	first := &scriptedClient{results: script}
	if _, err := NewLoopRunner(first, registry, LoopOptions{MaxIterations: 5, Step: steps.step}, lg).
		Run(context.Background(), "system", "make a folder"); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// A retry with the same recorded steps must touch neither the model
	// nor the tool again.
	second := &scriptedClient{}
	out, err := NewLoopRunner(second, registry, LoopOptions{MaxIterations: 5, Step: steps.step}, lg).
		Run(context.Background(), "system", "make a folder")
	if err != nil {
		t.Fatalf("replayed run: %v", err)
	}
	if out != "folder ready" {
		t.Fatalf("replay must return the recorded answer, got %q", out)
	}
	if second.calls != 0 {
		t.Fatalf("replay must not call the model, got %d calls", second.calls)
	}
	if tool.executed != 1 {
		t.Fatalf("tool mutation must run once, got %d", tool.executed)
	}
}
