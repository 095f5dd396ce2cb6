package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// FallbackText is the final answer when the iteration ceiling forces
// termination and no turn ever produced usable text.
const FallbackText = "I processed your request."

// StepFunc makes one loop operation durable: fn runs at most once per
// (run, name) and its recorded bytes are replayed on retry. A nil StepFunc
// executes everything inline.
type StepFunc func(ctx context.Context, name string, fn func(ctx context.Context) ([]byte, error)) ([]byte, error)

type LoopOptions struct {
	MaxIterations int
	Step          StepFunc
}

// LoopRunner drives repeated model turns: each turn either ends with a
// final text answer (no pending tool calls) or requests tool calls that
// are executed and fed back as the next turn's input. The full item
// history is re-sent every turn.
type LoopRunner struct {
	client  Client
	tools   *Registry
	options LoopOptions
	logger  *slog.Logger
}

func NewLoopRunner(client Client, tools *Registry, options LoopOptions, logger *slog.Logger) *LoopRunner {
	if options.MaxIterations <= 0 {
		options.MaxIterations = 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LoopRunner{client: client, tools: tools, options: options, logger: logger}
}

// Run executes the loop for one user message and returns the final answer.
// Every model turn and every tool dispatch goes through the configured
// StepFunc, so a retried run replays completed work instead of re-invoking
// the model or re-applying tool mutations. Reaching the iteration ceiling
// is not an error: the last text produced wins, falling back to
// FallbackText.
func (r *LoopRunner) Run(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if r.client == nil {
		return "", fmt.Errorf("loop runner client is required")
	}
	history := []map[string]any{userMessageItem(userPrompt)}
	lastText := ""
	toolSeq := 0

	for i := 0; i < r.options.MaxIterations; i++ {
		req := Request{
			Instructions: systemPrompt,
			Input:        cloneItems(history),
		}
		if r.tools != nil {
			req.Tools = r.tools.Specs()
		}
		res, err := r.modelTurn(ctx, i+1, req)
		if err != nil {
			return "", err
		}
		if res.HasFinalText() {
			lastText = res.FinalText
		}
		if res.HasFinalText() && len(res.ToolCalls) == 0 {
			return res.FinalText, nil
		}
		if len(res.ToolCalls) == 0 {
			// No text and no tool calls: nothing to feed back, ask again.
			r.logger.Warn("model turn produced no output", "iteration", i+1)
			continue
		}
		for _, call := range res.ToolCalls {
			toolSeq++
			output, err := r.executeCall(ctx, toolSeq, call)
			if err != nil {
				return "", err
			}
			history = append(history, functionCallItem(call), functionCallOutputItem(call.CallID, output))
		}
	}

	r.logger.Warn("agent loop hit iteration ceiling", "max_iterations", r.options.MaxIterations)
	if strings.TrimSpace(lastText) != "" {
		return lastText, nil
	}
	return FallbackText, nil
}

func (r *LoopRunner) modelTurn(ctx context.Context, turn int, req Request) (*Result, error) {
	if r.options.Step == nil {
		res, err := r.client.CreateResponse(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("model turn %d: %w", turn, err)
		}
		return res, nil
	}
	raw, err := r.options.Step(ctx, fmt.Sprintf("model-turn-%d", turn), func(ctx context.Context) ([]byte, error) {
		res, err := r.client.CreateResponse(ctx, req)
		if err != nil {
			return nil, err
		}
		return json.Marshal(res)
	})
	if err != nil {
		return nil, err
	}
	res := &Result{}
	if err := json.Unmarshal(raw, res); err != nil {
		return nil, fmt.Errorf("model turn %d: decode recorded result: %w", turn, err)
	}
	return res, nil
}

func (r *LoopRunner) executeCall(ctx context.Context, seq int, call ToolCall) (string, error) {
	if r.options.Step == nil {
		return r.runTool(ctx, call), nil
	}
	raw, err := r.options.Step(ctx, fmt.Sprintf("tool-%d-%s", seq, call.Name), func(ctx context.Context) ([]byte, error) {
		return []byte(r.runTool(ctx, call)), nil
	})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (r *LoopRunner) runTool(ctx context.Context, call ToolCall) string {
	if r.tools == nil {
		return "Error: no tools are available"
	}
	out := r.tools.Execute(ctx, call.Name, call.Arguments)
	r.logger.Debug("tool executed",
		"tool", call.Name, "call_id", call.CallID, "output_len", len(out))
	return out
}

func cloneItems(in []map[string]any) []map[string]any {
	out := make([]map[string]any, len(in))
	copy(out, in)
	return out
}

func userMessageItem(text string) map[string]any {
	return map[string]any{
		"type": "message",
		"role": "user",
		"content": []map[string]any{
			{"type": "input_text", "text": strings.TrimSpace(text)},
		},
	}
}

func functionCallItem(call ToolCall) map[string]any {
	arguments := strings.TrimSpace(string(call.Arguments))
	if arguments == "" {
		arguments = "{}"
	}
	return map[string]any{
		"type":      "function_call",
		"call_id":   call.CallID,
		"name":      call.Name,
		"arguments": arguments,
	}
}

func functionCallOutputItem(callID, output string) map[string]any {
	return map[string]any{
		"type":    "function_call_output",
		"call_id": callID,
		"output":  output,
	}
}
