package workflows

import (
	"context"
	"strings"

	"codeforge/server/internal/agent"
	"codeforge/server/internal/store"
	"codeforge/server/internal/tools"
	"codeforge/server/internal/workflow"
)

// failureMessage replaces the assistant's answer when the run gives up.
const failureMessage = "AI failed to process your message. Please try again."

type messagePayload struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
	ProjectID      string `json:"projectId"`
	Message        string `json:"message"`
}

type conversationContext struct {
	Title      string           `json:"title"`
	PriorTurns []priorTurnState `json:"priorTurns"`
}

type priorTurnState struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func processMessageFunction(deps Deps) workflow.Function {
	return workflow.Function{
		Name:    "process-message",
		Trigger: EventMessageSent,
		CancelOn: []workflow.CancelOn{
			{Event: EventMessageCancel, Field: "messageId"},
		},
		Handler:   func(ctx context.Context, run *workflow.Run) error { return processMessage(ctx, run, deps) },
		OnFailure: func(ctx context.Context, run *workflow.Run, cause error) { processMessageFailed(ctx, run, deps) },
	}
}

func processMessage(ctx context.Context, run *workflow.Run, deps Deps) error {
	var payload messagePayload
	if err := run.Payload(&payload); err != nil {
		return workflow.NonRetriable(err)
	}
	if strings.TrimSpace(deps.InternalKey) == "" {
		return workflow.NonRetriable(store.ErrInternalKeyUnset)
	}

	convCtx, err := workflow.Step(ctx, run, "load-conversation-context", func(ctx context.Context) (conversationContext, error) {
		conversation, err := deps.Store.GetConversation(deps.InternalKey, payload.ConversationID)
		if err != nil {
			return conversationContext{}, err
		}
		out := conversationContext{Title: conversation.Title}
		if conversation.Title == store.DefaultConversationTitle {
			recent, err := deps.Store.RecentMessages(deps.InternalKey, payload.ConversationID, 10)
			if err != nil {
				return conversationContext{}, err
			}
			for _, message := range recent {
				if message.MessageID == payload.MessageID || message.Content == "" {
					continue
				}
				out.PriorTurns = append(out.PriorTurns, priorTurnState{
					Role:    message.Role,
					Content: message.Content,
				})
			}
		}
		return out, nil
	})
	if err != nil {
		return err
	}

	registry, err := tools.NewRegistry(tools.Deps{
		Store:       deps.Store,
		InternalKey: deps.InternalKey,
		ProjectID:   payload.ProjectID,
		Scraper:     deps.Scraper,
	})
	if err != nil {
		return workflow.NonRetriable(err)
	}
	systemPrompt := agent.CodingAgentSystemPrompt
	if convCtx.Title == store.DefaultConversationTitle && len(convCtx.PriorTurns) > 0 {
		turns := make([]agent.PriorTurn, 0, len(convCtx.PriorTurns))
		for _, turn := range convCtx.PriorTurns {
			turns = append(turns, agent.PriorTurn{Role: turn.Role, Content: turn.Content})
		}
		systemPrompt = agent.SystemPromptWithContext(turns)
	}

	// Each model turn and each tool dispatch is its own durable step, so a
	// retried run replays recorded turns and never re-applies a tool
	// mutation that already happened.
	options := deps.LoopOptions
	options.Step = func(ctx context.Context, name string, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
		return workflow.Step(ctx, run, name, fn)
	}
	runner := agent.NewLoopRunner(deps.LLM, registry, options, run.Logger())
	finalText, err := runner.Run(ctx, systemPrompt, payload.Message)
	if err != nil {
		return err
	}

	if err := workflow.Do(ctx, run, "save-assistant-response", func(ctx context.Context) error {
		return deps.Store.UpdateMessageContent(deps.InternalKey, payload.MessageID, finalText)
	}); err != nil {
		return err
	}

	// Title generation is best effort; a model hiccup here must not fail a
	// run whose answer is already saved.
	if convCtx.Title == store.DefaultConversationTitle {
		if err := workflow.Do(ctx, run, "generate-conversation-title", func(ctx context.Context) error {
			title, err := agent.NewTitleGenerator(deps.LLM).Generate(ctx, payload.Message)
			if err != nil || title == "" {
				run.Logger().Warn("title generation skipped", "error", err)
				return nil
			}
			return deps.Store.UpdateConversationTitle(deps.InternalKey, payload.ConversationID, title)
		}); err != nil {
			return err
		}
	}
	return nil
}

func processMessageFailed(ctx context.Context, run *workflow.Run, deps Deps) {
	if strings.TrimSpace(deps.InternalKey) == "" {
		return
	}
	var payload messagePayload
	if err := run.Payload(&payload); err != nil {
		return
	}
	if err := deps.Store.UpdateMessageContent(deps.InternalKey, payload.MessageID, failureMessage); err != nil {
		run.Logger().Error("failed to record failure message", "error", err)
	}
}
