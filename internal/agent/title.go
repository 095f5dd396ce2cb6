package agent

import (
	"context"
	"strings"
)

// TitleGenerator produces a short conversation title with a single
// independent model call. No tools are offered.
type TitleGenerator struct {
	client Client
}

func NewTitleGenerator(client Client) *TitleGenerator {
	return &TitleGenerator{client: client}
}

// Generate returns the trimmed title, or empty when the model produced no
// usable text. Callers leave the existing title untouched on empty output.
func (g *TitleGenerator) Generate(ctx context.Context, userMessage string) (string, error) {
	res, err := g.client.CreateResponse(ctx, Request{
		Instructions: TitleGeneratorSystemPrompt,
		Input:        []map[string]any{userMessageItem(userMessage)},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.FinalText), nil
}
