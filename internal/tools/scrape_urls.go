package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"codeforge/server/internal/agent"
)

type ScrapeURLsTool struct {
	deps Deps
}

func (t *ScrapeURLsTool) Name() string { return "scrape-urls" }

func (t *ScrapeURLsTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Type:        "function",
		Name:        t.Name(),
		Description: "Scrapes the content from URLs to get documentation or reference materials. Returns markdown content from the scraped pages.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"urls": map[string]any{
					"type":        "array",
					"description": "Array of URLs to scrape content from",
					"items":       map[string]any{"type": "string"},
				},
			},
			"required":             []string{"urls"},
			"additionalProperties": false,
		},
	}
}

type scrapedPage struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

func (t *ScrapeURLsTool) Execute(ctx context.Context, input json.RawMessage) string {
	if msg := validateInput(t.Spec(), input); msg != "" {
		return msg
	}
	var args struct {
		URLs []string `json:"urls"`
	}
	if msg := decodeInput(input, &args); msg != "" {
		return msg
	}
	if len(args.URLs) == 0 {
		return "Error: Provide at least one URL"
	}
	for _, raw := range args.URLs {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return "Error: Invalid URL"
		}
	}

	// Per-URL failures degrade to inline error text; only a fully empty
	// result set fails the call.
	results := make([]scrapedPage, 0, len(args.URLs))
	for _, pageURL := range args.URLs {
		content, err := t.deps.Scraper.Scrape(ctx, pageURL)
		if err != nil {
			results = append(results, scrapedPage{
				URL:     pageURL,
				Content: fmt.Sprintf("Error: Failed to scrape %s", pageURL),
			})
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		results = append(results, scrapedPage{URL: pageURL, Content: content})
	}
	if len(results) == 0 {
		return "No content found from provided URLs"
	}
	raw, err := json.Marshal(results)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return string(raw)
}
