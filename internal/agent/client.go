package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
)

type OpenAIConfig struct {
	BaseURL string
	Model   string
	APIKey  string
}

// Request is the vendor-neutral model turn: instructions (system prompt),
// accumulated input items and the tool set offered for this turn.
type Request struct {
	Instructions string
	Input        []map[string]any
	Tools        []ToolSpec
}

type ToolCall struct {
	ID        string
	CallID    string
	Name      string
	Arguments json.RawMessage
}

type Result struct {
	ID        string
	FinalText string
	ToolCalls []ToolCall
}

func (r Result) HasFinalText() bool {
	return strings.TrimSpace(r.FinalText) != ""
}

// Client is the LLM capability: one prompt/tool-set in, text or tool calls
// out. Workflows depend on this interface, never on the SDK.
type Client interface {
	CreateResponse(ctx context.Context, req Request) (*Result, error)
}

type ResponsesClient struct {
	cfg     OpenAIConfig
	service responses.ResponseService
}

func NewResponsesClient(cfg OpenAIConfig, httpClient *http.Client) *ResponsesClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	opts := []option.RequestOption{option.WithHTTPClient(httpClient)}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		opts = append(opts, option.WithAPIKey(key))
	}
	return &ResponsesClient{
		cfg:     cfg,
		service: responses.NewResponseService(opts...),
	}
}

func (c *ResponsesClient) CreateResponse(ctx context.Context, req Request) (*Result, error) {
	params, err := c.toSDKRequest(req)
	if err != nil {
		return nil, err
	}
	var rawBody []byte
	_, err = c.service.New(ctx, params, option.WithResponseBodyInto(&rawBody))
	if err != nil {
		return nil, c.wrapRequestError(err)
	}
	if len(rawBody) == 0 {
		return nil, errors.New("responses api returned empty body")
	}
	return parseResult(rawBody)
}

func (c *ResponsesClient) toSDKRequest(req Request) (responses.ResponseNewParams, error) {
	var out responses.ResponseNewParams
	out.Model = strings.TrimSpace(c.cfg.Model)
	if instructions := strings.TrimSpace(req.Instructions); instructions != "" {
		out.Instructions = param.NewOpt(instructions)
	}
	items := make(responses.ResponseInputParam, 0, len(req.Input))
	for i, rawItem := range req.Input {
		raw, err := json.Marshal(rawItem)
		if err != nil {
			return responses.ResponseNewParams{}, fmt.Errorf("marshal input item[%d]: %w", i, err)
		}
		var item responses.ResponseInputItemUnionParam
		if err := json.Unmarshal(raw, &item); err != nil {
			return responses.ResponseNewParams{}, fmt.Errorf("decode input item[%d]: %w", i, err)
		}
		items = append(items, item)
	}
	out.Input = responses.ResponseNewParamsInputUnion{OfInputItemList: items}
	if len(req.Tools) > 0 {
		tools := make([]responses.ToolUnionParam, 0, len(req.Tools))
		for i, spec := range req.Tools {
			raw, err := json.Marshal(spec)
			if err != nil {
				return responses.ResponseNewParams{}, fmt.Errorf("marshal tool[%d]: %w", i, err)
			}
			var tool responses.ToolUnionParam
			if err := json.Unmarshal(raw, &tool); err != nil {
				return responses.ResponseNewParams{}, fmt.Errorf("decode tool[%d]: %w", i, err)
			}
			tools = append(tools, tool)
		}
		out.Tools = tools
	}
	return out, nil
}

func (c *ResponsesClient) wrapRequestError(err error) error {
	var apiErr *responses.Error
	if errors.As(err, &apiErr) {
		body := strings.TrimSpace(apiErr.RawJSON())
		if body == "" {
			body = strings.TrimSpace(err.Error())
		}
		return fmt.Errorf("responses api status %d: %s", apiErr.StatusCode, body)
	}
	return fmt.Errorf("responses request failed: %w", err)
}

type responseContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type responseItem struct {
	Type      string                `json:"type"`
	ID        string                `json:"id"`
	CallID    string                `json:"call_id"`
	Name      string                `json:"name"`
	Arguments string                `json:"arguments"`
	Content   []responseContentPart `json:"content"`
}

type responsePayload struct {
	ID     string         `json:"id"`
	Output []responseItem `json:"output"`
}

func parseResult(raw []byte) (*Result, error) {
	var decoded responsePayload
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode responses payload: %w", err)
	}
	out := &Result{ID: strings.TrimSpace(decoded.ID)}
	for _, item := range decoded.Output {
		if item.Type == "function_call" {
			arguments := strings.TrimSpace(item.Arguments)
			if arguments == "" {
				arguments = "{}"
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:        strings.TrimSpace(item.ID),
				CallID:    strings.TrimSpace(item.CallID),
				Name:      strings.TrimSpace(item.Name),
				Arguments: json.RawMessage(arguments),
			})
			continue
		}
		for _, part := range item.Content {
			if part.Type != "output_text" {
				continue
			}
			if text := strings.TrimSpace(part.Text); text != "" {
				if out.FinalText != "" {
					out.FinalText += "\n"
				}
				out.FinalText += text
			}
		}
	}
	return out, nil
}
