package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"codeforge/server/internal/agent"
	"codeforge/server/internal/store"
)

type ReadFileTool struct {
	deps Deps
}

func (t *ReadFileTool) Name() string { return "read-file" }

func (t *ReadFileTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Type:        "function",
		Name:        t.Name(),
		Description: "Reads the contents of a file from the project.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"fileId": map[string]any{
					"type":        "string",
					"description": "The ID of the file to read",
				},
			},
			"required":             []string{"fileId"},
			"additionalProperties": false,
		},
	}
}

func (t *ReadFileTool) Execute(ctx context.Context, input json.RawMessage) string {
	if msg := validateInput(t.Spec(), input); msg != "" {
		return msg
	}
	var args struct {
		FileID string `json:"fileId"`
	}
	if msg := decodeInput(input, &args); msg != "" {
		return msg
	}
	if strings.TrimSpace(args.FileID) == "" {
		return "Error: File Id is required"
	}
	file, err := t.deps.Store.GetFile(t.deps.InternalKey, args.FileID)
	if err != nil {
		return fmt.Sprintf("Error: File with Id %s not found. Use the listFiles to get Valid fileIDs.", args.FileID)
	}
	if file.Type == store.FileTypeFolder {
		return fmt.Sprintf("Error: File with Id %s is a folder, not a file. You can only read file contents.", args.FileID)
	}
	raw, err := json.Marshal(map[string]any{
		"id":      file.FileID,
		"name":    file.Name,
		"type":    file.Type,
		"content": file.Content,
	})
	if err != nil {
		return fmt.Sprintf("Error reading file: %v", err)
	}
	return string(raw)
}
