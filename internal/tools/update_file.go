package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"codeforge/server/internal/agent"
	"codeforge/server/internal/store"
)

type UpdateFileTool struct {
	deps Deps
}

func (t *UpdateFileTool) Name() string { return "update-file" }

func (t *UpdateFileTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Type:        "function",
		Name:        t.Name(),
		Description: "Updates the contents of a file in the project.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"fileId": map[string]any{
					"type":        "string",
					"description": "The ID of the file to update",
				},
				"content": map[string]any{
					"type":        "string",
					"description": "The new content of the file",
				},
			},
			"required":             []string{"fileId", "content"},
			"additionalProperties": false,
		},
	}
}

func (t *UpdateFileTool) Execute(ctx context.Context, input json.RawMessage) string {
	if msg := validateInput(t.Spec(), input); msg != "" {
		return msg
	}
	var args struct {
		FileID  string `json:"fileId"`
		Content string `json:"content"`
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
		return fmt.Sprintf("Error: File with Id %s is a folder, not a file. You can only update file contents.", args.FileID)
	}
	if err := t.deps.Store.UpdateFile(t.deps.InternalKey, args.FileID, args.Content); err != nil {
		return fmt.Sprintf("Error updating file: %v", err)
	}
	return fmt.Sprintf("File with Id %s updated successfully.", args.FileID)
}
