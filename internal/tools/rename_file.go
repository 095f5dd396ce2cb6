package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"codeforge/server/internal/agent"
)

type RenameFileTool struct {
	deps Deps
}

func (t *RenameFileTool) Name() string { return "rename-file" }

func (t *RenameFileTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Type:        "function",
		Name:        t.Name(),
		Description: "Renames a file or folder in the project.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"fileId": map[string]any{
					"type":        "string",
					"description": "The ID of the file to rename",
				},
				"newName": map[string]any{
					"type":        "string",
					"description": "The new name of the file",
				},
			},
			"required":             []string{"fileId", "newName"},
			"additionalProperties": false,
		},
	}
}

func (t *RenameFileTool) Execute(ctx context.Context, input json.RawMessage) string {
	if msg := validateInput(t.Spec(), input); msg != "" {
		return msg
	}
	var args struct {
		FileID  string `json:"fileId"`
		NewName string `json:"newName"`
	}
	if msg := decodeInput(input, &args); msg != "" {
		return msg
	}
	if strings.TrimSpace(args.FileID) == "" {
		return "Error: File Id is required"
	}
	if strings.TrimSpace(args.NewName) == "" {
		return "Error: File name is required"
	}
	if _, err := t.deps.Store.GetFile(t.deps.InternalKey, args.FileID); err != nil {
		return fmt.Sprintf("Error: File with Id %s not found. Use the listFiles to get Valid fileIDs.", args.FileID)
	}
	if err := t.deps.Store.RenameFile(t.deps.InternalKey, args.FileID, args.NewName); err != nil {
		return fmt.Sprintf("Error renaming file: %v", err)
	}
	return fmt.Sprintf("File with Id %s renamed successfully.", args.FileID)
}
