package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"codeforge/server/internal/agent"
)

type CreateFolderTool struct {
	deps Deps
}

func (t *CreateFolderTool) Name() string { return "create-folder" }

func (t *CreateFolderTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Type:        "function",
		Name:        t.Name(),
		Description: "Create a new folder in the project.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{
					"type":        "string",
					"description": "The name of the folder to create",
				},
				"parentId": map[string]any{
					"type":        "string",
					"description": "The ID (not name!) of the parent folder from listFiles, or empty string for root.",
				},
			},
			"required":             []string{"name", "parentId"},
			"additionalProperties": false,
		},
	}
}

func (t *CreateFolderTool) Execute(ctx context.Context, input json.RawMessage) string {
	if msg := validateInput(t.Spec(), input); msg != "" {
		return msg
	}
	var args struct {
		Name     string `json:"name"`
		ParentID string `json:"parentId"`
	}
	if msg := decodeInput(input, &args); msg != "" {
		return msg
	}
	if strings.TrimSpace(args.Name) == "" {
		return "Error: Folder name is required"
	}
	if msg := checkParent(t.deps, args.ParentID); msg != "" {
		return msg
	}
	folderID, err := t.deps.Store.CreateFolder(t.deps.InternalKey, t.deps.ProjectID, args.ParentID, args.Name)
	if err != nil {
		return fmt.Sprintf("Error creating folder: %v", err)
	}
	return fmt.Sprintf("Folder created with ID: %s", folderID)
}
