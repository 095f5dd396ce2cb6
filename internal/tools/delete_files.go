package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"codeforge/server/internal/agent"
	"codeforge/server/internal/db"
)

type DeleteFilesTool struct {
	deps Deps
}

func (t *DeleteFilesTool) Name() string { return "delete-files" }

func (t *DeleteFilesTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Type:        "function",
		Name:        t.Name(),
		Description: "Deletes files or folders from the project. A folder is deleted recursively with all its contents.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"fileIds": map[string]any{
					"type":        "array",
					"description": "Array of file or folder IDs to delete",
					"items":       map[string]any{"type": "string"},
				},
			},
			"required":             []string{"fileIds"},
			"additionalProperties": false,
		},
	}
}

func (t *DeleteFilesTool) Execute(ctx context.Context, input json.RawMessage) string {
	if msg := validateInput(t.Spec(), input); msg != "" {
		return msg
	}
	var args struct {
		FileIDs []string `json:"fileIds"`
	}
	if msg := decodeInput(input, &args); msg != "" {
		return msg
	}
	if len(args.FileIDs) == 0 {
		return "Error: Provide at least one file ID"
	}

	// Resolve everything first; a single missing id aborts before any deletion.
	doomed := make([]*db.File, 0, len(args.FileIDs))
	for _, fileID := range args.FileIDs {
		if strings.TrimSpace(fileID) == "" {
			return "Error: File ID cannot be empty"
		}
		file, err := t.deps.Store.GetFile(t.deps.InternalKey, fileID)
		if err != nil {
			return fmt.Sprintf("Error: File with Id %s not found. Use the listFiles to get Valid fileIDs.", fileID)
		}
		doomed = append(doomed, file)
	}

	results := make([]string, 0, len(doomed))
	for _, file := range doomed {
		if err := t.deps.Store.DeleteFile(t.deps.InternalKey, file.FileID); err != nil {
			return fmt.Sprintf("Error deleting files: %v", err)
		}
		results = append(results, fmt.Sprintf("File %s %q deleted successfully.", file.Name, file.Type))
	}
	return strings.Join(results, "\n")
}
