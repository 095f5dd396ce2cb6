package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"codeforge/server/internal/agent"
	"codeforge/server/internal/store"
)

type CreateFilesTool struct {
	deps Deps
}

func (t *CreateFilesTool) Name() string { return "create-files" }

func (t *CreateFilesTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Type:        "function",
		Name:        t.Name(),
		Description: "Creates multiple files at once in the same folder. Use this to batch create files that share the same parent folder. More efficient than creating files one by one.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"parentId": map[string]any{
					"type":        "string",
					"description": "The ID of the parent folder. Use empty string to create files at root level. Must be a valid folder ID from listFiles tool.",
				},
				"files": map[string]any{
					"type":        "array",
					"description": "Array of files to create",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name": map[string]any{
								"type":        "string",
								"description": "File name including extension",
							},
							"content": map[string]any{
								"type":        "string",
								"description": "The content of the file",
							},
						},
						"required":             []string{"name", "content"},
						"additionalProperties": false,
					},
				},
			},
			"required":             []string{"parentId", "files"},
			"additionalProperties": false,
		},
	}
}

func (t *CreateFilesTool) Execute(ctx context.Context, input json.RawMessage) string {
	if msg := validateInput(t.Spec(), input); msg != "" {
		return msg
	}
	var args struct {
		ParentID string `json:"parentId"`
		Files    []struct {
			Name    string `json:"name"`
			Content string `json:"content"`
		} `json:"files"`
	}
	if msg := decodeInput(input, &args); msg != "" {
		return msg
	}
	if len(args.Files) == 0 {
		return "Error: Provide at least one file to create"
	}
	for _, file := range args.Files {
		if strings.TrimSpace(file.Name) == "" {
			return "Error: File name cannot be empty"
		}
	}
	if msg := checkParent(t.deps, args.ParentID); msg != "" {
		return msg
	}

	items := make([]store.NewFile, 0, len(args.Files))
	for _, file := range args.Files {
		items = append(items, store.NewFile{Name: file.Name, Content: file.Content})
	}
	results, err := t.deps.Store.CreateFiles(t.deps.InternalKey, t.deps.ProjectID, args.ParentID, items)
	if err != nil {
		return fmt.Sprintf("Error creating files: %v", err)
	}

	var created, failed []store.CreateFileResult
	for _, result := range results {
		if result.Err == "" {
			created = append(created, result)
		} else {
			failed = append(failed, result)
		}
	}

	response := fmt.Sprintf("Successfully created %d file(s).", len(created))
	if len(created) > 0 {
		names := make([]string, 0, len(created))
		for _, file := range created {
			names = append(names, file.Name)
		}
		response += ": " + strings.Join(names, ", ")
	}
	if len(failed) > 0 {
		parts := make([]string, 0, len(failed))
		for _, file := range failed {
			parts = append(parts, fmt.Sprintf("%s - (%s)", file.Name, file.Err))
		}
		response += fmt.Sprintf(" Failed: %s file(s).", strings.Join(parts, ", "))
	}
	return response
}
