package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"codeforge/server/internal/agent"
	"codeforge/server/internal/store"
)

type ListFilesTool struct {
	deps Deps
}

func (t *ListFilesTool) Name() string { return "list-files" }

func (t *ListFilesTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Type:        "function",
		Name:        t.Name(),
		Description: "Lists all files and folders from the project. Returns name, type, ID, and parentId for each item. Items with parentId null are at root level. Use the parentId to understand the folder structure: items with the same parentId are in the same folder.",
		Parameters: map[string]any{
			"type":                 "object",
			"properties":           map[string]any{},
			"additionalProperties": false,
		},
	}
}

type listedFile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	ParentID any    `json:"parentId"`
}

func (t *ListFilesTool) Execute(ctx context.Context, input json.RawMessage) string {
	if msg := validateInput(t.Spec(), input); msg != "" {
		return msg
	}
	files, err := t.deps.Store.ProjectFiles(t.deps.InternalKey, t.deps.ProjectID)
	if err != nil {
		return fmt.Sprintf("Error listing files: %v", err)
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].Type != files[j].Type {
			return files[i].Type == store.FileTypeFolder
		}
		return files[i].Name < files[j].Name
	})
	out := make([]listedFile, 0, len(files))
	for _, file := range files {
		entry := listedFile{ID: file.FileID, Name: file.Name, Type: file.Type}
		if file.ParentID != "" {
			entry.ParentID = file.ParentID
		}
		out = append(out, entry)
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf("Error listing files: %v", err)
	}
	return string(raw)
}
