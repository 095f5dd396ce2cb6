// Package tools implements the file and scraping operations exposed to the
// coding agent. Every tool returns its outcome as text; failures are
// "Error: ..." strings the model reads and reacts to, never Go errors.
package tools

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"codeforge/server/internal/agent"
	"codeforge/server/internal/scrape"
	"codeforge/server/internal/store"
)

// Deps binds one tool set to a project and its backing services. A fresh
// registry is built per workflow run so every tool is already scoped to the
// right project when the model calls it.
type Deps struct {
	Store       *store.Store
	InternalKey string
	ProjectID   string
	Scraper     scrape.Scraper
}

func NewRegistry(deps Deps) (*agent.Registry, error) {
	registry := agent.NewRegistry()
	all := []agent.Tool{
		&ListFilesTool{deps: deps},
		&ReadFileTool{deps: deps},
		&UpdateFileTool{deps: deps},
		&CreateFilesTool{deps: deps},
		&CreateFolderTool{deps: deps},
		&DeleteFilesTool{deps: deps},
		&RenameFileTool{deps: deps},
		&ScrapeURLsTool{deps: deps},
	}
	for _, tool := range all {
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// validateInput checks the raw arguments against the tool's declared schema.
// Returns "" when valid, otherwise the error text to hand back to the model.
func validateInput(spec agent.ToolSpec, input json.RawMessage) string {
	if len(bytes.TrimSpace(input)) == 0 {
		input = json.RawMessage(`{}`)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(spec.Parameters),
		gojsonschema.NewBytesLoader(input),
	)
	if err != nil {
		return fmt.Sprintf("Error: invalid tool arguments: %v", err)
	}
	if !result.Valid() {
		return fmt.Sprintf("Error: %s", result.Errors()[0].String())
	}
	return ""
}

func decodeInput(input json.RawMessage, dest any) string {
	if len(bytes.TrimSpace(input)) == 0 {
		input = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(input, dest); err != nil {
		return fmt.Sprintf("Error: invalid tool arguments: %v", err)
	}
	return ""
}

// checkParent resolves a parentId argument. Empty string means root and is
// always valid; otherwise the id must name an existing folder.
func checkParent(deps Deps, parentID string) string {
	if parentID == "" {
		return ""
	}
	parent, err := deps.Store.GetFile(deps.InternalKey, parentID)
	if err != nil {
		return fmt.Sprintf("Error: Parent folder with Id %s not found. Use the listFiles to get Valid folderIDs or Use empty string to create files at root level.", parentID)
	}
	if parent.Type != store.FileTypeFolder {
		return fmt.Sprintf("Error: Parent folder with Id %s is not a folder. Use folderIDs as parentId to create files under folder.", parentID)
	}
	return ""
}
