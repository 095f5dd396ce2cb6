// Package workflows wires the durable functions triggered by inbound
// events: message processing, GitHub import and GitHub export.
package workflows

import (
	"log/slog"
	"net/http"

	"codeforge/server/internal/agent"
	"codeforge/server/internal/githubx"
	"codeforge/server/internal/scrape"
	"codeforge/server/internal/store"
	"codeforge/server/internal/workflow"
)

// Trigger and cancellation event names.
const (
	EventMessageSent   = "message/sent"
	EventMessageCancel = "message/cancel"
	EventImportRepo    = "github/import.repo"
	EventExportRepo    = "github/export.repo"
	EventExportCancel  = "github/export.cancel"
)

// GitHubFactory builds a GitHub client for the token carried in the event
// payload. Tests inject fakes through it.
type GitHubFactory func(token string) githubx.Client

// Deps carries everything the workflow handlers need. InternalKey gates
// every store call; an empty key fails runs non-retriably.
type Deps struct {
	Store       *store.Store
	InternalKey string
	LLM         agent.Client
	Scraper     scrape.Scraper
	GitHub      GitHubFactory
	Logger      *slog.Logger
	LoopOptions agent.LoopOptions
}

func defaultGitHubFactory(token string) githubx.Client {
	return githubx.New(token, http.DefaultClient)
}

// RegisterAll registers every workflow function on the engine.
func RegisterAll(engine *workflow.Engine, deps Deps) error {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.GitHub == nil {
		deps.GitHub = defaultGitHubFactory
	}
	if err := engine.Register(processMessageFunction(deps)); err != nil {
		return err
	}
	if err := engine.Register(importRepoFunction(deps)); err != nil {
		return err
	}
	return engine.Register(exportRepoFunction(deps))
}
