package httpapi

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"codeforge/server/internal/workflow"
	"codeforge/server/internal/workflows"
)

var githubURLPattern = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)`)

func parseGithubURL(url string) (owner, repo string, err error) {
	match := githubURLPattern.FindStringSubmatch(url)
	if match == nil {
		return "", "", fmt.Errorf("invalid GitHub URL")
	}
	return match[1], strings.TrimSuffix(match[2], ".git"), nil
}

func (s *Server) registerGithubRoutes() {
	s.mux.HandleFunc("POST /api/github/import", s.authed(s.handleImport))
	s.mux.HandleFunc("POST /api/github/export", s.authed(s.handleExport))
	s.mux.HandleFunc("POST /api/github/export/cancel", s.authed(s.handleExportCancel))
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL         string `json:"url"`
		OwnerID     string `json:"ownerId"`
		GithubToken string `json:"githubToken"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	owner, repo, err := parseGithubURL(req.URL)
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid GitHub URL")
		return
	}
	if strings.TrimSpace(req.GithubToken) == "" {
		respondError(w, http.StatusBadRequest, "bad_request", "githubToken is required")
		return
	}

	projectID, err := s.deps.Store.CreateProject(s.deps.InternalKey, repo, req.OwnerID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", "failed to create project")
		return
	}
	runID := s.deps.Engine.Dispatch(r.Context(), workflow.Event{
		Name: workflows.EventImportRepo,
		Data: map[string]any{
			"owner":       owner,
			"repo":        repo,
			"projectId":   projectID,
			"githubToken": req.GithubToken,
		},
	})
	s.hub.Publish("project.importing", projectID, map[string]any{"run_id": runID})
	respondOK(w, map[string]any{"runId": runID, "projectId": projectID})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID   string `json:"projectId"`
		RepoName    string `json:"repoName"`
		Visibility  string `json:"visibility"`
		Description string `json:"description"`
		GithubToken string `json:"githubToken"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ProjectID) == "" || strings.TrimSpace(req.RepoName) == "" {
		respondError(w, http.StatusBadRequest, "bad_request", "projectId and repoName are required")
		return
	}
	if req.Visibility != "public" && req.Visibility != "private" {
		respondError(w, http.StatusBadRequest, "bad_request", "visibility must be public or private")
		return
	}
	if strings.TrimSpace(req.GithubToken) == "" {
		respondError(w, http.StatusBadRequest, "bad_request", "githubToken is required")
		return
	}
	if _, err := s.deps.Store.GetProject(s.deps.InternalKey, req.ProjectID); err != nil {
		respondError(w, http.StatusNotFound, "not_found", "Project not found")
		return
	}

	runID := s.deps.Engine.Dispatch(r.Context(), workflow.Event{
		Name: workflows.EventExportRepo,
		Data: map[string]any{
			"projectId":   req.ProjectID,
			"repoName":    req.RepoName,
			"visibility":  req.Visibility,
			"description": req.Description,
			"githubToken": req.GithubToken,
		},
	})
	s.hub.Publish("project.exporting", req.ProjectID, map[string]any{"run_id": runID})
	respondOK(w, map[string]any{"runId": runID})
}

func (s *Server) handleExportCancel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID string `json:"projectId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ProjectID) == "" {
		respondError(w, http.StatusBadRequest, "bad_request", "projectId is required")
		return
	}
	s.deps.Engine.Dispatch(r.Context(), workflow.Event{
		Name: workflows.EventExportCancel,
		Data: map[string]any{"projectId": req.ProjectID},
	})
	s.hub.Publish("project.export_cancelled", req.ProjectID, nil)
	respondOK(w, map[string]any{"projectId": req.ProjectID})
}
