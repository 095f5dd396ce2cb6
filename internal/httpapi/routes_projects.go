package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"codeforge/server/internal/store"
	"codeforge/server/internal/workflow"
	"codeforge/server/internal/workflows"
)

func (s *Server) registerProjectRoutes() {
	s.mux.HandleFunc("POST /api/projects/create-with-prompt", s.authed(s.handleCreateWithPrompt))
	s.mux.HandleFunc("GET /api/projects", s.authed(s.handleListProjects))
	s.mux.HandleFunc("DELETE /api/projects/{id}", s.authed(s.handleDeleteProject))
}

// handleCreateWithPrompt creates a fresh project plus conversation and runs
// the prompt through the message flow in one request.
func (s *Server) handleCreateWithPrompt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt  string `json:"prompt"`
		OwnerID string `json:"ownerId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		respondError(w, http.StatusBadRequest, "bad_request", "prompt is required")
		return
	}

	projectID, conversationID, err := s.deps.Store.CreateProjectWithConversation(
		s.deps.InternalKey, randomProjectName(), req.OwnerID, store.DefaultConversationTitle)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", "failed to create project")
		return
	}
	if _, err := s.deps.Store.CreateMessage(s.deps.InternalKey, conversationID, projectID,
		store.RoleUser, req.Prompt, store.MessageComplete); err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", "failed to record message")
		return
	}
	assistantMessageID, err := s.deps.Store.CreateMessage(s.deps.InternalKey, conversationID, projectID,
		store.RoleAssistant, "", store.MessageProcessing)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", "failed to create assistant message")
		return
	}

	runID := s.deps.Engine.Dispatch(r.Context(), workflow.Event{
		Name: workflows.EventMessageSent,
		Data: map[string]any{
			"messageId":      assistantMessageID,
			"conversationId": conversationID,
			"projectId":      projectID,
			"message":        req.Prompt,
		},
	})
	s.hub.Publish("project.created", projectID, map[string]any{
		"conversation_id": conversationID,
		"run_id":          runID,
	})
	respondOK(w, map[string]any{
		"projectId":      projectID,
		"conversationId": conversationID,
		"messageId":      assistantMessageID,
		"runId":          runID,
	})
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if err := s.deps.Store.DeleteProject(s.deps.InternalKey, projectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "Project not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "store_error", "failed to delete project")
		return
	}
	s.hub.Publish("project.deleted", projectID, nil)
	respondOK(w, map[string]any{"projectId": projectID})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("ownerId")
	projects, err := s.deps.Store.ProjectsByOwner(s.deps.InternalKey, ownerID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", "failed to list projects")
		return
	}
	out := make([]map[string]any, 0, len(projects))
	for _, project := range projects {
		out = append(out, map[string]any{
			"projectId":     project.ProjectID,
			"name":          project.Name,
			"importStatus":  project.ImportStatus,
			"exportStatus":  project.ExportStatus,
			"exportRepoUrl": project.ExportRepoURL,
			"updatedAt":     project.UpdatedAt,
		})
	}
	respondOK(w, out)
}
