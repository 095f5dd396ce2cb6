package httpapi

import (
	"net/http"
	"strings"

	"codeforge/server/internal/store"
	"codeforge/server/internal/workflow"
	"codeforge/server/internal/workflows"
)

func (s *Server) registerMessageRoutes() {
	s.mux.HandleFunc("POST /api/messages", s.authed(s.handleSendMessage))
	s.mux.HandleFunc("POST /api/messages/cancel", s.authed(s.handleCancelMessage))
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationID string `json:"conversationId"`
		Message        string `json:"message"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ConversationID) == "" || strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "bad_request", "conversationId and message are required")
		return
	}

	conversation, err := s.deps.Store.GetConversation(s.deps.InternalKey, req.ConversationID)
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "Conversation not found")
		return
	}
	projectID := conversation.ProjectID

	// Best-effort sweep: cancel whatever is still processing for this
	// project before creating the new placeholder. Partial failure does
	// not block the new message.
	s.cancelProcessing(r, projectID)

	if _, err := s.deps.Store.CreateMessage(s.deps.InternalKey, req.ConversationID, projectID,
		store.RoleUser, req.Message, store.MessageComplete); err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", "failed to record message")
		return
	}
	assistantMessageID, err := s.deps.Store.CreateMessage(s.deps.InternalKey, req.ConversationID, projectID,
		store.RoleAssistant, "", store.MessageProcessing)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", "failed to create assistant message")
		return
	}

	runID := s.deps.Engine.Dispatch(r.Context(), workflow.Event{
		Name: workflows.EventMessageSent,
		Data: map[string]any{
			"messageId":      assistantMessageID,
			"conversationId": req.ConversationID,
			"projectId":      projectID,
			"message":        req.Message,
		},
	})
	s.hub.Publish("message.sent", projectID, map[string]any{
		"message_id": assistantMessageID,
		"run_id":     runID,
	})
	respondOK(w, map[string]any{"runId": runID, "messageId": assistantMessageID})
}

func (s *Server) handleCancelMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MessageID string `json:"messageId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.MessageID) == "" {
		respondError(w, http.StatusBadRequest, "bad_request", "messageId is required")
		return
	}
	message, err := s.deps.Store.GetMessage(s.deps.InternalKey, req.MessageID)
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "Message not found")
		return
	}

	s.deps.Engine.Dispatch(r.Context(), workflow.Event{
		Name: workflows.EventMessageCancel,
		Data: map[string]any{"messageId": req.MessageID},
	})
	if message.Status == store.MessageProcessing {
		if err := s.deps.Store.UpdateMessageStatus(s.deps.InternalKey, req.MessageID, store.MessageCancelled); err != nil {
			s.deps.Logger.Error("failed to mark message cancelled", "message_id", req.MessageID, "error", err)
		}
	}
	s.hub.Publish("message.cancelled", message.ProjectID, map[string]any{
		"message_id": req.MessageID,
	})
	respondOK(w, map[string]any{"messageId": req.MessageID})
}

func (s *Server) cancelProcessing(r *http.Request, projectID string) {
	processing, err := s.deps.Store.ProcessingMessages(s.deps.InternalKey, projectID)
	if err != nil {
		s.deps.Logger.Error("failed to list processing messages", "project_id", projectID, "error", err)
		return
	}
	for _, message := range processing {
		s.deps.Engine.Dispatch(r.Context(), workflow.Event{
			Name: workflows.EventMessageCancel,
			Data: map[string]any{"messageId": message.MessageID},
		})
		if err := s.deps.Store.UpdateMessageStatus(s.deps.InternalKey, message.MessageID, store.MessageCancelled); err != nil {
			s.deps.Logger.Error("failed to mark message cancelled", "message_id", message.MessageID, "error", err)
		}
	}
}
