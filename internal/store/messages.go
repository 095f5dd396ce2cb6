package store

import (
	"fmt"

	"codeforge/server/internal/db"
)

// CreateMessage inserts a message and bumps the conversation's updatedAt.
func (s *Store) CreateMessage(key, conversationID, projectID, role, content, status string) (string, error) {
	if err := s.checkKey(key); err != nil {
		return "", err
	}
	now := s.nowUnixMilli()
	message := db.Message{
		MessageID:      newID(),
		ConversationID: conversationID,
		ProjectID:      projectID,
		Role:           role,
		Content:        content,
		Status:         status,
		CreatedAt:      now,
	}
	if err := s.gdb.Create(&message).Error; err != nil {
		return "", err
	}
	if err := s.gdb.Model(&db.Conversation{}).
		Where("conversation_id = ?", conversationID).
		Update("updated_at", now).Error; err != nil {
		return "", err
	}
	return message.MessageID, nil
}

func (s *Store) GetMessage(key, messageID string) (*db.Message, error) {
	if err := s.checkKey(key); err != nil {
		return nil, err
	}
	var message db.Message
	if err := s.gdb.First(&message, "message_id = ?", messageID).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, fmt.Errorf("message %s: %w", messageID, ErrNotFound)
		}
		return nil, err
	}
	return &message, nil
}

// UpdateMessageContent replaces the message content and marks it complete.
// Failure handlers rely on the complete transition so a failed run never
// leaves a message stuck in processing.
func (s *Store) UpdateMessageContent(key, messageID, content string) error {
	if err := s.checkKey(key); err != nil {
		return err
	}
	return s.patchMessage(messageID, map[string]any{
		"content": content,
		"status":  MessageComplete,
	})
}

func (s *Store) UpdateMessageStatus(key, messageID, status string) error {
	if err := s.checkKey(key); err != nil {
		return err
	}
	return s.patchMessage(messageID, map[string]any{"status": status})
}

// ProcessingMessages returns all messages of a project still in processing
// state. Callers sweep these before creating a new assistant placeholder.
func (s *Store) ProcessingMessages(key, projectID string) ([]db.Message, error) {
	if err := s.checkKey(key); err != nil {
		return nil, err
	}
	var messages []db.Message
	if err := s.gdb.
		Where("project_id = ? AND status = ?", projectID, MessageProcessing).
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// RecentMessages returns the last limit messages of a conversation in
// chronological order.
func (s *Store) RecentMessages(key, conversationID string, limit int) ([]db.Message, error) {
	if err := s.checkKey(key); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	var messages []db.Message
	if err := s.gdb.
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

func (s *Store) patchMessage(messageID string, patch map[string]any) error {
	res := s.gdb.Model(&db.Message{}).Where("message_id = ?", messageID).Updates(patch)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("message %s: %w", messageID, ErrNotFound)
	}
	return nil
}
