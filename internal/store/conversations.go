package store

import (
	"fmt"

	"codeforge/server/internal/db"
)

func (s *Store) GetConversation(key, conversationID string) (*db.Conversation, error) {
	if err := s.checkKey(key); err != nil {
		return nil, err
	}
	var conversation db.Conversation
	if err := s.gdb.First(&conversation, "conversation_id = ?", conversationID).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
		}
		return nil, err
	}
	return &conversation, nil
}

func (s *Store) UpdateConversationTitle(key, conversationID, title string) error {
	if err := s.checkKey(key); err != nil {
		return err
	}
	res := s.gdb.Model(&db.Conversation{}).
		Where("conversation_id = ?", conversationID).
		Updates(map[string]any{
			"title":      title,
			"updated_at": s.nowUnixMilli(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}
	return nil
}
