package db

import (
	"errors"

	"gorm.io/gorm"
)

// SyncSchema creates/updates tables and indexes from models.
func SyncSchema(gdb *gorm.DB) error {
	if gdb == nil {
		return errors.New("db is required")
	}
	if err := gdb.AutoMigrate(
		&Project{},
		&Conversation{},
		&Message{},
		&File{},
		&Blob{},
		&WorkflowStep{},
	); err != nil {
		return err
	}
	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects(owner_id);`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_project ON conversations(project_id, updated_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_project_status ON messages(project_id, status);`,
		`CREATE INDEX IF NOT EXISTS idx_files_project ON files(project_id);`,
		`CREATE INDEX IF NOT EXISTS idx_files_project_parent ON files(project_id, parent_id);`,
	} {
		if err := gdb.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
