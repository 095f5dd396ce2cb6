package store

import (
	"fmt"

	"codeforge/server/internal/db"
)

func (s *Store) GetProject(key, projectID string) (*db.Project, error) {
	if err := s.checkKey(key); err != nil {
		return nil, err
	}
	var project db.Project
	if err := s.gdb.First(&project, "project_id = ?", projectID).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
		}
		return nil, err
	}
	return &project, nil
}

// CreateProject creates a project in importing state, used by the GitHub
// import flow where files arrive asynchronously.
func (s *Store) CreateProject(key, name, ownerID string) (string, error) {
	if err := s.checkKey(key); err != nil {
		return "", err
	}
	project := db.Project{
		ProjectID:    newID(),
		Name:         name,
		OwnerID:      ownerID,
		ImportStatus: ImportImporting,
		UpdatedAt:    s.nowUnixMilli(),
	}
	if err := s.gdb.Create(&project).Error; err != nil {
		return "", err
	}
	return project.ProjectID, nil
}

func (s *Store) CreateProjectWithConversation(key, projectName, ownerID, conversationTitle string) (projectID, conversationID string, err error) {
	if err := s.checkKey(key); err != nil {
		return "", "", err
	}
	now := s.nowUnixMilli()
	project := db.Project{
		ProjectID: newID(),
		Name:      projectName,
		OwnerID:   ownerID,
		UpdatedAt: now,
	}
	conversation := db.Conversation{
		ConversationID: newID(),
		ProjectID:      project.ProjectID,
		Title:          conversationTitle,
		UpdatedAt:      now,
	}
	if err := s.gdb.Create(&project).Error; err != nil {
		return "", "", err
	}
	if err := s.gdb.Create(&conversation).Error; err != nil {
		return "", "", err
	}
	return project.ProjectID, conversation.ConversationID, nil
}

func (s *Store) ProjectsByOwner(key, ownerID string) ([]db.Project, error) {
	if err := s.checkKey(key); err != nil {
		return nil, err
	}
	var projects []db.Project
	if err := s.gdb.Order("updated_at DESC").Find(&projects, "owner_id = ?", ownerID).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// DeleteProject removes the project and everything under it: files and
// their blobs through Cleanup, then messages, conversations and the
// project row itself.
func (s *Store) DeleteProject(key, projectID string) error {
	if err := s.checkKey(key); err != nil {
		return err
	}
	if _, err := s.GetProject(key, projectID); err != nil {
		return err
	}
	if _, err := s.Cleanup(key, projectID); err != nil {
		return err
	}
	if err := s.gdb.Delete(&db.Message{}, "project_id = ?", projectID).Error; err != nil {
		return err
	}
	if err := s.gdb.Delete(&db.Conversation{}, "project_id = ?", projectID).Error; err != nil {
		return err
	}
	return s.gdb.Delete(&db.Project{}, "project_id = ?", projectID).Error
}

func (s *Store) UpdateImportStatus(key, projectID, status string) error {
	if err := s.checkKey(key); err != nil {
		return err
	}
	return s.patchProject(projectID, map[string]any{
		"import_status": status,
		"updated_at":    s.nowUnixMilli(),
	})
}

func (s *Store) UpdateExportStatus(key, projectID, status, repoURL string) error {
	if err := s.checkKey(key); err != nil {
		return err
	}
	patch := map[string]any{
		"export_status": status,
		"updated_at":    s.nowUnixMilli(),
	}
	if repoURL != "" {
		patch["export_repo_url"] = repoURL
	}
	return s.patchProject(projectID, patch)
}

func (s *Store) patchProject(projectID string, patch map[string]any) error {
	res := s.gdb.Model(&db.Project{}).Where("project_id = ?", projectID).Updates(patch)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	return nil
}
