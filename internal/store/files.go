package store

import (
	"fmt"

	"codeforge/server/internal/db"
)

type NewFile struct {
	Name    string
	Content string
}

type CreateFileResult struct {
	Name   string
	FileID string
	Err    string
}

type FileWithURL struct {
	db.File
	StorageURL string
}

func (s *Store) ProjectFiles(key, projectID string) ([]db.File, error) {
	if err := s.checkKey(key); err != nil {
		return nil, err
	}
	var files []db.File
	if err := s.gdb.Find(&files, "project_id = ?", projectID).Error; err != nil {
		return nil, err
	}
	return files, nil
}

// ProjectFilesWithURLs resolves a serving URL for every binary file.
func (s *Store) ProjectFilesWithURLs(key, projectID string) ([]FileWithURL, error) {
	files, err := s.ProjectFiles(key, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]FileWithURL, 0, len(files))
	for _, file := range files {
		entry := FileWithURL{File: file}
		if file.StorageID != "" {
			entry.StorageURL = blobURLPath(file.StorageID)
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *Store) GetFile(key, fileID string) (*db.File, error) {
	if err := s.checkKey(key); err != nil {
		return nil, err
	}
	var file db.File
	if err := s.gdb.First(&file, "file_id = ?", fileID).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, fmt.Errorf("file %s: %w", fileID, ErrNotFound)
		}
		return nil, err
	}
	return &file, nil
}

func (s *Store) UpdateFile(key, fileID, content string) error {
	if err := s.checkKey(key); err != nil {
		return err
	}
	res := s.gdb.Model(&db.File{}).Where("file_id = ?", fileID).Updates(map[string]any{
		"content":    content,
		"updated_at": s.nowUnixMilli(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("file %s: %w", fileID, ErrNotFound)
	}
	return nil
}

// CreateFile creates one text file. Duplicate (name, type=file) within the
// same (project, parent) scope is rejected.
func (s *Store) CreateFile(key, projectID, parentID, name, content string) (string, error) {
	if err := s.checkKey(key); err != nil {
		return "", err
	}
	siblings, err := s.scopeEntries(projectID, parentID)
	if err != nil {
		return "", err
	}
	if scopeHas(siblings, name, FileTypeFile) {
		return "", fmt.Errorf("file %s %w", name, ErrAlreadyExists)
	}
	file := db.File{
		FileID:    newID(),
		ProjectID: projectID,
		ParentID:  parentID,
		Name:      name,
		Type:      FileTypeFile,
		Content:   content,
		UpdatedAt: s.nowUnixMilli(),
	}
	if err := s.gdb.Create(&file).Error; err != nil {
		return "", err
	}
	return file.FileID, nil
}

// CreateFiles creates a batch of text files in one parent scope, reporting
// per-file created/skipped. Each candidate is checked against the scope
// individually; files already present by (name, file) are skipped.
func (s *Store) CreateFiles(key, projectID, parentID string, files []NewFile) ([]CreateFileResult, error) {
	if err := s.checkKey(key); err != nil {
		return nil, err
	}
	siblings, err := s.scopeEntries(projectID, parentID)
	if err != nil {
		return nil, err
	}
	taken := map[string]string{}
	for _, sibling := range siblings {
		if sibling.Type == FileTypeFile {
			taken[sibling.Name] = sibling.FileID
		}
	}
	results := make([]CreateFileResult, 0, len(files))
	for _, item := range files {
		if existingID, ok := taken[item.Name]; ok {
			results = append(results, CreateFileResult{
				Name:   item.Name,
				FileID: existingID,
				Err:    "File already exists",
			})
			continue
		}
		file := db.File{
			FileID:    newID(),
			ProjectID: projectID,
			ParentID:  parentID,
			Name:      item.Name,
			Type:      FileTypeFile,
			Content:   item.Content,
			UpdatedAt: s.nowUnixMilli(),
		}
		if err := s.gdb.Create(&file).Error; err != nil {
			return nil, err
		}
		taken[item.Name] = file.FileID
		results = append(results, CreateFileResult{Name: item.Name, FileID: file.FileID})
	}
	return results, nil
}

func (s *Store) CreateFolder(key, projectID, parentID, name string) (string, error) {
	if err := s.checkKey(key); err != nil {
		return "", err
	}
	siblings, err := s.scopeEntries(projectID, parentID)
	if err != nil {
		return "", err
	}
	if scopeHas(siblings, name, FileTypeFolder) {
		return "", fmt.Errorf("folder %s %w", name, ErrAlreadyExists)
	}
	folder := db.File{
		FileID:    newID(),
		ProjectID: projectID,
		ParentID:  parentID,
		Name:      name,
		Type:      FileTypeFolder,
		UpdatedAt: s.nowUnixMilli(),
	}
	if err := s.gdb.Create(&folder).Error; err != nil {
		return "", err
	}
	return folder.FileID, nil
}

// CreateBinaryFile creates a file entry referencing a stored blob instead of
// inline content.
func (s *Store) CreateBinaryFile(key, projectID, parentID, name, storageID string) (string, error) {
	if err := s.checkKey(key); err != nil {
		return "", err
	}
	siblings, err := s.scopeEntries(projectID, parentID)
	if err != nil {
		return "", err
	}
	if scopeHas(siblings, name, FileTypeFile) {
		return "", fmt.Errorf("file %s %w", name, ErrAlreadyExists)
	}
	file := db.File{
		FileID:    newID(),
		ProjectID: projectID,
		ParentID:  parentID,
		Name:      name,
		Type:      FileTypeFile,
		StorageID: storageID,
		UpdatedAt: s.nowUnixMilli(),
	}
	if err := s.gdb.Create(&file).Error; err != nil {
		return "", err
	}
	return file.FileID, nil
}

// RenameFile renames unless a sibling of the same type (other than the file
// itself) already carries the new name.
func (s *Store) RenameFile(key, fileID, newName string) error {
	if err := s.checkKey(key); err != nil {
		return err
	}
	file, err := s.GetFile(key, fileID)
	if err != nil {
		return err
	}
	siblings, err := s.scopeEntries(file.ProjectID, file.ParentID)
	if err != nil {
		return err
	}
	for _, sibling := range siblings {
		if sibling.FileID == fileID {
			continue
		}
		if sibling.Name == newName && sibling.Type == file.Type {
			return fmt.Errorf("a %s with name %s %w", file.Type, newName, ErrAlreadyExists)
		}
	}
	return s.gdb.Model(&db.File{}).Where("file_id = ?", fileID).Updates(map[string]any{
		"name":       newName,
		"updated_at": s.nowUnixMilli(),
	}).Error
}

// DeleteFile removes a file, or a folder with its whole subtree, releasing
// blob storage for every binary descendant. The children index is built once
// from the project's files so the traversal never re-queries per level.
func (s *Store) DeleteFile(key, fileID string) error {
	if err := s.checkKey(key); err != nil {
		return err
	}
	root, err := s.GetFile(key, fileID)
	if err != nil {
		return err
	}
	all, err := s.ProjectFiles(key, root.ProjectID)
	if err != nil {
		return err
	}
	children := map[string][]db.File{}
	for _, file := range all {
		children[file.ParentID] = append(children[file.ParentID], file)
	}

	var doomedIDs []string
	var doomedBlobs []string
	var walk func(file db.File)
	walk = func(file db.File) {
		if file.Type == FileTypeFolder {
			for _, child := range children[file.FileID] {
				walk(child)
			}
		}
		if file.StorageID != "" {
			doomedBlobs = append(doomedBlobs, file.StorageID)
		}
		doomedIDs = append(doomedIDs, file.FileID)
	}
	walk(*root)

	for _, blobID := range doomedBlobs {
		if err := s.deleteBlobRow(blobID); err != nil {
			return err
		}
	}
	return s.gdb.Delete(&db.File{}, "file_id IN ?", doomedIDs).Error
}

// Cleanup removes every file of a project and releases all blob storage,
// used before re-importing into an existing project.
func (s *Store) Cleanup(key, projectID string) (int, error) {
	if err := s.checkKey(key); err != nil {
		return 0, err
	}
	files, err := s.ProjectFiles(key, projectID)
	if err != nil {
		return 0, err
	}
	for _, file := range files {
		if file.StorageID != "" {
			if err := s.deleteBlobRow(file.StorageID); err != nil {
				return 0, err
			}
		}
	}
	if err := s.gdb.Delete(&db.File{}, "project_id = ?", projectID).Error; err != nil {
		return 0, err
	}
	return len(files), nil
}

func (s *Store) scopeEntries(projectID, parentID string) ([]db.File, error) {
	var files []db.File
	if err := s.gdb.
		Where("project_id = ? AND parent_id = ?", projectID, parentID).
		Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

func scopeHas(entries []db.File, name, fileType string) bool {
	for _, entry := range entries {
		if entry.Name == name && entry.Type == fileType {
			return true
		}
	}
	return false
}
