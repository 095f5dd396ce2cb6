package store

import (
	"fmt"

	"codeforge/server/internal/db"
)

// PutBlob stores binary data and returns the storage id referenced by
// binary file entries.
func (s *Store) PutBlob(key string, data []byte) (string, error) {
	if err := s.checkKey(key); err != nil {
		return "", err
	}
	blob := db.Blob{
		BlobID:    newID(),
		Data:      data,
		CreatedAt: s.nowUnixMilli(),
	}
	if err := s.gdb.Create(&blob).Error; err != nil {
		return "", err
	}
	return blob.BlobID, nil
}

func (s *Store) BlobData(key, blobID string) ([]byte, error) {
	if err := s.checkKey(key); err != nil {
		return nil, err
	}
	var blob db.Blob
	if err := s.gdb.First(&blob, "blob_id = ?", blobID).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, fmt.Errorf("blob %s: %w", blobID, ErrNotFound)
		}
		return nil, err
	}
	return blob.Data, nil
}

func (s *Store) DeleteBlob(key, blobID string) error {
	if err := s.checkKey(key); err != nil {
		return err
	}
	return s.deleteBlobRow(blobID)
}

func (s *Store) deleteBlobRow(blobID string) error {
	return s.gdb.Delete(&db.Blob{}, "blob_id = ?", blobID).Error
}

func blobURLPath(blobID string) string {
	return "/api/blobs/" + blobID
}
