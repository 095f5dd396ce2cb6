// Package store is the single durable source of truth: projects,
// conversations, messages, the virtual file tree, binary blobs, and
// workflow step results. Every externally reachable operation is gated by
// the shared internal key configured at startup.
package store

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInternalKeyUnset    = errors.New("internal key not configured")
	ErrInternalKeyMismatch = errors.New("invalid internal key")
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	MessageProcessing = "processing"
	MessageComplete   = "complete"
	MessageCancelled  = "cancelled"

	FileTypeFile   = "file"
	FileTypeFolder = "folder"

	ImportImporting = "importing"
	ImportCompleted = "completed"
	ImportFailed    = "failed"

	ExportExporting = "exporting"
	ExportCompleted = "completed"
	ExportFailed    = "failed"
	ExportCancelled = "cancelled"
)

// DefaultConversationTitle is the sentinel meaning "title not generated yet".
const DefaultConversationTitle = "New conversation"

type Store struct {
	gdb         *gorm.DB
	internalKey string
	now         func() time.Time
}

func New(gdb *gorm.DB, internalKey string) *Store {
	return &Store{gdb: gdb, internalKey: strings.TrimSpace(internalKey), now: time.Now}
}

func (s *Store) checkKey(key string) error {
	if s.internalKey == "" {
		return ErrInternalKeyUnset
	}
	if key != s.internalKey {
		return ErrInternalKeyMismatch
	}
	return nil
}

func (s *Store) nowUnixMilli() int64 {
	return s.now().UnixMilli()
}

func newID() string {
	return uuid.NewString()
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
