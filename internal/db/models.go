package db

type Project struct {
	ProjectID     string `gorm:"column:project_id;primaryKey"`
	Name          string `gorm:"column:name;not null;default:''"`
	OwnerID       string `gorm:"column:owner_id;not null;default:''"`
	ImportStatus  string `gorm:"column:import_status;not null;default:''"`
	ExportStatus  string `gorm:"column:export_status;not null;default:''"`
	ExportRepoURL string `gorm:"column:export_repo_url;not null;default:''"`
	UpdatedAt     int64  `gorm:"column:updated_at;not null;default:0"`
}

func (Project) TableName() string { return "projects" }

type Conversation struct {
	ConversationID string `gorm:"column:conversation_id;primaryKey"`
	ProjectID      string `gorm:"column:project_id;not null"`
	Title          string `gorm:"column:title;not null;default:''"`
	UpdatedAt      int64  `gorm:"column:updated_at;not null;default:0"`
}

func (Conversation) TableName() string { return "conversations" }

type Message struct {
	MessageID      string `gorm:"column:message_id;primaryKey"`
	ConversationID string `gorm:"column:conversation_id;not null"`
	ProjectID      string `gorm:"column:project_id;not null"`
	Role           string `gorm:"column:role;not null;default:''"`
	Content        string `gorm:"column:content;not null;default:''"`
	Status         string `gorm:"column:status;not null;default:''"`
	CreatedAt      int64  `gorm:"column:created_at;not null;default:0"`
}

func (Message) TableName() string { return "messages" }

// File rows model both files and folders of a project's virtual tree.
// ParentID is empty for root entries. Content and StorageID are mutually
// exclusive: text files carry content inline, binary files reference a blob.
type File struct {
	FileID    string `gorm:"column:file_id;primaryKey"`
	ProjectID string `gorm:"column:project_id;not null"`
	ParentID  string `gorm:"column:parent_id;not null;default:''"`
	Name      string `gorm:"column:name;not null"`
	Type      string `gorm:"column:type;not null"`
	Content   string `gorm:"column:content;not null;default:''"`
	StorageID string `gorm:"column:storage_id;not null;default:''"`
	UpdatedAt int64  `gorm:"column:updated_at;not null;default:0"`
}

func (File) TableName() string { return "files" }

type Blob struct {
	BlobID    string `gorm:"column:blob_id;primaryKey"`
	Data      []byte `gorm:"column:data"`
	CreatedAt int64  `gorm:"column:created_at;not null;default:0"`
}

func (Blob) TableName() string { return "blobs" }

// WorkflowStep persists one completed step result per (run, step) so a
// retried run returns the cached result instead of re-executing.
type WorkflowStep struct {
	RunID       string `gorm:"column:run_id;primaryKey"`
	StepName    string `gorm:"column:step_name;primaryKey"`
	ResultJSON  string `gorm:"column:result_json;not null;default:''"`
	CompletedAt int64  `gorm:"column:completed_at;not null;default:0"`
}

func (WorkflowStep) TableName() string { return "workflow_steps" }
