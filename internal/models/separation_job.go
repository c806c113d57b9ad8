package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobStatus is the lifecycle state of a separation job.
// Valid transitions: pending -> processing -> {completed, failed}, plus the
// synchronous fast path pending -> completed. Terminal states are final.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// ResultFile is one separated stem produced by the processing service.
type ResultFile struct {
	Stem string `json:"stem"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// SeparationJob is one unit of work submitted to the external separation
// service. CreditsUsed is fixed at submission and never changes afterwards,
// regardless of later tier changes.
type SeparationJob struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;index:idx_jobs_user" json:"user_id"`
	AudioFileID   string         `gorm:"type:varchar(100);not null;index" json:"audio_file_id"`
	ProviderJobID string         `gorm:"type:varchar(100);index" json:"provider_job_id,omitempty"`
	Status        JobStatus      `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	SelectedStems pq.StringArray `gorm:"type:text[]" json:"selected_stems"`
	Model         string         `gorm:"type:varchar(30);not null" json:"model"`
	Quality       string         `gorm:"type:varchar(10);not null;default:'standard'" json:"quality"`
	Progress      int            `gorm:"not null;default:0" json:"progress"`
	ResultFiles   datatypes.JSON `gorm:"type:jsonb" json:"result_files,omitempty"`
	CreditsUsed   float64        `gorm:"type:decimal(12,4);not null;default:0" json:"credits_used"`
	Error         string         `gorm:"type:text" json:"error,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`

	// Relationship
	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name
func (SeparationJob) TableName() string {
	return "separation_jobs"
}

// BeforeCreate sets UUID before creating
func (j *SeparationJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

// Results decodes the stored result files. An empty or missing JSONB column
// decodes to nil.
func (j *SeparationJob) Results() []ResultFile {
	if len(j.ResultFiles) == 0 {
		return nil
	}
	var files []ResultFile
	if err := json.Unmarshal(j.ResultFiles, &files); err != nil {
		return nil
	}
	return files
}

// HasResults reports whether the processing service delivered output. The
// presence of results is authoritative over the persisted status field: a job
// with results is done even if a stale row still reads pending or processing.
func (j *SeparationJob) HasResults() bool {
	return len(j.Results()) > 0
}
