package model

import (
	"time"

	"gorm.io/gorm"
)

// AI tagging states. A record sits in StatusPending until a worker
// picks it up and always ends in StatusCompleted or StatusFailed.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

type Media struct {
	ID     string `gorm:"primaryKey" json:"id"`
	UserID string `gorm:"index; not null" json:"-"`

	// Different users may upload files with the same name so the
	// stored object lives under a generated key instead
	StorageKey string `gorm:"not null" json:"storage_key"`
	Filename   string `gorm:"not null" json:"filename"`
	MediaType  string `gorm:"index; not null" json:"media_type"`
	MimeType   string `json:"mime_type"`
	Size       int64  `json:"size"`

	Description   string      `json:"description"`
	AITags        StringSlice `json:"ai_tags"`
	AIStatus      string      `gorm:"index; default:pending" json:"ai_status"`
	AIError       string      `json:"-"`
	AIProcessedAt *time.Time  `json:"ai_processed_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
