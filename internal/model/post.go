package model

import (
	"time"

	"gorm.io/gorm"
)

type Post struct {
	ID     string `gorm:"primaryKey" json:"id"`
	UserID string `gorm:"index; not null" json:"user_id"`

	ImageURL    string `json:"image_url"`
	Description string `json:"description"`
	Alt         string `json:"alt"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
