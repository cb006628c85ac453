// Package model defines database models
package model

import "time"

type User struct {
	ID            string `gorm:"primaryKey" json:"id"`
	Name          string `gorm:"not null" json:"name"`
	Email         string `gorm:"unique; not null" json:"email"`
	PasswordHash  string `gorm:"not null" json:"-"`
	Active        bool   `gorm:"default:true" json:"-"`
	EmailVerified bool   `gorm:"default:false" json:"email_verified"`

	// Set while a password reset is pending, cleared on use or expiry
	ResetToken          *string    `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`

	Media []Media `gorm:"foreignKey:UserID" json:"-"`
	Posts []Post  `gorm:"foreignKey:UserID" json:"-"`
}
