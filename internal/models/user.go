// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"
)

// User is an account that owns recipes, tags and ingredients.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Email       string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Password    string    `gorm:"not null" json:"-"`
	IsActive    bool      `gorm:"not null;default:true" json:"-"`
	IsStaff     bool      `gorm:"not null;default:false" json:"-"`
	IsSuperuser bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// NormalizeEmail lower-cases the domain part of an address and keeps the
// local part as typed, so "TeSt@EXAMPLE.COM" becomes "TeSt@example.com".
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
