// Package models contains the persisted entities of the blog domain.
package models

import (
	"time"
)

// User is an account. Rows are soft-deleted by setting DeletedAt; the email
// is unique among rows that are not deleted.
type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `gorm:"index" json:"deleted_at"`
	Email          string     `gorm:"size:128;not null;uniqueIndex:idx_users__email__deleted_at,where:deleted_at IS NULL" json:"email"`
	Name           string     `gorm:"size:64;not null" json:"name"`
	HashedPassword string     `gorm:"size:256;not null" json:"-"`
}

var userSchema = NewSchema("users", map[string]Kind{
	"id":              KindInt,
	"created_at":      KindTime,
	"updated_at":      KindTime,
	"email":           KindString,
	"name":            KindString,
	"hashed_password": KindString,
}, true)

func (User) Schema() *Schema { return userSchema }

// IsDeleted reports whether the soft-delete marker is set.
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}
