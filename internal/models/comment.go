package models

import (
	"time"
)

// Comment belongs to a post and disappears with it.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Text      string    `gorm:"not null" json:"text"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	Author    *User     `gorm:"foreignKey:UserID" json:"author,omitempty"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"post,omitempty"`
}

var commentSchema = NewSchema("comments", map[string]Kind{
	"id":         KindInt,
	"created_at": KindTime,
	"updated_at": KindTime,
	"text":       KindString,
	"user_id":    KindInt,
	"post_id":    KindInt,
}, false)

func (Comment) Schema() *Schema { return commentSchema }
