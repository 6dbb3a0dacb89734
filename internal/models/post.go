package models

import (
	"time"
)

// Post is a blog entry. Its like count is not stored; it is always derived
// from the likes table at read time.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Title     string    `gorm:"not null;index:idx_posts__text__title,priority:2" json:"title"`
	Text      string    `gorm:"not null;index:idx_posts__text__title,priority:1" json:"text"`
	Tags      Tags      `gorm:"not null" json:"tags"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Author    *User     `gorm:"foreignKey:UserID" json:"author,omitempty"`
}

var postSchema = NewSchema("posts", map[string]Kind{
	"id":         KindInt,
	"created_at": KindTime,
	"updated_at": KindTime,
	"title":      KindString,
	"text":       KindString,
	"tags":       KindStrings,
	"user_id":    KindInt,
}, false)

func (Post) Schema() *Schema { return postSchema }
