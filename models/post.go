package models

import "time"

// Post publication statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusScheduled = "scheduled"
	StatusArchived  = "archived"
)

// Post represents a blog post owned by a user, optionally categorized.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"index;not null" json:"user_id"`
	CategoryID  *uint      `gorm:"index" json:"category_id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	PublishedAt *time.Time `gorm:"index:idx_posts_status_published,priority:2" json:"published_at"`
	Status      string     `gorm:"size:16;not null;default:'draft';index:idx_posts_status_published,priority:1" json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Author      *User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"author,omitempty"`
	Category    *Category  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"category,omitempty"`
}

// ValidStatus reports whether s is one of the four publication statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusPublished, StatusScheduled, StatusArchived:
		return true
	}
	return false
}

// DeriveStatus computes the effective status of a post. When publishedAt is
// supplied the timestamp wins: a future date means scheduled, a past date
// means published. Without a timestamp the explicit status is trusted,
// falling back to draft when none was given.
func DeriveStatus(publishedAt *time.Time, explicit string, now time.Time) string {
	if publishedAt != nil {
		if publishedAt.After(now) {
			return StatusScheduled
		}
		return StatusPublished
	}
	if explicit == "" {
		return StatusDraft
	}
	return explicit
}
