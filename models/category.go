package models

import "time"

// Category is a node in the self-referencing category tree. Names are
// globally unique, not per-parent. Deleting a category cascades to its
// descendants at the storage layer.
type Category struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"size:255;not null;uniqueIndex" json:"name"`
	ParentID      *uint      `gorm:"index" json:"parent_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Subcategories []Category `gorm:"foreignKey:ParentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"subcategories,omitempty"`
}
