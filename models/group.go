package models

import (
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Group is a named category posts may optionally belong to. Groups are
// identified by their slug in URLs.
type Group struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Slug        string `gorm:"size:200;uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	Posts       []Post `gorm:"foreignKey:GroupID" json:"-"`
}

// BeforeCreate derives the slug from the title when none was given.
func (g *Group) BeforeCreate(tx *gorm.DB) error {
	if g.Slug == "" {
		g.Slug = slug.Make(g.Title)
	}
	return nil
}
