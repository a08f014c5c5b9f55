package models

import (
	"time"

	"gorm.io/datatypes"
)

// ClassStage determines which preset subject list a class falls back to.
type ClassStage string

const (
	// ClassStagePreschool covers play group, reception, nursery and kindergarten classes.
	ClassStagePreschool ClassStage = "preschool"
	// ClassStagePrimary covers every other class.
	ClassStagePrimary ClassStage = "primary"
)

// Class groups students for ranking and fee purposes.
type Class struct {
	ID        uint                        `gorm:"primaryKey" json:"id"`
	Name      string                      `gorm:"size:128;uniqueIndex;not null" json:"name"`
	Stage     ClassStage                  `gorm:"size:16;not null" json:"stage"`
	Subjects  datatypes.JSONSlice[string] `gorm:"type:json" json:"subjects"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

// HasExplicitSubjects reports whether the class overrides its stage preset.
func (c Class) HasExplicitSubjects() bool {
	return len(c.Subjects) > 0
}
