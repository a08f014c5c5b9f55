package models

import "time"

// SettingsID is the primary key of the single settings row.
const SettingsID uint = 1

// Settings holds school-wide preferences. CurrentSession and CurrentTerm scope
// every score, fee and payment lookup.
type Settings struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SchoolName     string    `gorm:"size:255" json:"school_name"`
	CurrentSession string    `gorm:"size:32;not null" json:"current_session"`
	CurrentTerm    string    `gorm:"size:32;not null" json:"current_term"`
	UpdatedAt      time.Time `json:"updated_at"`
}
