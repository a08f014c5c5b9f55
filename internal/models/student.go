package models

import "time"

// Student is a learner on the school roster. ClassID changes on enrollment moves.
type Student struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	AdmissionNo   string    `gorm:"size:64;index" json:"admission_no"`
	ClassID       uint      `gorm:"not null;index" json:"class_id"`
	Gender        string    `gorm:"size:16" json:"gender"`
	DateOfBirth   string    `gorm:"size:10" json:"date_of_birth"`
	GuardianName  string    `gorm:"size:255" json:"guardian_name"`
	GuardianPhone string    `gorm:"size:32" json:"guardian_phone"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
