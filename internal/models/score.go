package models

import (
	"time"

	"gorm.io/datatypes"
)

// TraitRatings maps an affective or psychomotor trait to a 1..5 rating.
type TraitRatings map[string]int

// ScoreRow holds one subject's components for a student's term record.
// Total, Grade and Comment are derived and must never be set independently.
type ScoreRow struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	ScoreRecordID uint    `gorm:"not null;index" json:"score_record_id"`
	Subject       string  `gorm:"size:128;not null" json:"subject"`
	CA1           float64 `gorm:"column:ca1;not null;default:0" json:"ca1"`
	CA2           float64 `gorm:"column:ca2;not null;default:0" json:"ca2"`
	Exam          float64 `gorm:"not null;default:0" json:"exam"`
	Total         float64 `gorm:"not null;default:0" json:"total"`
	Grade         string  `gorm:"size:2" json:"grade"`
	Comment       string  `gorm:"size:32" json:"comment"`
}

// ScoreRecord is a student's full record for one session and term.
// At most one record exists per (student, session, term).
type ScoreRecord struct {
	ID                uint                             `gorm:"primaryKey" json:"id"`
	StudentID         uint                             `gorm:"not null;uniqueIndex:idx_score_record_scope" json:"student_id"`
	ClassID           uint                             `gorm:"not null;index" json:"class_id"`
	Session           string                           `gorm:"size:32;not null;uniqueIndex:idx_score_record_scope" json:"session"`
	Term              string                           `gorm:"size:32;not null;uniqueIndex:idx_score_record_scope" json:"term"`
	Rows              []ScoreRow                       `gorm:"foreignKey:ScoreRecordID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"rows"`
	Average           float64                          `gorm:"not null;default:0" json:"average"`
	TotalScore        float64                          `gorm:"not null;default:0" json:"total_score"`
	Affective         datatypes.JSONType[TraitRatings] `gorm:"type:json" json:"affective"`
	Psychomotor       datatypes.JSONType[TraitRatings] `gorm:"type:json" json:"psychomotor"`
	AttendancePresent int                              `gorm:"not null;default:0" json:"attendance_present"`
	AttendanceTotal   int                              `gorm:"not null;default:0" json:"attendance_total"`
	TeacherRemark     string                           `gorm:"type:text" json:"teacher_remark"`
	HeadTeacherRemark string                           `gorm:"type:text" json:"head_teacher_remark"`
	Position          *int                             `gorm:"-" json:"position,omitempty"`
	CreatedAt         time.Time                        `json:"created_at"`
	UpdatedAt         time.Time                        `json:"updated_at"`
}

// IsNew reports whether the record has not been persisted yet.
func (r ScoreRecord) IsNew() bool {
	return r.ID == 0
}
