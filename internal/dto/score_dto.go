package dto

import (
	"time"

	"github.com/noah-isme/scholar-ledger-api/internal/models"
)

// ScoreRowRequest enters components for one subject. Omitted components keep
// their stored value.
type ScoreRowRequest struct {
	Subject string   `json:"subject" validate:"required,max=128"`
	CA1     *float64 `json:"ca1" validate:"omitempty,gte=0"`
	CA2     *float64 `json:"ca2" validate:"omitempty,gte=0"`
	Exam    *float64 `json:"exam" validate:"omitempty,gte=0"`
}

// TraitsRequest replaces the rated traits present in the payload.
type TraitsRequest struct {
	Affective   map[string]int `json:"affective" validate:"omitempty,dive,keys,required,endkeys,min=1,max=5"`
	Psychomotor map[string]int `json:"psychomotor" validate:"omitempty,dive,keys,required,endkeys,min=1,max=5"`
}

// AttendanceRequest records days present out of days the school opened.
type AttendanceRequest struct {
	Present int `json:"present" validate:"gte=0"`
	Total   int `json:"total" validate:"gte=0,gtefield=Present"`
}

// RemarksRequest sets the report card remarks. Nil fields are left unchanged.
type RemarksRequest struct {
	TeacherRemark     *string `json:"teacher_remark" validate:"omitempty,max=2000"`
	HeadTeacherRemark *string `json:"head_teacher_remark" validate:"omitempty,max=2000"`
}

// ScoreRowResponse serializes a subject row.
type ScoreRowResponse struct {
	Subject string  `json:"subject"`
	CA1     float64 `json:"ca1"`
	CA2     float64 `json:"ca2"`
	Exam    float64 `json:"exam"`
	Total   float64 `json:"total"`
	Grade   string  `json:"grade"`
	Comment string  `json:"comment"`
}

// AttendanceView reports attendance on a record.
type AttendanceView struct {
	Present int `json:"present"`
	Total   int `json:"total"`
}

// ScoreRecordResponse serializes a student's term record. Exists is false
// for the empty view returned before anything has been entered.
type ScoreRecordResponse struct {
	ID                uint               `json:"id"`
	StudentID         uint               `json:"student_id"`
	ClassID           uint               `json:"class_id"`
	Session           string             `json:"session"`
	Term              string             `json:"term"`
	Exists            bool               `json:"exists"`
	Rows              []ScoreRowResponse `json:"rows"`
	TotalScore        float64            `json:"total_score"`
	Average           float64            `json:"average"`
	Affective         map[string]int     `json:"affective"`
	Psychomotor       map[string]int     `json:"psychomotor"`
	Attendance        AttendanceView     `json:"attendance"`
	TeacherRemark     string             `json:"teacher_remark"`
	HeadTeacherRemark string             `json:"head_teacher_remark"`
	UpdatedAt         *time.Time         `json:"updated_at,omitempty"`
}

// NewScoreRowResponses converts subject rows into DTOs.
func NewScoreRowResponses(rows []models.ScoreRow) []ScoreRowResponse {
	items := make([]ScoreRowResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, ScoreRowResponse{
			Subject: row.Subject,
			CA1:     row.CA1,
			CA2:     row.CA2,
			Exam:    row.Exam,
			Total:   row.Total,
			Grade:   row.Grade,
			Comment: row.Comment,
		})
	}
	return items
}

// NewScoreRecordResponse converts a score record into a DTO.
func NewScoreRecordResponse(record models.ScoreRecord) ScoreRecordResponse {
	response := ScoreRecordResponse{
		ID:                record.ID,
		StudentID:         record.StudentID,
		ClassID:           record.ClassID,
		Session:           record.Session,
		Term:              record.Term,
		Exists:            !record.IsNew(),
		Rows:              NewScoreRowResponses(record.Rows),
		TotalScore:        record.TotalScore,
		Average:           record.Average,
		Affective:         copyRatings(record.Affective.Data()),
		Psychomotor:       copyRatings(record.Psychomotor.Data()),
		Attendance:        AttendanceView{Present: record.AttendancePresent, Total: record.AttendanceTotal},
		TeacherRemark:     record.TeacherRemark,
		HeadTeacherRemark: record.HeadTeacherRemark,
	}
	if !record.IsNew() {
		updated := record.UpdatedAt
		response.UpdatedAt = &updated
	}
	return response
}

func copyRatings(ratings models.TraitRatings) map[string]int {
	result := make(map[string]int, len(ratings))
	for key, value := range ratings {
		result[key] = value
	}
	return result
}
