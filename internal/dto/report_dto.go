package dto

import (
	"github.com/noah-isme/scholar-ledger-api/internal/engine"
	"github.com/noah-isme/scholar-ledger-api/internal/models"
)

// StudentSummary identifies the student on a report card.
type StudentSummary struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	AdmissionNo string `json:"admission_no"`
}

// ClassSummary identifies a class on report and bursary views.
type ClassSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Stage string `json:"stage"`
}

// ReportCardResponse is the assembled term report for one student.
type ReportCardResponse struct {
	SchoolName        string             `json:"school_name"`
	Session           string             `json:"session"`
	Term              string             `json:"term"`
	Student           StudentSummary     `json:"student"`
	Class             ClassSummary       `json:"class"`
	Subjects          []ScoreRowResponse `json:"subjects"`
	TotalScore        float64            `json:"total_score"`
	Average           float64            `json:"average"`
	Position          *int               `json:"position"`
	ClassSize         int                `json:"class_size"`
	Affective         map[string]int     `json:"affective"`
	Psychomotor       map[string]int     `json:"psychomotor"`
	Attendance        AttendanceView     `json:"attendance"`
	TeacherRemark     string             `json:"teacher_remark"`
	HeadTeacherRemark string             `json:"head_teacher_remark"`
	GradingKey        []engine.BandRange `json:"grading_key"`
}

// ClassRankingResponse lists a class best total first.
type ClassRankingResponse struct {
	Class     ClassSummary      `json:"class"`
	Session   string            `json:"session"`
	Term      string            `json:"term"`
	TiePolicy string            `json:"tie_policy"`
	Standings []engine.Standing `json:"standings"`
}

// NewStudentSummary converts a student into its report card summary.
func NewStudentSummary(student models.Student) StudentSummary {
	return StudentSummary{ID: student.ID, Name: student.Name, AdmissionNo: student.AdmissionNo}
}

// NewClassSummary converts a class into its summary.
func NewClassSummary(class models.Class) ClassSummary {
	return ClassSummary{ID: class.ID, Name: class.Name, Stage: string(class.Stage)}
}
