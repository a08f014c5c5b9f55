package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/scholar-ledger-api/internal/models"
)

// TiePolicy decides how students with equal totals are positioned.
type TiePolicy string

const (
	// TieSequential gives tied students consecutive distinct positions in
	// roster order (1, 2, 3, 4 for totals 90, 80, 80, 70).
	TieSequential TiePolicy = "sequential"
	// TieCompetition gives tied students the same position and skips the
	// positions they consume (1, 2, 2, 4 for totals 90, 80, 80, 70).
	TieCompetition TiePolicy = "competition"
)

// ParseTiePolicy converts a configuration value into a TiePolicy. An empty
// value selects TieSequential.
func ParseTiePolicy(value string) (TiePolicy, error) {
	switch TiePolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", TieSequential:
		return TieSequential, nil
	case TieCompetition:
		return TieCompetition, nil
	default:
		return "", fmt.Errorf("unknown tie policy %q", value)
	}
}

// Standing is one student's place in a class ranking.
type Standing struct {
	StudentID uint    `json:"student_id"`
	Name      string  `json:"name"`
	Total     float64 `json:"total"`
	Position  int     `json:"position"`
}

// Ranker orders a class by term totals.
type Ranker struct {
	Policy TiePolicy
}

// ClassRanking ranks every student of the class found in students, best total
// first. A student without a record for the session and term ranks with a
// total of zero. Equal totals keep roster order.
func (r Ranker) ClassRanking(classID uint, students []models.Student, records []models.ScoreRecord, session, term string) []Standing {
	totals := termTotals(records, session, term)

	standings := make([]Standing, 0)
	for _, student := range students {
		if student.ClassID != classID {
			continue
		}
		standings = append(standings, Standing{
			StudentID: student.ID,
			Name:      student.Name,
			Total:     totals[student.ID],
		})
	}

	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Total > standings[j].Total
	})

	for i := range standings {
		standings[i].Position = i + 1
		if r.Policy == TieCompetition && i > 0 && standings[i].Total == standings[i-1].Total {
			standings[i].Position = standings[i-1].Position
		}
	}

	return standings
}

// Position returns the 1-based position of the student within their class.
// ok is false only when the student is missing from students.
func (r Ranker) Position(studentID uint, students []models.Student, records []models.ScoreRecord, session, term string) (position int, ok bool) {
	student, found := findStudent(students, studentID)
	if !found {
		return 0, false
	}

	for _, standing := range r.ClassRanking(student.ClassID, students, records, session, term) {
		if standing.StudentID == studentID {
			return standing.Position, true
		}
	}
	return 0, false
}

func termTotals(records []models.ScoreRecord, session, term string) map[uint]float64 {
	totals := make(map[uint]float64, len(records))
	for _, record := range records {
		if record.Session != session || record.Term != term {
			continue
		}
		if _, seen := totals[record.StudentID]; seen {
			continue
		}
		totals[record.StudentID] = RecordTotal(record)
	}
	return totals
}

func findStudent(students []models.Student, id uint) (models.Student, bool) {
	for _, student := range students {
		if student.ID == id {
			return student, true
		}
	}
	return models.Student{}, false
}
