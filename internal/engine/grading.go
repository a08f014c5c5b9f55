// Package engine derives report and bursary facts from raw records: subject
// grades, term totals and averages, class positions and fee balances.
//
// Every function is pure. Callers pass whole collections scoped to a session
// and term; nothing is cached or retained between calls and nothing here
// performs I/O or takes locks.
package engine

// Letter is a report card grade.
type Letter string

// Report card letters, best first.
const (
	LetterA Letter = "A"
	LetterB Letter = "B"
	LetterC Letter = "C"
	LetterD Letter = "D"
	LetterF Letter = "F"
)

// Band is the grade and descriptive comment for a subject total.
type Band struct {
	Grade   Letter `json:"grade"`
	Comment string `json:"comment"`
}

// BandRange describes one row of the grading key printed on report cards.
// Min is inclusive; Max is exclusive and zero for the open top band.
type BandRange struct {
	Band
	Min float64 `json:"min"`
	Max float64 `json:"max,omitempty"`
}

var gradingKey = []BandRange{
	{Band: Band{Grade: LetterA, Comment: "Excellent"}, Min: 75},
	{Band: Band{Grade: LetterB, Comment: "Very Good"}, Min: 65, Max: 75},
	{Band: Band{Grade: LetterC, Comment: "Good"}, Min: 50, Max: 65},
	{Band: Band{Grade: LetterD, Comment: "Fair"}, Min: 40, Max: 50},
}

var failBand = Band{Grade: LetterF, Comment: "Fail"}

// Grade maps a subject total to its band. Lower bounds are inclusive.
// Totals are not clamped or rounded; anything that fails every lower bound,
// including negative and NaN totals, bands as F.
func Grade(total float64) Band {
	for _, rng := range gradingKey {
		if total >= rng.Min {
			return rng.Band
		}
	}
	return failBand
}

// GradingKey returns the full band table, best band first.
func GradingKey() []BandRange {
	key := make([]BandRange, 0, len(gradingKey)+1)
	key = append(key, gradingKey...)
	return append(key, BandRange{Band: failBand, Min: 0, Max: 40})
}
