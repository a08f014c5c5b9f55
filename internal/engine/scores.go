package engine

import "github.com/noah-isme/scholar-ledger-api/internal/models"

// RowUpdate carries the components entered for one subject. Nil components
// keep their current value so each component can be edited independently.
// Values are trusted as given; caps are enforced by the caller.
type RowUpdate struct {
	CA1  *float64
	CA2  *float64
	Exam *float64
}

// ComputeRow derives Total, Grade and Comment from the row's components.
func ComputeRow(row models.ScoreRow) models.ScoreRow {
	row.Total = row.CA1 + row.CA2 + row.Exam
	band := Grade(row.Total)
	row.Grade = string(band.Grade)
	row.Comment = band.Comment
	return row
}

// Summarize returns the sum of row totals and their mean. An empty row set
// has a zero total and a zero average.
func Summarize(rows []models.ScoreRow) (total, average float64) {
	for _, row := range rows {
		total += row.Total
	}
	if len(rows) == 0 {
		return 0, 0
	}
	return total, total / float64(len(rows))
}

// Refresh recomputes TotalScore and Average from the record's rows.
func Refresh(record *models.ScoreRecord) {
	record.TotalScore, record.Average = Summarize(record.Rows)
}

// ApplyRow writes update into the record's row for subject, creating a zeroed
// row first when the subject has none, then recomputes the record summary.
// It returns the updated row.
func ApplyRow(record *models.ScoreRecord, subject string, update RowUpdate) models.ScoreRow {
	idx := rowIndex(record.Rows, subject)
	if idx < 0 {
		record.Rows = append(record.Rows, models.ScoreRow{Subject: subject})
		idx = len(record.Rows) - 1
	}

	row := record.Rows[idx]
	if update.CA1 != nil {
		row.CA1 = *update.CA1
	}
	if update.CA2 != nil {
		row.CA2 = *update.CA2
	}
	if update.Exam != nil {
		row.Exam = *update.Exam
	}
	row = ComputeRow(row)
	record.Rows[idx] = row

	Refresh(record)
	return row
}

// RecordTotal sums the row totals of a record.
func RecordTotal(record models.ScoreRecord) float64 {
	total, _ := Summarize(record.Rows)
	return total
}

func rowIndex(rows []models.ScoreRow, subject string) int {
	for i, row := range rows {
		if row.Subject == subject {
			return i
		}
	}
	return -1
}
