package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/scholar-ledger-api/internal/models"
)

// ScoreRepository persists term score records together with their subject rows.
type ScoreRepository interface {
	GetByScope(ctx context.Context, studentID uint, session, term string) (models.ScoreRecord, error)
	ListByScope(ctx context.Context, session, term string, studentIDs []uint) ([]models.ScoreRecord, error)
	Save(ctx context.Context, record *models.ScoreRecord) error
}

type scoreRepository struct {
	db *gorm.DB
}

// NewScoreRepository constructs a score record repository.
func NewScoreRepository(db *gorm.DB) ScoreRepository {
	return &scoreRepository{db: db}
}

func preloadRows(tx *gorm.DB) *gorm.DB {
	return tx.Order("id ASC")
}

func (r *scoreRepository) GetByScope(ctx context.Context, studentID uint, session, term string) (models.ScoreRecord, error) {
	var record models.ScoreRecord
	if err := r.db.WithContext(ctx).
		Preload("Rows", preloadRows).
		Where("student_id = ? AND session = ? AND term = ?", studentID, session, term).
		First(&record).Error; err != nil {
		return models.ScoreRecord{}, err
	}

	return record, nil
}

// ListByScope returns the records for the session and term. A nil studentIDs
// slice returns every record in scope.
func (r *scoreRepository) ListByScope(ctx context.Context, session, term string, studentIDs []uint) ([]models.ScoreRecord, error) {
	query := r.db.WithContext(ctx).
		Preload("Rows", preloadRows).
		Where("session = ? AND term = ?", session, term)

	if studentIDs != nil {
		if len(studentIDs) == 0 {
			return []models.ScoreRecord{}, nil
		}
		query = query.Where("student_id IN ?", studentIDs)
	}

	var records []models.ScoreRecord
	if err := query.Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

// scoreRecordColumns are overwritten when a new record collides with a stored
// one for the same student, session and term.
var scoreRecordColumns = []string{
	"class_id",
	"average",
	"total_score",
	"affective",
	"psychomotor",
	"attendance_present",
	"attendance_total",
	"teacher_remark",
	"head_teacher_remark",
	"updated_at",
}

// Save writes the whole record and replaces its stored rows with record.Rows
// in one transaction. There is no version check, so the last writer wins,
// including two writers that both believed the record was new.
func (r *scoreRepository) Save(ctx context.Context, record *models.ScoreRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if record.IsNew() {
			if err := tx.Omit("Rows").Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "student_id"}, {Name: "session"}, {Name: "term"}},
				DoUpdates: clause.AssignmentColumns(scoreRecordColumns),
			}).Create(record).Error; err != nil {
				return err
			}

			var stored models.ScoreRecord
			if err := tx.Select("id", "created_at").
				Where("student_id = ? AND session = ? AND term = ?", record.StudentID, record.Session, record.Term).
				First(&stored).Error; err != nil {
				return err
			}
			record.ID = stored.ID
			record.CreatedAt = stored.CreatedAt
		} else if err := tx.Omit("Rows").Save(record).Error; err != nil {
			return err
		}

		if err := tx.Where("score_record_id = ?", record.ID).Delete(&models.ScoreRow{}).Error; err != nil {
			return err
		}
		if len(record.Rows) == 0 {
			return nil
		}

		rows := make([]models.ScoreRow, len(record.Rows))
		for i, row := range record.Rows {
			row.ID = 0
			row.ScoreRecordID = record.ID
			rows[i] = row
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		record.Rows = rows
		return nil
	})
}
