package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/scholar-ledger-api/internal/models"
)

// PaymentFilter narrows payment queries. Empty fields match everything.
type PaymentFilter struct {
	StudentID  *uint
	StudentIDs []uint
	Session    string
	Term       string
}

// PaymentRepository persists payments. Payments are never edited in place.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id uint) (models.Payment, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter PaymentFilter) ([]models.Payment, error)
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository constructs a payment repository.
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) GetByID(ctx context.Context, id uint) (models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, id).Error; err != nil {
		return models.Payment{}, err
	}

	return payment, nil
}

func (r *paymentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Payment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *paymentRepository) List(ctx context.Context, filter PaymentFilter) ([]models.Payment, error) {
	query := r.db.WithContext(ctx).Model(&models.Payment{})

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.StudentIDs != nil {
		if len(filter.StudentIDs) == 0 {
			return []models.Payment{}, nil
		}
		query = query.Where("student_id IN ?", filter.StudentIDs)
	}
	if filter.Session != "" {
		query = query.Where("session = ?", filter.Session)
	}
	if filter.Term != "" {
		query = query.Where("term = ?", filter.Term)
	}

	var payments []models.Payment
	if err := query.Order("date ASC, id ASC").Find(&payments).Error; err != nil {
		return nil, err
	}

	return payments, nil
}
