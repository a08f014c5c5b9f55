package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/scholar-ledger-api/internal/models"
)

// FeeHeadFilter narrows fee head queries. Empty fields match everything.
type FeeHeadFilter struct {
	Session string
	Term    string
}

// FeeHeadRepository persists fee heads.
type FeeHeadRepository interface {
	Create(ctx context.Context, fee *models.FeeHead) error
	GetByID(ctx context.Context, id uint) (models.FeeHead, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter FeeHeadFilter) ([]models.FeeHead, error)
}

type feeHeadRepository struct {
	db *gorm.DB
}

// NewFeeHeadRepository constructs a fee head repository.
func NewFeeHeadRepository(db *gorm.DB) FeeHeadRepository {
	return &feeHeadRepository{db: db}
}

func (r *feeHeadRepository) Create(ctx context.Context, fee *models.FeeHead) error {
	return r.db.WithContext(ctx).Create(fee).Error
}

func (r *feeHeadRepository) GetByID(ctx context.Context, id uint) (models.FeeHead, error) {
	var fee models.FeeHead
	if err := r.db.WithContext(ctx).First(&fee, id).Error; err != nil {
		return models.FeeHead{}, err
	}
	return fee, nil
}

func (r *feeHeadRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.FeeHead{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *feeHeadRepository) List(ctx context.Context, filter FeeHeadFilter) ([]models.FeeHead, error) {
	query := r.db.WithContext(ctx).Model(&models.FeeHead{})

	if filter.Session != "" {
		query = query.Where("session = ?", filter.Session)
	}
	if filter.Term != "" {
		query = query.Where("term = ?", filter.Term)
	}

	var fees []models.FeeHead
	if err := query.Order("id ASC").Find(&fees).Error; err != nil {
		return nil, err
	}

	return fees, nil
}
