package repository

import (
	"context"

	"dealerstock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReplacementFilter struct {
	DealerID    *uuid.UUID
	SubDealerID *uuid.UUID
	Page        int
	Limit       int
}

// ReplacementRepository is append-only: there is no update or delete.
type ReplacementRepository interface {
	CreateTx(tx *gorm.DB, r *model.Replacement) error
	List(ctx context.Context, filter ReplacementFilter) ([]model.Replacement, int64, error)
	FindByNewUnitID(ctx context.Context, unitID uuid.UUID) (*model.Replacement, error)
}

type replacementRepo struct{ db *gorm.DB }

func NewReplacementRepository(db *gorm.DB) ReplacementRepository {
	return &replacementRepo{db: db}
}

func (r *replacementRepo) CreateTx(tx *gorm.DB, rep *model.Replacement) error {
	return tx.Omit("OriginalUnit", "NewUnit").Create(rep).Error
}

func (r *replacementRepo) List(ctx context.Context, filter ReplacementFilter) ([]model.Replacement, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Replacement{})
	if filter.DealerID != nil {
		q = q.Where("dealer_id = ?", *filter.DealerID)
	}
	if filter.SubDealerID != nil {
		q = q.Where("sub_dealer_id = ?", *filter.SubDealerID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page, limit := NormalizePage(filter.Page, filter.Limit, SalePageSize)
	var reps []model.Replacement
	err := q.Preload("OriginalUnit.Category").Preload("NewUnit.Category").
		Order("replaced_date DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&reps).Error
	return reps, total, err
}

// FindByNewUnitID returns the replacement that put unitID into circulation.
func (r *replacementRepo) FindByNewUnitID(ctx context.Context, unitID uuid.UUID) (*model.Replacement, error) {
	var rep model.Replacement
	err := r.db.WithContext(ctx).Preload("OriginalUnit").
		Where("new_unit_id = ?", unitID).
		Order("replaced_date DESC").
		First(&rep).Error
	return &rep, err
}
