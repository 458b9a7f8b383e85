package repository

import (
	"context"

	"dealerstock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaleFilter scopes sale listings. Nil ids mean "any".
type SaleFilter struct {
	DealerID    *uuid.UUID
	SubDealerID *uuid.UUID
	SoldBy      string
	Page        int
	Limit       int
}

// DealerSalesRow is one row of the attribution report.
type DealerSalesRow struct {
	DealerID  *uuid.UUID
	UnitsSold int64
}

type SaleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	List(ctx context.Context, filter SaleFilter) ([]model.Sale, int64, error)
	CountByOriginalDealer(ctx context.Context) ([]DealerSalesRow, error)

	CreateTx(tx *gorm.DB, s *model.Sale) error
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Sale, error)
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Preload("Unit.Category").Where("id = ?", id).First(&s).Error
	return &s, err
}

func (r *saleRepo) List(ctx context.Context, filter SaleFilter) ([]model.Sale, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Sale{})
	if filter.DealerID != nil {
		q = q.Where("dealer_id = ?", *filter.DealerID)
	}
	if filter.SubDealerID != nil {
		q = q.Where("sub_dealer_id = ?", *filter.SubDealerID)
	}
	if filter.SoldBy != "" {
		q = q.Where("sold_by = ?", filter.SoldBy)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page, limit := NormalizePage(filter.Page, filter.Limit, SalePageSize)
	var sales []model.Sale
	err := q.Preload("Unit.Category").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&sales).Error
	return sales, total, err
}

// CountByOriginalDealer groups live sales by the unit's first-assigned dealer.
func (r *saleRepo) CountByOriginalDealer(ctx context.Context) ([]DealerSalesRow, error) {
	var rows []DealerSalesRow
	err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Select("units.original_assigned_dealer_id AS dealer_id, COUNT(*) AS units_sold").
		Joins("JOIN units ON units.id = sales.unit_id").
		Group("units.original_assigned_dealer_id").
		Order("units_sold DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Omit("Unit").Create(s).Error
}

func (r *saleRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := forUpdate(tx).Where("id = ?", id).First(&s).Error
	return &s, err
}

// DeleteTx hard-deletes a superseded sale. A sale that is already gone means
// a concurrent replacement won; the caller must roll back.
func (r *saleRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	res := tx.Where("id = ?", id).Delete(&model.Sale{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
