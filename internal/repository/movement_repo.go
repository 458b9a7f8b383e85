package repository

import (
	"context"

	"dealerstock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovementRepository interface {
	CreateTx(tx *gorm.DB, m *model.PlacementMovement) error
	CreateManyTx(tx *gorm.DB, ms []model.PlacementMovement) error
	ListByUnit(ctx context.Context, unitID uuid.UUID) ([]model.PlacementMovement, error)
}

type movementRepo struct{ db *gorm.DB }

func NewMovementRepository(db *gorm.DB) MovementRepository { return &movementRepo{db: db} }

func (r *movementRepo) CreateTx(tx *gorm.DB, m *model.PlacementMovement) error {
	return tx.Create(m).Error
}

func (r *movementRepo) CreateManyTx(tx *gorm.DB, ms []model.PlacementMovement) error {
	if len(ms) == 0 {
		return nil
	}
	return tx.CreateInBatches(&ms, 100).Error
}

func (r *movementRepo) ListByUnit(ctx context.Context, unitID uuid.UUID) ([]model.PlacementMovement, error) {
	var ms []model.PlacementMovement
	err := r.db.WithContext(ctx).Where("unit_id = ?", unitID).Order("created_at ASC").Find(&ms).Error
	return ms, err
}
