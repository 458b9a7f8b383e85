package repository

import (
	"context"
	"strings"

	"dealerstock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccountFilter struct {
	Role            model.Role
	ParentDealerID  *uuid.UUID
	Search          string
	IncludeInactive bool
	Page            int
	Limit           int
}

type AccountRepository interface {
	Create(ctx context.Context, a *model.Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	FindByLogin(ctx context.Context, identifier string) (*model.Account, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Account, error)
	List(ctx context.Context, filter AccountFilter) ([]model.Account, int64, error)
	CountByRole(ctx context.Context, role model.Role) (int64, error)
	Update(ctx context.Context, a *model.Account) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type accountRepo struct{ db *gorm.DB }

func NewAccountRepository(db *gorm.DB) AccountRepository { return &accountRepo{db: db} }

func (r *accountRepo) Create(ctx context.Context, a *model.Account) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *accountRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var a model.Account
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	return &a, err
}

// FindByLogin accepts a username or a phone number; inactive accounts are invisible.
func (r *accountRepo) FindByLogin(ctx context.Context, identifier string) (*model.Account, error) {
	var a model.Account
	err := r.db.WithContext(ctx).
		Where("(username = ? OR phone = ?) AND active = ?", identifier, identifier, true).
		First(&a).Error
	return &a, err
}

func (r *accountRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var accounts []model.Account
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&accounts).Error
	return accounts, err
}

func (r *accountRepo) List(ctx context.Context, filter AccountFilter) ([]model.Account, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Account{})
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if filter.ParentDealerID != nil {
		q = q.Where("parent_dealer_id = ?", *filter.ParentDealerID)
	}
	if !filter.IncludeInactive {
		q = q.Where("active = ?", true)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + escapeLike(strings.ToLower(s)) + "%"
		q = q.Where(
			"(LOWER(username) LIKE ? ESCAPE '\\' OR LOWER(first_name) LIKE ? ESCAPE '\\' OR LOWER(business_name) LIKE ? ESCAPE '\\' OR phone LIKE ? ESCAPE '\\')",
			like, like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page, limit := NormalizePage(filter.Page, filter.Limit, AccountPageSize)
	var accounts []model.Account
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&accounts).Error
	return accounts, total, err
}

func (r *accountRepo) CountByRole(ctx context.Context, role model.Role) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Account{}).Where("role = ?", role).Count(&n).Error
	return n, err
}

func (r *accountRepo) Update(ctx context.Context, a *model.Account) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *accountRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
