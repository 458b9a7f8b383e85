package repository

import (
	"context"
	"errors"
	"strings"

	"dealerstock/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrPlacementChanged is returned by a compare-and-set transition whose
// expected placement no longer holds.
var ErrPlacementChanged = errors.New("unit placement changed")

// UnitFilter defines filters for listing units.
type UnitFilter struct {
	Search     string
	CategoryID *uuid.UUID
	Placement  *model.Placement // Kind required; HolderID optional
	Page       int
	Limit      int
}

// UnitRepository is the inventory ledger store. Methods ending in Tx must be
// given the transaction handle and never touch the base connection.
type UnitRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Unit, error)
	List(ctx context.Context, filter UnitFilter) ([]model.Unit, int64, error)
	UpdateDetails(ctx context.Context, u *model.Unit) error
	DeleteUnassigned(ctx context.Context, id uuid.UUID) error
	SetImages(ctx context.Context, id uuid.UUID, keys []string) error
	SerialPrefixInUse(ctx context.Context, base string) (bool, error)
	ExistingBarcodes(ctx context.Context, codes []string) ([]string, error)
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)

	CreateBatchTx(tx *gorm.DB, units []model.Unit) error
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Unit, error)
	FindAvailableTx(tx *gorm.DB, code string, filter model.Placement) (*model.Unit, error)
	CountInPlacementTx(tx *gorm.DB, ids []uuid.UUID, filter model.Placement) (int64, error)
	TransitionTx(tx *gorm.DB, id uuid.UUID, from, to model.Placement, changes map[string]any) error
	TransitionManyTx(tx *gorm.DB, ids []uuid.UUID, from, to model.Placement, changes map[string]any) (int64, error)
	RetireTx(tx *gorm.DB, id uuid.UUID) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type unitRepo struct{ db *gorm.DB }

func NewUnitRepository(db *gorm.DB) UnitRepository { return &unitRepo{db: db} }

func (r *unitRepo) DB() *gorm.DB { return r.db }

// wherePlacement narrows q to units whose placement equals p exactly.
func wherePlacement(q *gorm.DB, p model.Placement) *gorm.DB {
	q = q.Where("placement = ?", p.Kind)
	if p.HolderID != nil {
		return q.Where("placement_holder_id = ?", *p.HolderID)
	}
	return q.Where("placement_holder_id IS NULL")
}

// forUpdate takes a row lock where the dialect supports it. SQLite serializes
// writers on its own.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func holderValue(p model.Placement) any {
	if p.HolderID == nil {
		return gorm.Expr("NULL")
	}
	return *p.HolderID
}

func (r *unitRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Unit, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *unitRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Unit, error) {
	var u model.Unit
	err := tx.Preload("Category").Where("id = ?", id).First(&u).Error
	return &u, err
}

func (r *unitRepo) List(ctx context.Context, filter UnitFilter) ([]model.Unit, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Unit{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + escapeLike(strings.ToLower(s)) + "%"
		q = q.Where(
			"(LOWER(product_name) LIKE ? ESCAPE '\\' OR LOWER(serial_number) LIKE ? ESCAPE '\\' OR LOWER(barcode) LIKE ? ESCAPE '\\')",
			like, like, like)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Placement != nil {
		q = q.Where("placement = ?", filter.Placement.Kind)
		if filter.Placement.HolderID != nil {
			q = q.Where("placement_holder_id = ?", *filter.Placement.HolderID)
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := NormalizePage(filter.Page, filter.Limit, UnitPageSize)
	var units []model.Unit
	err := q.Preload("Category").
		Order("created_at DESC").Order("serial_number ASC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&units).Error
	return units, total, err
}

// UpdateDetails writes descriptive fields only. Placement, identifiers and
// attribution are owned by the lifecycle engines.
func (r *unitRepo) UpdateDetails(ctx context.Context, u *model.Unit) error {
	return r.db.WithContext(ctx).Model(u).
		Select(
			"product_name", "category_id", "subcategory", "sub_subcategory", "quantity_text",
			"power_kw", "power_hp", "volts", "phase", "stage", "max_discharge", "max_head",
			"pipe_size", "motor", "operator_head_range", "max_current", "capacitor",
			"duty_point", "nom_head", "nom_dis", "overall_efficiency", "rated_speed",
			"description", "warranty_duration", "warranty_unit", "updated_at",
		).
		Updates(u).Error
}

func (r *unitRepo) DeleteUnassigned(ctx context.Context, id uuid.UUID) error {
	res := wherePlacement(r.db.WithContext(ctx).Where("id = ?", id), model.Unassigned()).
		Delete(&model.Unit{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrPlacementChanged
	}
	return nil
}

func (r *unitRepo) SetImages(ctx context.Context, id uuid.UUID, keys []string) error {
	res := r.db.WithContext(ctx).Model(&model.Unit{}).Where("id = ?", id).
		Update("images", datatypes.JSONSlice[string](keys))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SerialPrefixInUse reports whether base, or any "base-..." suffixed serial, exists.
func (r *unitRepo) SerialPrefixInUse(ctx context.Context, base string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Unit{}).
		Where("(serial_number = ? OR serial_number LIKE ? ESCAPE '\\')", base, escapeLike(base)+"-%").
		Count(&n).Error
	return n > 0, err
}

func (r *unitRepo) ExistingBarcodes(ctx context.Context, codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var found []string
	err := r.db.WithContext(ctx).Model(&model.Unit{}).
		Where("barcode IN ?", codes).Pluck("barcode", &found).Error
	return found, err
}

func (r *unitRepo) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Unit{}).Where("category_id = ?", categoryID).Count(&n).Error
	return n, err
}

func (r *unitRepo) CreateBatchTx(tx *gorm.DB, units []model.Unit) error {
	return tx.Omit(clause.Associations).CreateInBatches(&units, 100).Error
}

// FindAvailableTx looks a unit up by barcode or serial number and returns it
// only if its placement equals filter. Absent and wrong-state units both
// yield gorm.ErrRecordNotFound.
func (r *unitRepo) FindAvailableTx(tx *gorm.DB, code string, filter model.Placement) (*model.Unit, error) {
	var u model.Unit
	q := forUpdate(tx).Where("(barcode = ? OR serial_number = ?)", code, code)
	err := wherePlacement(q, filter).First(&u).Error
	return &u, err
}

func (r *unitRepo) CountInPlacementTx(tx *gorm.DB, ids []uuid.UUID, filter model.Placement) (int64, error) {
	var n int64
	err := wherePlacement(tx.Model(&model.Unit{}).Where("id IN ?", ids), filter).Count(&n).Error
	return n, err
}

// TransitionTx moves one unit from → to. The update only applies while the
// stored placement still equals from; otherwise ErrPlacementChanged.
func (r *unitRepo) TransitionTx(tx *gorm.DB, id uuid.UUID, from, to model.Placement, changes map[string]any) error {
	n, err := r.transition(tx.Where("id = ?", id), from, to, changes)
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrPlacementChanged
	}
	return nil
}

func (r *unitRepo) TransitionManyTx(tx *gorm.DB, ids []uuid.UUID, from, to model.Placement, changes map[string]any) (int64, error) {
	return r.transition(tx.Where("id IN ?", ids), from, to, changes)
}

func (r *unitRepo) transition(q *gorm.DB, from, to model.Placement, changes map[string]any) (int64, error) {
	updates := map[string]any{
		"placement":           to.Kind,
		"placement_holder_id": holderValue(to),
	}
	for k, v := range changes {
		updates[k] = v
	}
	res := wherePlacement(q.Model(&model.Unit{}), from).Updates(updates)
	return res.RowsAffected, res.Error
}

// RetireTx permanently withdraws a sold unit: placement becomes retired and
// the denormalized warranty dates are cleared. Attribution is kept.
func (r *unitRepo) RetireTx(tx *gorm.DB, id uuid.UUID) error {
	return r.TransitionTx(tx, id, model.Sold(), model.Retired(), map[string]any{
		"warranty_start_date": gorm.Expr("NULL"),
		"warranty_end_date":   gorm.Expr("NULL"),
	})
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Page sizes applied when a filter's limit is missing or above MaxPageSize.
const (
	UnitPageSize    = 50
	AccountPageSize = 50
	SalePageSize    = 100
	MaxPageSize     = 500
)

// NormalizePage clamps page to 1 and replaces an out-of-range limit with def.
func NormalizePage(page, limit, def int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > MaxPageSize {
		limit = def
	}
	return page, limit
}
