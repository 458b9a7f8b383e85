package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Unit is one physical, individually tracked product instance.
// Quantity is always 1; batch creation expands into N rows.
type Unit struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductName    string    `gorm:"index;not null"`
	CategoryID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Subcategory    string
	SubSubcategory string
	SerialNumber   string `gorm:"uniqueIndex;not null"`
	Barcode        string `gorm:"uniqueIndex;not null"`
	Quantity       int    `gorm:"not null;default:1"`
	QuantityText   string

	// Descriptive specs. Not lifecycle relevant.
	PowerKW           decimal.Decimal `gorm:"type:decimal(10,2)"`
	PowerHP           decimal.Decimal `gorm:"type:decimal(10,2)"`
	Volts             string
	Phase             string
	Stage             string
	MaxDischarge      string
	MaxHead           string
	PipeSize          string
	Motor             string
	OperatorHeadRange string
	MaxCurrent        string
	Capacitor         string
	DutyPoint         string
	NomHead           string
	NomDis            string
	OverallEfficiency string
	RatedSpeed        string
	Description       string
	Images            datatypes.JSONSlice[string]

	WarrantyDuration int    `gorm:"not null"`
	WarrantyUnit     string `gorm:"type:varchar(10);not null"`

	Placement Placement `gorm:"embedded"`

	// Stamped by the first assignment and never cleared.
	OriginalAssignedDealerID *uuid.UUID `gorm:"type:uuid;index"`
	AssignedByID             *uuid.UUID `gorm:"type:uuid"`
	AssignedByAdmin          bool       `gorm:"not null;default:false"`
	AssignedAt               *time.Time
	AssignedToSubDealerAt    *time.Time

	// Denormalized copy of the live sale's window.
	WarrantyStartDate *time.Time
	WarrantyEndDate   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Category *Category `gorm:"foreignKey:CategoryID"`
}

func (u *Unit) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Placement.Kind == "" {
		u.Placement = Unassigned()
	}
	if u.Quantity == 0 {
		u.Quantity = 1
	}
	return nil
}

// PlacementMovement is the append-only audit trail of placement transitions.
type PlacementMovement struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey"`
	UnitID       uuid.UUID     `gorm:"type:uuid;not null;index"`
	Operation    string        `gorm:"type:varchar(40);not null"` // "admin_assign" | "manual_assign" | "bulk_assign" | "sub_dealer_assign" | "sale" | "replacement_in" | "retire"
	FromKind     PlacementKind `gorm:"type:varchar(20);not null"`
	FromHolderID *uuid.UUID    `gorm:"type:uuid"`
	ToKind       PlacementKind `gorm:"type:varchar(20);not null"`
	ToHolderID   *uuid.UUID    `gorm:"type:uuid"`
	ActorRole    Role          `gorm:"type:varchar(20);not null"`
	ActorID      uuid.UUID     `gorm:"type:uuid;not null"`
	ReferenceID  *uuid.UUID    `gorm:"type:uuid"` // sale or replacement id when applicable
	CreatedAt    time.Time
}

func (m *PlacementMovement) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
