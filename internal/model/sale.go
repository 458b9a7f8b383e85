package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SoldBy: "dealer" | "sub_dealer"
const (
	SoldByDealer    = "dealer"
	SoldBySubDealer = "sub_dealer"
)

// Sale links a sold unit to its seller and warranty window.
// Deleted (hard) when a replacement supersedes it; at most one per unit.
type Sale struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UnitID            uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	DealerID          *uuid.UUID `gorm:"type:uuid;index"`
	SubDealerID       *uuid.UUID `gorm:"type:uuid;index"`
	SoldBy            string     `gorm:"type:varchar(20);not null"`
	WarrantyStartDate time.Time  `gorm:"not null"`
	WarrantyEndDate   time.Time  `gorm:"not null"`
	WarrantyPeriod    string     `gorm:"not null"` // "<duration> <unit>"
	CreatedAt         time.Time

	Unit *Unit `gorm:"foreignKey:UnitID"`
}

func (s *Sale) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Replacement is the immutable audit record of a unit swap behind a sale.
type Replacement struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OriginalUnitID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	NewUnitID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	DealerID          *uuid.UUID `gorm:"type:uuid;index"`
	SubDealerID       *uuid.UUID `gorm:"type:uuid;index"`
	OriginalDealerID  *uuid.UUID `gorm:"type:uuid"`
	WarrantyStartDate time.Time  `gorm:"not null"`
	WarrantyEndDate   time.Time  `gorm:"not null"`
	ReplacedDate      time.Time  `gorm:"not null"`
	ReplacedBy        Role       `gorm:"type:varchar(20);not null"`
	ReplacedByID      uuid.UUID  `gorm:"type:uuid;not null"`
	CreatedAt         time.Time

	OriginalUnit *Unit `gorm:"foreignKey:OriginalUnitID"`
	NewUnit      *Unit `gorm:"foreignKey:NewUnitID"`
}

func (r *Replacement) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
