package model

import (
	"fmt"

	"github.com/google/uuid"
)

// PlacementKind is the custodial state of a unit.
type PlacementKind string

const (
	PlacementUnassigned  PlacementKind = "unassigned"
	PlacementAtDealer    PlacementKind = "at_dealer"
	PlacementAtSubDealer PlacementKind = "at_sub_dealer"
	PlacementSold        PlacementKind = "sold"
	PlacementRetired     PlacementKind = "retired"
)

// Placement is the single discriminated placement value of a unit.
// HolderID is set only for AtDealer (dealer id) and AtSubDealer (sub-dealer id).
// Stored as two columns: placement and placement_holder_id.
type Placement struct {
	Kind     PlacementKind `gorm:"column:placement;type:varchar(20);not null;default:'unassigned';index"`
	HolderID *uuid.UUID    `gorm:"column:placement_holder_id;type:uuid;index"`
}

func Unassigned() Placement { return Placement{Kind: PlacementUnassigned} }

func AtDealer(dealerID uuid.UUID) Placement {
	return Placement{Kind: PlacementAtDealer, HolderID: &dealerID}
}

func AtSubDealer(subDealerID uuid.UUID) Placement {
	return Placement{Kind: PlacementAtSubDealer, HolderID: &subDealerID}
}

func Sold() Placement { return Placement{Kind: PlacementSold} }

func Retired() Placement { return Placement{Kind: PlacementRetired} }

// Valid reports whether kind and holder agree.
func (p Placement) Valid() bool {
	switch p.Kind {
	case PlacementAtDealer, PlacementAtSubDealer:
		return p.HolderID != nil && *p.HolderID != uuid.Nil
	case PlacementUnassigned, PlacementSold, PlacementRetired:
		return p.HolderID == nil
	default:
		return false
	}
}

// Is reports whether two placements are the same state with the same holder.
func (p Placement) Is(other Placement) bool {
	if p.Kind != other.Kind {
		return false
	}
	if p.HolderID == nil || other.HolderID == nil {
		return p.HolderID == nil && other.HolderID == nil
	}
	return *p.HolderID == *other.HolderID
}

// IsRetired reports a unit permanently withdrawn after replacement.
func (p Placement) IsRetired() bool { return p.Kind == PlacementRetired }

// DealerID returns the holding dealer when the unit is at a dealer.
func (p Placement) DealerID() (uuid.UUID, bool) {
	if p.Kind != PlacementAtDealer || p.HolderID == nil {
		return uuid.Nil, false
	}
	return *p.HolderID, true
}

// SubDealerID returns the holding sub-dealer when the unit is at a sub-dealer.
func (p Placement) SubDealerID() (uuid.UUID, bool) {
	if p.Kind != PlacementAtSubDealer || p.HolderID == nil {
		return uuid.Nil, false
	}
	return *p.HolderID, true
}

func (p Placement) String() string {
	if p.HolderID != nil {
		return fmt.Sprintf("%s(%s)", p.Kind, p.HolderID)
	}
	return string(p.Kind)
}
