package service

import (
	"errors"

	"dealerstock/internal/repository"
	"dealerstock/internal/warranty"

	"gorm.io/gorm"
)

// Lifecycle errors. UnitUnavailable deliberately covers absent units, units in
// the wrong placement and retired units alike.
var (
	ErrUnitUnavailable       = errors.New("unit not found or already assigned, sold or replaced")
	ErrUnauthorized          = errors.New("not allowed to act on this sale or unit")
	ErrWarrantyExpired       = errors.New("warranty has expired")
	ErrPartialAvailability   = errors.New("some units not found or already assigned")
	ErrInvalidWarranty       = warranty.ErrInvalidWarranty
	ErrDuplicateSerialNumber = errors.New("serial number already in use")
	ErrDuplicateBarcode      = errors.New("could not generate a unique barcode")
	ErrSaleNotFound          = errors.New("sale not found")
)

// Inventory and catalog errors.
var (
	ErrUnitNotFound        = errors.New("unit not found")
	ErrUnitNotDeletable    = errors.New("only unassigned units can be deleted")
	ErrInvalidPower        = errors.New(`power must be "<kW>/<HP>"`)
	ErrInvalidSerialNumber = errors.New("serial number must not be blank")
	ErrBatchTooLarge       = errors.New("requested quantity exceeds the batch limit")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrDuplicateCategory   = errors.New("category name already exists")
	ErrCategoryInUse       = errors.New("category is referenced by units")
	ErrFileNotFound        = errors.New("file not found")
	ErrUnsupportedImage    = errors.New("images must be jpeg, png or webp")
	ErrTooManyImages       = errors.New("too many images")
)

// Account errors.
var (
	ErrAccountNotFound       = errors.New("account not found")
	ErrDuplicateUsername     = errors.New("username already in use")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrPasswordChangePending = errors.New("password change pending approval")
	ErrAdminExists           = errors.New("an admin account already exists")
)

// notFoundAs maps a store miss to target and passes other errors through.
func notFoundAs(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}

// transitionErr maps a lost compare-and-set to ErrUnitUnavailable.
func transitionErr(err error) error {
	if errors.Is(err, repository.ErrPlacementChanged) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrUnitUnavailable
	}
	return err
}
