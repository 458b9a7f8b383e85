package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role of an authenticated principal.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDealer    Role = "dealer"
	RoleSubDealer Role = "sub_dealer"
)

// PasswordChangeStatus gates login while a change request is pending.
type PasswordChangeStatus string

const (
	PasswordChangeNone     PasswordChangeStatus = "none"
	PasswordChangePending  PasswordChangeStatus = "pending"
	PasswordChangeApproved PasswordChangeStatus = "approved"
)

// Account stores admin, dealer and sub-dealer principals.
// ParentDealerID is mandatory for sub-dealers and nil otherwise.
type Account struct {
	ID                        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Role                      Role      `gorm:"type:varchar(20);not null;index"`
	Username                  string    `gorm:"uniqueIndex;not null"`
	Phone                     string    `gorm:"index"`
	FirstName                 string    `gorm:"not null"`
	LastName                  string
	BusinessName              string
	Address                   string
	PasswordHash              string               `gorm:"not null"`
	ParentDealerID            *uuid.UUID           `gorm:"type:uuid;index"`
	PasswordChangeStatus      PasswordChangeStatus `gorm:"type:varchar(20);not null;default:'none'"`
	PasswordChangeRequestedAt *time.Time
	Active                    bool `gorm:"not null"`
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

func (a *Account) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.PasswordChangeStatus == "" {
		a.PasswordChangeStatus = PasswordChangeNone
	}
	return nil
}

// DisplayName is the name shown on reports.
func (a *Account) DisplayName() string {
	if a.BusinessName != "" {
		return a.BusinessName
	}
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// Actor is the resolved identity of the caller of a core operation.
type Actor struct {
	Role           Role
	ID             uuid.UUID
	ParentDealerID *uuid.UUID
}
