package dto

import "time"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// LoginRequest accepts a username or a phone number as identifier.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,min=1"`
	Password   string `json:"password"   validate:"required,min=4"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type CreateAccountRequest struct {
	Username     string `json:"username"      validate:"required,min=3,max=150"`
	Phone        string `json:"phone"         validate:"omitempty,min=6,max=20"`
	FirstName    string `json:"first_name"    validate:"required,min=1,max=100"`
	LastName     string `json:"last_name"     validate:"omitempty,max=100"`
	BusinessName string `json:"business_name" validate:"omitempty,max=200"`
	Address      string `json:"address"       validate:"omitempty,max=300"`
	Password     string `json:"password"      validate:"required,min=6"`
}

type UpdateAccountRequest struct {
	Phone        *string `json:"phone"         validate:"omitempty,min=6,max=20"`
	FirstName    *string `json:"first_name"    validate:"omitempty,min=1,max=100"`
	LastName     *string `json:"last_name"     validate:"omitempty,max=100"`
	BusinessName *string `json:"business_name" validate:"omitempty,max=200"`
	Address      *string `json:"address"       validate:"omitempty,max=300"`
}

type SetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

type AccountFilter struct {
	Search          string `form:"search"`
	IncludeInactive bool   `form:"include_inactive"`
	Page            int    `form:"page,default=1"   validate:"min=1"`
	Limit           int    `form:"limit,default=50" validate:"min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type AccountResponse struct {
	ID                   string     `json:"id"`
	Role                 string     `json:"role"`
	Username             string     `json:"username"`
	Phone                string     `json:"phone"`
	FirstName            string     `json:"first_name"`
	LastName             string     `json:"last_name"`
	BusinessName         string     `json:"business_name"`
	Address              string     `json:"address"`
	ParentDealerID       *string    `json:"parent_dealer_id"`
	PasswordChangeStatus string     `json:"password_change_status"`
	PasswordRequestedAt  *time.Time `json:"password_change_requested_at"`
	Active               bool       `json:"active"`
	CreatedAt            time.Time  `json:"created_at"`
}

type AccountListResponse struct {
	Data  []AccountResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

type LoginResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int             `json:"expires_in"` // seconds
	Account      AccountResponse `json:"account"`
}

// PasswordChangeRequest is submitted without a token by a dealer or
// sub-dealer who forgot their password.
type PasswordChangeRequest struct {
	Username string `json:"username" validate:"required,min=1"`
	Phone    string `json:"phone"    validate:"required,min=1"`
}

type ChangeOwnPasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=6"`
}
