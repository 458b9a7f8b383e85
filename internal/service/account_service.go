package service

import (
	"context"
	"errors"
	"strings"

	"dealerstock/internal/dto"
	"dealerstock/internal/model"
	"dealerstock/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AccountService manages the admin, dealer and sub-dealer principals.
// Dealers are managed by the admin; sub-dealers by their parent dealer.
type AccountService interface {
	SeedAdmin(ctx context.Context, req dto.CreateAccountRequest) (*dto.AccountResponse, error)
	ChangeAdminPassword(ctx context.Context, actor model.Actor, req dto.ChangeOwnPasswordRequest) error

	CreateDealer(ctx context.Context, req dto.CreateAccountRequest) (*dto.AccountResponse, error)
	ListDealers(ctx context.Context, filter dto.AccountFilter) (*dto.AccountListResponse, error)
	UpdateDealer(ctx context.Context, id uuid.UUID, req dto.UpdateAccountRequest) (*dto.AccountResponse, error)
	DeactivateDealer(ctx context.Context, id uuid.UUID) error

	CreateSubDealer(ctx context.Context, actor model.Actor, req dto.CreateAccountRequest) (*dto.AccountResponse, error)
	ListSubDealers(ctx context.Context, actor model.Actor, filter dto.AccountFilter) (*dto.AccountListResponse, error)
	UpdateSubDealer(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.UpdateAccountRequest) (*dto.AccountResponse, error)
	DeactivateSubDealer(ctx context.Context, actor model.Actor, id uuid.UUID) error

	// RequestPasswordChange flags the account matching username and phone as
	// pending; it cannot log in until a manager sets a new password.
	RequestPasswordChange(ctx context.Context, role model.Role, req dto.PasswordChangeRequest) error
	// SetPassword approves a pending change (or resets) on behalf of the
	// account's manager: the admin for dealers, the parent for sub-dealers.
	SetPassword(ctx context.Context, actor model.Actor, id uuid.UUID, password string) error
}

type accountService struct {
	repo repository.AccountRepository
	now  Clock
}

func NewAccountService(repo repository.AccountRepository) AccountService {
	return &accountService{repo: repo, now: systemClock}
}

// ── Admin ────────────────────────────────────────────────────────────────────

func (s *accountService) SeedAdmin(ctx context.Context, req dto.CreateAccountRequest) (*dto.AccountResponse, error) {
	n, err := s.repo.CountByRole(ctx, model.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrAdminExists
	}
	acc, err := s.create(ctx, model.RoleAdmin, nil, req)
	if errors.Is(err, ErrDuplicateUsername) {
		// Lost a race against another seeder on the single-admin index.
		if n, cerr := s.repo.CountByRole(ctx, model.RoleAdmin); cerr == nil && n > 0 {
			return nil, ErrAdminExists
		}
	}
	return acc, err
}

func (s *accountService) ChangeAdminPassword(ctx context.Context, actor model.Actor, req dto.ChangeOwnPasswordRequest) error {
	if actor.Role != model.RoleAdmin {
		return ErrUnauthorized
	}
	acc, err := s.repo.FindByID(ctx, actor.ID)
	if err != nil {
		return notFoundAs(err, ErrAccountNotFound)
	}
	if acc.Role != model.RoleAdmin {
		return ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	acc.PasswordHash = hash
	return s.repo.Update(ctx, acc)
}

// ── Dealers ──────────────────────────────────────────────────────────────────

func (s *accountService) CreateDealer(ctx context.Context, req dto.CreateAccountRequest) (*dto.AccountResponse, error) {
	return s.create(ctx, model.RoleDealer, nil, req)
}

func (s *accountService) ListDealers(ctx context.Context, filter dto.AccountFilter) (*dto.AccountListResponse, error) {
	return s.list(ctx, repository.AccountFilter{
		Role:            model.RoleDealer,
		Search:          filter.Search,
		IncludeInactive: filter.IncludeInactive,
		Page:            filter.Page,
		Limit:           filter.Limit,
	})
}

func (s *accountService) UpdateDealer(ctx context.Context, id uuid.UUID, req dto.UpdateAccountRequest) (*dto.AccountResponse, error) {
	acc, err := s.load(ctx, id, model.RoleDealer)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, acc, req)
}

func (s *accountService) DeactivateDealer(ctx context.Context, id uuid.UUID) error {
	if _, err := s.load(ctx, id, model.RoleDealer); err != nil {
		return err
	}
	return notFoundAs(s.repo.SoftDelete(ctx, id), ErrAccountNotFound)
}

// ── Sub-dealers ──────────────────────────────────────────────────────────────

func (s *accountService) CreateSubDealer(ctx context.Context, actor model.Actor, req dto.CreateAccountRequest) (*dto.AccountResponse, error) {
	if actor.Role != model.RoleDealer {
		return nil, ErrUnauthorized
	}
	parent := actor.ID
	return s.create(ctx, model.RoleSubDealer, &parent, req)
}

// ListSubDealers lists the actor's own sub-dealers, or every sub-dealer for the admin.
func (s *accountService) ListSubDealers(ctx context.Context, actor model.Actor, filter dto.AccountFilter) (*dto.AccountListResponse, error) {
	f := repository.AccountFilter{
		Role:            model.RoleSubDealer,
		Search:          filter.Search,
		IncludeInactive: filter.IncludeInactive,
		Page:            filter.Page,
		Limit:           filter.Limit,
	}
	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleDealer:
		parent := actor.ID
		f.ParentDealerID = &parent
	default:
		return nil, ErrUnauthorized
	}
	return s.list(ctx, f)
}

func (s *accountService) UpdateSubDealer(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.UpdateAccountRequest) (*dto.AccountResponse, error) {
	acc, err := s.ownedSubDealer(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, acc, req)
}

func (s *accountService) DeactivateSubDealer(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if _, err := s.ownedSubDealer(ctx, actor, id); err != nil {
		return err
	}
	return notFoundAs(s.repo.SoftDelete(ctx, id), ErrAccountNotFound)
}

func (s *accountService) ownedSubDealer(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Account, error) {
	if actor.Role != model.RoleDealer {
		return nil, ErrUnauthorized
	}
	acc, err := s.load(ctx, id, model.RoleSubDealer)
	if err != nil {
		return nil, err
	}
	if acc.ParentDealerID == nil || *acc.ParentDealerID != actor.ID {
		return nil, ErrUnauthorized
	}
	return acc, nil
}

// ── Password changes ─────────────────────────────────────────────────────────

func (s *accountService) RequestPasswordChange(ctx context.Context, role model.Role, req dto.PasswordChangeRequest) error {
	acc, err := s.repo.FindByLogin(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return notFoundAs(err, ErrAccountNotFound)
	}
	if acc.Role != role || acc.Username != strings.TrimSpace(req.Username) || acc.Phone != strings.TrimSpace(req.Phone) {
		return ErrAccountNotFound
	}
	now := s.now()
	acc.PasswordChangeStatus = model.PasswordChangePending
	acc.PasswordChangeRequestedAt = &now
	if err := s.repo.Update(ctx, acc); err != nil {
		return err
	}
	log.Info().Str("account_id", acc.ID.String()).Str("role", string(role)).Msg("accounts: password change requested")
	return nil
}

func (s *accountService) SetPassword(ctx context.Context, actor model.Actor, id uuid.UUID, password string) error {
	var acc *model.Account
	var err error
	switch actor.Role {
	case model.RoleAdmin:
		acc, err = s.load(ctx, id, model.RoleDealer)
	case model.RoleDealer:
		acc, err = s.ownedSubDealer(ctx, actor, id)
	default:
		return ErrUnauthorized
	}
	if err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	acc.PasswordHash = hash
	acc.PasswordChangeStatus = model.PasswordChangeApproved
	acc.PasswordChangeRequestedAt = nil
	return s.repo.Update(ctx, acc)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (s *accountService) create(ctx context.Context, role model.Role, parent *uuid.UUID, req dto.CreateAccountRequest) (*dto.AccountResponse, error) {
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	acc := &model.Account{
		Role:           role,
		Username:       strings.TrimSpace(req.Username),
		Phone:          strings.TrimSpace(req.Phone),
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		BusinessName:   strings.TrimSpace(req.BusinessName),
		Address:        strings.TrimSpace(req.Address),
		PasswordHash:   hash,
		ParentDealerID: parent,
		Active:         true,
	}
	if err := s.repo.Create(ctx, acc); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}
	resp := accountToResponse(acc)
	return &resp, nil
}

func (s *accountService) load(ctx context.Context, id uuid.UUID, role model.Role) (*model.Account, error) {
	acc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrAccountNotFound)
	}
	if acc.Role != role {
		return nil, ErrAccountNotFound
	}
	return acc, nil
}

func (s *accountService) update(ctx context.Context, acc *model.Account, req dto.UpdateAccountRequest) (*dto.AccountResponse, error) {
	if req.Phone != nil {
		acc.Phone = strings.TrimSpace(*req.Phone)
	}
	setIf(&acc.FirstName, req.FirstName)
	setIf(&acc.LastName, req.LastName)
	setIf(&acc.BusinessName, req.BusinessName)
	setIf(&acc.Address, req.Address)
	if err := s.repo.Update(ctx, acc); err != nil {
		return nil, err
	}
	resp := accountToResponse(acc)
	return &resp, nil
}

func (s *accountService) list(ctx context.Context, f repository.AccountFilter) (*dto.AccountListResponse, error) {
	f.Page, f.Limit = repository.NormalizePage(f.Page, f.Limit, repository.AccountPageSize)
	accounts, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	resp := &dto.AccountListResponse{Data: make([]dto.AccountResponse, len(accounts)), Total: total, Page: f.Page, Limit: f.Limit}
	for i := range accounts {
		resp.Data[i] = accountToResponse(&accounts[i])
	}
	return resp, nil
}
