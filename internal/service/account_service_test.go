package service_test

import (
	"context"
	"testing"
	"time"

	"dealerstock/internal/config"
	"dealerstock/internal/dto"
	"dealerstock/internal/model"
	"dealerstock/internal/repository"
	"dealerstock/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory Repository Stub ─────────────────────────────────────────────────

type stubAccountRepo struct {
	accounts map[uuid.UUID]*model.Account
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[uuid.UUID]*model.Account)}
}

func (r *stubAccountRepo) Create(_ context.Context, a *model.Account) error {
	for _, existing := range r.accounts {
		if existing.Username == a.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.PasswordChangeStatus == "" {
		a.PasswordChangeStatus = model.PasswordChangeNone
	}
	cp := *a
	r.accounts[a.ID] = &cp
	return nil
}

func (r *stubAccountRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *stubAccountRepo) FindByLogin(_ context.Context, identifier string) (*model.Account, error) {
	for _, a := range r.accounts {
		if a.Active && (a.Username == identifier || a.Phone == identifier) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubAccountRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Account, error) {
	var out []model.Account
	for _, id := range ids {
		if a, ok := r.accounts[id]; ok {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *stubAccountRepo) List(_ context.Context, f repository.AccountFilter) ([]model.Account, int64, error) {
	var out []model.Account
	for _, a := range r.accounts {
		if a.Role != f.Role || (!a.Active && !f.IncludeInactive) {
			continue
		}
		if f.ParentDealerID != nil && (a.ParentDealerID == nil || *a.ParentDealerID != *f.ParentDealerID) {
			continue
		}
		out = append(out, *a)
	}
	return out, int64(len(out)), nil
}

func (r *stubAccountRepo) CountByRole(_ context.Context, role model.Role) (int64, error) {
	var n int64
	for _, a := range r.accounts {
		if a.Role == role {
			n++
		}
	}
	return n, nil
}

func (r *stubAccountRepo) Update(_ context.Context, a *model.Account) error {
	if _, ok := r.accounts[a.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *a
	r.accounts[a.ID] = &cp
	return nil
}

func (r *stubAccountRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	a, ok := r.accounts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.Active = false
	return nil
}

var _ repository.AccountRepository = (*stubAccountRepo)(nil)

// ── Helpers ───────────────────────────────────────────────────────────────────

const testSecret = "test_jwt_secret_32_chars_minimum!"

func newTestCfg() *config.Config {
	return &config.Config{
		JWTSecret:          testSecret,
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
	}
}

func accountReq(username, phone string) dto.CreateAccountRequest {
	return dto.CreateAccountRequest{
		Username:  username,
		Phone:     phone,
		FirstName: "Test",
		Password:  "secret-pass",
	}
}

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	return claims
}

// ── Auth ──────────────────────────────────────────────────────────────────────

func TestLogin_ByUsernameOrPhone(t *testing.T) {
	repo := newStubAccountRepo()
	accounts := service.NewAccountService(repo)
	auth := service.NewAuthService(repo, newTestCfg())

	dealer, err := accounts.CreateDealer(context.Background(), accountReq("pumps-north", "0711000001"))
	require.NoError(t, err)

	for _, id := range []string{"pumps-north", "0711000001", "  pumps-north "} {
		resp, err := auth.Login(context.Background(), dto.LoginRequest{Identifier: id, Password: "secret-pass"})
		require.NoError(t, err, id)
		assert.Equal(t, "bearer", resp.TokenType)
		assert.Equal(t, 8*3600, resp.ExpiresIn)
		assert.Equal(t, dealer.ID, resp.Account.ID)

		claims := parseClaims(t, resp.AccessToken)
		assert.Equal(t, dealer.ID, claims["account_id"])
		assert.Equal(t, "dealer", claims["role"])
		assert.Equal(t, service.TokenAccess, claims["typ"])
		assert.NotContains(t, claims, "parent_dealer_id")
	}

	_, err = auth.Login(context.Background(), dto.LoginRequest{Identifier: "pumps-north", Password: "wrong"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = auth.Login(context.Background(), dto.LoginRequest{Identifier: "nobody", Password: "secret-pass"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestLogin_SubDealerTokenCarriesParent(t *testing.T) {
	repo := newStubAccountRepo()
	accounts := service.NewAccountService(repo)
	auth := service.NewAuthService(repo, newTestCfg())

	dealer, err := accounts.CreateDealer(context.Background(), accountReq("pumps-east", "0711000002"))
	require.NoError(t, err)
	dealerActor := model.Actor{Role: model.RoleDealer, ID: uuid.MustParse(dealer.ID)}
	_, err = accounts.CreateSubDealer(context.Background(), dealerActor, accountReq("east-shop-1", "0711000003"))
	require.NoError(t, err)

	resp, err := auth.Login(context.Background(), dto.LoginRequest{Identifier: "east-shop-1", Password: "secret-pass"})
	require.NoError(t, err)
	assert.Equal(t, dealer.ID, parseClaims(t, resp.AccessToken)["parent_dealer_id"])
}

func TestRefresh_RequiresRefreshToken(t *testing.T) {
	repo := newStubAccountRepo()
	accounts := service.NewAccountService(repo)
	auth := service.NewAuthService(repo, newTestCfg())
	_, err := accounts.CreateDealer(context.Background(), accountReq("pumps-west", "0711000004"))
	require.NoError(t, err)

	login, err := auth.Login(context.Background(), dto.LoginRequest{Identifier: "pumps-west", Password: "secret-pass"})
	require.NoError(t, err)

	refreshed, err := auth.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = auth.Refresh(context.Background(), login.AccessToken)
	assert.Error(t, err, "an access token is not a refresh token")

	_, err = auth.Refresh(context.Background(), "garbage")
	assert.Error(t, err)
}

func TestRefresh_RejectsExpiredAndForeignTokens(t *testing.T) {
	repo := newStubAccountRepo()
	auth := service.NewAuthService(repo, newTestCfg())

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"account_id": uuid.NewString(), "typ": service.TokenRefresh,
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	s, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = auth.Refresh(context.Background(), s)
	assert.Error(t, err)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"account_id": uuid.NewString(), "typ": service.TokenRefresh,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err = foreign.SignedString([]byte("another-secret"))
	require.NoError(t, err)
	_, err = auth.Refresh(context.Background(), s)
	assert.Error(t, err)
}

// ── Accounts ──────────────────────────────────────────────────────────────────

func TestSeedAdmin_OnlyOnce(t *testing.T) {
	repo := newStubAccountRepo()
	accounts := service.NewAccountService(repo)

	admin, err := accounts.SeedAdmin(context.Background(), accountReq("root", ""))
	require.NoError(t, err)
	assert.Equal(t, "admin", admin.Role)

	_, err = accounts.SeedAdmin(context.Background(), accountReq("root2", ""))
	assert.ErrorIs(t, err, service.ErrAdminExists)
}

func TestCreateDealer_DuplicateUsername(t *testing.T) {
	accounts := service.NewAccountService(newStubAccountRepo())
	_, err := accounts.CreateDealer(context.Background(), accountReq("dup", "1"))
	require.NoError(t, err)
	_, err = accounts.CreateDealer(context.Background(), accountReq("dup", "2"))
	assert.ErrorIs(t, err, service.ErrDuplicateUsername)
}

func TestChangeAdminPassword_ChecksCurrent(t *testing.T) {
	repo := newStubAccountRepo()
	accounts := service.NewAccountService(repo)
	auth := service.NewAuthService(repo, newTestCfg())
	admin, err := accounts.SeedAdmin(context.Background(), accountReq("root", ""))
	require.NoError(t, err)
	actor := model.Actor{Role: model.RoleAdmin, ID: uuid.MustParse(admin.ID)}

	err = accounts.ChangeAdminPassword(context.Background(), actor, dto.ChangeOwnPasswordRequest{CurrentPassword: "nope", NewPassword: "brand-new"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	require.NoError(t, accounts.ChangeAdminPassword(context.Background(), actor,
		dto.ChangeOwnPasswordRequest{CurrentPassword: "secret-pass", NewPassword: "brand-new"}))
	_, err = auth.Login(context.Background(), dto.LoginRequest{Identifier: "root", Password: "brand-new"})
	assert.NoError(t, err)
}

func TestPasswordChangeFlow(t *testing.T) {
	repo := newStubAccountRepo()
	accounts := service.NewAccountService(repo)
	auth := service.NewAuthService(repo, newTestCfg())
	ctx := context.Background()

	admin, err := accounts.SeedAdmin(ctx, accountReq("root", ""))
	require.NoError(t, err)
	dealer, err := accounts.CreateDealer(ctx, accountReq("pumps-south", "0711000005"))
	require.NoError(t, err)

	err = accounts.RequestPasswordChange(ctx, model.RoleDealer, dto.PasswordChangeRequest{Username: "pumps-south", Phone: "0000"})
	assert.ErrorIs(t, err, service.ErrAccountNotFound, "phone must match")
	err = accounts.RequestPasswordChange(ctx, model.RoleSubDealer, dto.PasswordChangeRequest{Username: "pumps-south", Phone: "0711000005"})
	assert.ErrorIs(t, err, service.ErrAccountNotFound, "role must match")

	require.NoError(t, accounts.RequestPasswordChange(ctx, model.RoleDealer,
		dto.PasswordChangeRequest{Username: "pumps-south", Phone: "0711000005"}))

	_, err = auth.Login(ctx, dto.LoginRequest{Identifier: "pumps-south", Password: "secret-pass"})
	assert.ErrorIs(t, err, service.ErrPasswordChangePending)

	adminActor := model.Actor{Role: model.RoleAdmin, ID: uuid.MustParse(admin.ID)}
	require.NoError(t, accounts.SetPassword(ctx, adminActor, uuid.MustParse(dealer.ID), "fresh-pass"))

	resp, err := auth.Login(ctx, dto.LoginRequest{Identifier: "pumps-south", Password: "fresh-pass"})
	require.NoError(t, err)
	assert.Equal(t, string(model.PasswordChangeApproved), resp.Account.PasswordChangeStatus)
	assert.Nil(t, resp.Account.PasswordRequestedAt)
}

func TestSubDealerManagement_ScopedToParent(t *testing.T) {
	repo := newStubAccountRepo()
	accounts := service.NewAccountService(repo)
	ctx := context.Background()

	d1, err := accounts.CreateDealer(ctx, accountReq("d1", "1001"))
	require.NoError(t, err)
	d2, err := accounts.CreateDealer(ctx, accountReq("d2", "1002"))
	require.NoError(t, err)
	a1 := model.Actor{Role: model.RoleDealer, ID: uuid.MustParse(d1.ID)}
	a2 := model.Actor{Role: model.RoleDealer, ID: uuid.MustParse(d2.ID)}

	sub, err := accounts.CreateSubDealer(ctx, a1, accountReq("d1-shop", "1003"))
	require.NoError(t, err)
	subID := uuid.MustParse(sub.ID)
	assert.Equal(t, d1.ID, *sub.ParentDealerID)

	name := "Renamed"
	_, err = accounts.UpdateSubDealer(ctx, a2, subID, dto.UpdateAccountRequest{FirstName: &name})
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	assert.ErrorIs(t, accounts.DeactivateSubDealer(ctx, a2, subID), service.ErrUnauthorized)
	assert.ErrorIs(t, accounts.SetPassword(ctx, a2, subID, "whatever"), service.ErrUnauthorized)

	updated, err := accounts.UpdateSubDealer(ctx, a1, subID, dto.UpdateAccountRequest{FirstName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.FirstName)

	own, err := accounts.ListSubDealers(ctx, a2, dto.AccountFilter{Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Empty(t, own.Data)

	all, err := accounts.ListSubDealers(ctx, model.Actor{Role: model.RoleAdmin, ID: uuid.New()}, dto.AccountFilter{Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Len(t, all.Data, 1)

	require.NoError(t, accounts.DeactivateSubDealer(ctx, a1, subID))
	active, err := accounts.ListSubDealers(ctx, a1, dto.AccountFilter{Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Empty(t, active.Data)

	// a dealer id is not a sub-dealer id
	assert.ErrorIs(t, accounts.DeactivateSubDealer(ctx, a1, uuid.MustParse(d2.ID)), service.ErrAccountNotFound)
}
