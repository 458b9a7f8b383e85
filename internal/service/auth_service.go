package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"dealerstock/internal/config"
	"dealerstock/internal/dto"
	"dealerstock/internal/model"
	"dealerstock/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Token types carried in the "typ" claim.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

const bcryptCost = 12

var errInvalidRefresh = errors.New("invalid or expired refresh token")

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
}

type authService struct {
	repo repository.AccountRepository
	cfg  *config.Config
	now  Clock
}

func NewAuthService(repo repository.AccountRepository, cfg *config.Config) AuthService {
	return &authService{repo: repo, cfg: cfg, now: systemClock}
}

// Login accepts a username or phone number. Accounts with a pending password
// change cannot log in until it is approved.
func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	acc, err := s.repo.FindByLogin(ctx, strings.TrimSpace(req.Identifier))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if acc.PasswordChangeStatus == model.PasswordChangePending {
		return nil, ErrPasswordChangePending
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(acc)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidRefresh
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["typ"] != TokenRefresh {
		return nil, errInvalidRefresh
	}
	idStr, _ := claims["account_id"].(string)
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, errInvalidRefresh
	}

	acc, err := s.repo.FindByID(ctx, id)
	if err != nil || !acc.Active {
		return nil, ErrInvalidCredentials
	}
	if acc.PasswordChangeStatus == model.PasswordChangePending {
		return nil, ErrPasswordChangePending
	}
	return s.issue(acc)
}

func (s *authService) issue(acc *model.Account) (*dto.LoginResponse, error) {
	access, err := s.generateToken(acc, TokenAccess, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refresh, err := s.generateToken(acc, TokenRefresh, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		Account:      accountToResponse(acc),
	}, nil
}

func (s *authService) generateToken(acc *model.Account, typ string, duration time.Duration) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"account_id": acc.ID.String(),
		"role":       string(acc.Role),
		"typ":        typ,
		"exp":        now.Add(duration).Unix(),
		"iat":        now.Unix(),
	}
	if acc.ParentDealerID != nil {
		claims["parent_dealer_id"] = acc.ParentDealerID.String()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func hashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
