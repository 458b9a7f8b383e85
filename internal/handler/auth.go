package handler

import (
	"net/http"

	"dealerstock/internal/dto"
	"dealerstock/internal/middleware"
	"dealerstock/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc      service.AuthService
	accounts service.AccountService
}

func NewAuthHandler(svc service.AuthService, accounts service.AccountService) *AuthHandler {
	return &AuthHandler{svc: svc, accounts: accounts}
}

// Login godoc
// @Summary Log in with username or phone
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} apierror.APIError
// @Failure 403 {object} apierror.APIError
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh godoc
// @Summary Exchange a refresh token for a new token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.RefreshRequest true "Refresh token"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} apierror.APIError
// @Router /v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ChangeAdminPassword godoc
// @Summary Change the admin's own password
// @Tags auth
// @Security BearerAuth
// @Accept json
// @Param body body dto.ChangeOwnPasswordRequest true "Current and new password"
// @Success 204
// @Failure 401 {object} apierror.APIError
// @Router /v1/admin/password [put]
func (h *AuthHandler) ChangeAdminPassword(c *gin.Context) {
	var req dto.ChangeOwnPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.accounts.ChangeAdminPassword(c.Request.Context(), middleware.GetActor(c), req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
