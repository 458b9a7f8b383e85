package handler

import (
	"net/http"

	"dealerstock/internal/dto"
	"dealerstock/internal/middleware"
	"dealerstock/internal/model"
	"dealerstock/internal/service"

	"github.com/gin-gonic/gin"
)

// AccountsHandler serves dealer and sub-dealer management.
type AccountsHandler struct{ svc service.AccountService }

func NewAccountsHandler(svc service.AccountService) *AccountsHandler {
	return &AccountsHandler{svc: svc}
}

// ── Dealers (admin) ──────────────────────────────────────────────────────────

// CreateDealer godoc
// @Summary Create a dealer account
// @Tags dealers
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.CreateAccountRequest true "Dealer"
// @Success 201 {object} dto.AccountResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/dealers [post]
func (h *AccountsHandler) CreateDealer(c *gin.Context) {
	var req dto.CreateAccountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateDealer(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListDealers godoc
// @Summary List dealers
// @Tags dealers
// @Security BearerAuth
// @Produce json
// @Param search query string false "Username, name or phone"
// @Param include_inactive query bool false "Include deactivated accounts"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(50)
// @Success 200 {object} dto.AccountListResponse
// @Router /v1/dealers [get]
func (h *AccountsHandler) ListDealers(c *gin.Context) {
	var filter dto.AccountFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListDealers(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AccountsHandler) UpdateDealer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateAccountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateDealer(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AccountsHandler) DeactivateDealer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeactivateDealer(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Sub-dealers (dealer; admin read) ─────────────────────────────────────────

// CreateSubDealer godoc
// @Summary Create a sub-dealer under the calling dealer
// @Tags sub-dealers
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.CreateAccountRequest true "Sub-dealer"
// @Success 201 {object} dto.AccountResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/sub-dealers [post]
func (h *AccountsHandler) CreateSubDealer(c *gin.Context) {
	var req dto.CreateAccountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateSubDealer(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListSubDealers serves both GET /sub-dealers (the dealer's own) and
// GET /sub-dealers/all (admin); the service scopes by role.
func (h *AccountsHandler) ListSubDealers(c *gin.Context) {
	var filter dto.AccountFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListSubDealers(c.Request.Context(), middleware.GetActor(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AccountsHandler) UpdateSubDealer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateAccountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateSubDealer(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AccountsHandler) DeactivateSubDealer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeactivateSubDealer(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Password changes ─────────────────────────────────────────────────────────

// SetPassword godoc
// @Summary Set a managed account's password and approve a pending request
// @Tags dealers
// @Security BearerAuth
// @Accept json
// @Param id path string true "Account ID"
// @Param body body dto.SetPasswordRequest true "New password"
// @Success 204
// @Failure 403 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /v1/dealers/{id}/password [put]
func (h *AccountsHandler) SetPassword(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.SetPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.SetPassword(c.Request.Context(), middleware.GetActor(c), id, req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RequestPasswordChange returns the public handler for role. An unknown
// username/phone pair answers 404 like any missing account.
//
// @Summary Request a password change (no token)
// @Tags auth
// @Accept json
// @Param body body dto.PasswordChangeRequest true "Username and phone"
// @Success 202
// @Failure 404 {object} apierror.APIError
// @Router /v1/dealers/password-request [post]
func (h *AccountsHandler) RequestPasswordChange(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.PasswordChangeRequest
		if !bindAndValidate(c, &req) {
			return
		}
		if err := h.svc.RequestPasswordChange(c.Request.Context(), role, req); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": string(model.PasswordChangePending)})
	}
}
