package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"swiftpolicy/internal/model"
	"swiftpolicy/internal/service"
)

// UserHandler exposes administrator operations on customer accounts.
type UserHandler struct {
	svc service.UserAdminService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserAdminService) *UserHandler {
	return &UserHandler{svc: svc}
}

// UserStatusRequest changes the regulatory status of a user.
type UserStatusRequest struct {
	Status model.UserStatus `json:"status" validate:"required"`
	Reason string           `json:"reason"`
}

// ReasonRequest carries a mandatory reason.
type ReasonRequest struct {
	Reason string `json:"reason" query:"reason" validate:"required"`
}

// KYCRequest records an identity verification outcome.
type KYCRequest struct {
	KYCStatus model.KYCStatus `json:"kyc_status" validate:"required"`
	Reason    string          `json:"reason"`
}

// RiskRequest re-tiers a customer.
type RiskRequest struct {
	RiskLevel model.RiskLevel `json:"risk_level" validate:"required"`
	Reason    string          `json:"reason"`
}

// NotesRequest replaces internal notes.
type NotesRequest struct {
	Notes string `json:"notes"`
}

// ListUsers godoc
// @Summary List users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.List(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, users)
}

// GetUser godoc
// @Summary Get user by id
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} model.User
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateStatus godoc
// @Summary Change a user's account status
// @Description A reason is required unless the target status is Active. Active also re-enables the profile.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body UserStatusRequest true "Status change"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id}/status [put]
func (h *UserHandler) UpdateStatus(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req UserStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.svc.UpdateStatus(c.Request().Context(), actor, c.Param("id"), req.Status, req.Reason)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// ActivateProfile godoc
// @Summary Enable a customer profile
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} model.User
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id}/activate [post]
func (h *UserHandler) ActivateProfile(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	user, err := h.svc.ActivateProfile(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// DisableProfile godoc
// @Summary Disable a customer profile
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body ReasonRequest true "Reason"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id}/disable [post]
func (h *UserHandler) DisableProfile(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req ReasonRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.svc.DisableProfile(c.Request().Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateKYC godoc
// @Summary Record a KYC outcome
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body KYCRequest true "KYC status"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id}/kyc [put]
func (h *UserHandler) UpdateKYC(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req KYCRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.svc.UpdateKYC(c.Request().Context(), actor, c.Param("id"), req.KYCStatus, req.Reason)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateRisk godoc
// @Summary Change a customer's risk level
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body RiskRequest true "Risk level"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id}/risk [put]
func (h *UserHandler) UpdateRisk(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req RiskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.svc.UpdateRisk(c.Request().Context(), actor, c.Param("id"), req.RiskLevel, req.Reason)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateNotes godoc
// @Summary Replace a customer's internal notes
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body NotesRequest true "Notes"
// @Success 200 {object} model.User
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id}/notes [put]
func (h *UserHandler) UpdateNotes(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req NotesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.svc.UpdateNotes(c.Request().Context(), actor, c.Param("id"), req.Notes)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, user)
}
