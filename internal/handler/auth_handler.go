package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"swiftpolicy/internal/errors"
	"swiftpolicy/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	identity service.IdentityService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(identity service.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

// LoginRequest represents a login request for either session slot.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	AsAdmin  bool   `json:"as_admin"`
}

// MessageResponse is returned by endpoints without a payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// Login godoc
// @Summary Sign in to the customer portal or the admin terminal
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} service.LoginResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} service.LoginResult
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.identity.Login(c.Request().Context(), req.Email, req.Password, req.AsAdmin)
	if err != nil {
		return mapError(err)
	}
	if !result.Success {
		return c.JSON(http.StatusUnauthorized, result)
	}
	return c.JSON(http.StatusOK, result)
}

// Signup godoc
// @Summary Enrol a new customer
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.SignupRequest true "Signup data"
// @Success 201 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req service.SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}

	user, err := h.identity.Signup(c.Request().Context(), req)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, user)
}

// Logout godoc
// @Summary Sign out of the customer portal
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, err := ClaimsFrom(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.identity.RevokeToken(ctx, claims); err != nil {
		return mapError(err)
	}
	if err := h.identity.Logout(ctx); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "signed out"})
}

// LogoutAdmin godoc
// @Summary Sign out of the admin terminal
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/logout [post]
func (h *AuthHandler) LogoutAdmin(c echo.Context) error {
	claims, err := ClaimsFrom(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.identity.RevokeToken(ctx, claims); err != nil {
		return mapError(err)
	}
	if err := h.identity.LogoutAdmin(ctx); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "signed out"})
}

// Session godoc
// @Summary Get the session held by the caller's slot
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Session
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /me [get]
func (h *AuthHandler) Session(c echo.Context) error {
	claims, err := ClaimsFrom(c)
	if err != nil {
		return err
	}
	session, err := h.identity.CurrentSession(c.Request().Context(), claims.Slot)
	if err != nil {
		return mapError(err)
	}
	if session == nil || session.User.ID != claims.UserID {
		return echo.NewHTTPError(http.StatusNotFound, errors.ErrorResponse{
			Error: "no active session for this token",
			Code:  "SESSION_NOT_FOUND",
		})
	}
	return c.JSON(http.StatusOK, session)
}
