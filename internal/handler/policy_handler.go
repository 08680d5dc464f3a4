package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"swiftpolicy/internal/errors"
	"swiftpolicy/internal/model"
	"swiftpolicy/internal/service"
)

// PolicyHandler handles policy endpoints for both portals.
type PolicyHandler struct {
	policies service.PolicyService
	checkout service.CheckoutService
}

// NewPolicyHandler creates a new policy handler.
func NewPolicyHandler(policies service.PolicyService, checkout service.CheckoutService) *PolicyHandler {
	return &PolicyHandler{policies: policies, checkout: checkout}
}

// PolicyStatusRequest moves a policy along the lifecycle.
type PolicyStatusRequest struct {
	Status model.PolicyStatus `json:"status" validate:"required"`
	Reason string             `json:"reason"`
}

// RenewalRequest sets the renewal date.
type RenewalRequest struct {
	RenewalDate string `json:"renewal_date" validate:"required"`
}

// Bind godoc
// @Summary Bind a policy manually for any customer
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.BindRequest true "Policy data"
// @Success 201 {object} model.Policy
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/policies [post]
func (h *PolicyHandler) Bind(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req service.BindRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	policy, err := h.policies.Bind(c.Request().Context(), actor, req)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, policy)
}

// Purchase godoc
// @Summary Buy a policy as the signed-in customer
// @Description The policy is always bound to the caller and priced from the quote form. user_id, premium, details.breakdown and details.card in the body are ignored; pay with payment.
// @Tags policies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.PurchaseRequest true "Policy data and quote form"
// @Success 201 {object} model.Policy
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /policies [post]
func (h *PolicyHandler) Purchase(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req service.PurchaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	policy, err := h.checkout.Purchase(c.Request().Context(), actor, req)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, policy)
}

// MyPolicies godoc
// @Summary List the signed-in customer's policies
// @Tags policies
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Policy
// @Failure 401 {object} errors.ErrorResponse
// @Router /policies [get]
func (h *PolicyHandler) MyPolicies(c echo.Context) error {
	claims, err := ClaimsFrom(c)
	if err != nil {
		return err
	}
	policies, err := h.policies.ListForUser(c.Request().Context(), claims.UserID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, policies)
}

// List godoc
// @Summary List all policies, removed ones included
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Policy
// @Router /admin/policies [get]
func (h *PolicyHandler) List(c echo.Context) error {
	policies, err := h.policies.List(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, policies)
}

// Get godoc
// @Summary Get policy by id
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Policy ID"
// @Success 200 {object} model.Policy
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/policies/{id} [get]
func (h *PolicyHandler) Get(c echo.Context) error {
	policy, err := h.policies.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, policy)
}

// UpdateStatus godoc
// @Summary Transition a policy
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Policy ID"
// @Param request body PolicyStatusRequest true "Target status"
// @Success 200 {object} model.Policy
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /admin/policies/{id}/status [put]
func (h *PolicyHandler) UpdateStatus(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req PolicyStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	policy, err := h.policies.UpdateStatus(c.Request().Context(), actor, c.Param("id"), req.Status, req.Reason)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, policy)
}

// UpdateNotes godoc
// @Summary Replace a policy's notes
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Policy ID"
// @Param request body NotesRequest true "Notes"
// @Success 200 {object} model.Policy
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/policies/{id}/notes [put]
func (h *PolicyHandler) UpdateNotes(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req NotesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	policy, err := h.policies.UpdateNotes(c.Request().Context(), actor, c.Param("id"), req.Notes)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, policy)
}

// UpdateRenewal godoc
// @Summary Set a policy's renewal date
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Policy ID"
// @Param request body RenewalRequest true "Renewal date (YYYY-MM-DD)"
// @Success 200 {object} model.Policy
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /admin/policies/{id}/renewal [put]
func (h *PolicyHandler) UpdateRenewal(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req RenewalRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	policy, err := h.policies.UpdateRenewal(c.Request().Context(), actor, c.Param("id"), req.RenewalDate)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, policy)
}

// Remove godoc
// @Summary Soft-delete a policy
// @Description The policy stays in the registry with status Deleted.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Policy ID"
// @Param reason query string true "Reason"
// @Success 200 {object} model.Policy
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /admin/policies/{id} [delete]
func (h *PolicyHandler) Remove(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req ReasonRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	policy, err := h.policies.Remove(c.Request().Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, policy)
}
