package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"swiftpolicy/internal/audit"
	"swiftpolicy/internal/errors"
	"swiftpolicy/internal/model"
	"swiftpolicy/internal/service"
)

// AdminHandler serves the operations console.
type AdminHandler struct {
	ops      service.OperationsService
	risk     service.RiskConfigService
	recorder *audit.Recorder
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(ops service.OperationsService, risk service.RiskConfigService, recorder *audit.Recorder) *AdminHandler {
	return &AdminHandler{ops: ops, risk: risk, recorder: recorder}
}

// Diagnostics godoc
// @Summary Run system diagnostics
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.DiagnosticsReport
// @Router /admin/diagnostics [get]
func (h *AdminHandler) Diagnostics(c echo.Context) error {
	report, err := h.ops.RunDiagnostics(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, report)
}

// MIDSubmissions godoc
// @Summary List Motor Insurance Database submissions
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.MIDSubmission
// @Router /admin/mid [get]
func (h *AdminHandler) MIDSubmissions(c echo.Context) error {
	subs, err := h.ops.MIDSubmissions(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, subs)
}

// RetryMIDSubmission godoc
// @Summary Retry a MID submission
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} model.MIDSubmission
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/mid/{id}/retry [post]
func (h *AdminHandler) RetryMIDSubmission(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	sub, err := h.ops.RetryMIDSubmission(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, sub)
}

// GetRiskConfig godoc
// @Summary Get the pricing risk configuration
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.RiskConfig
// @Router /admin/risk-config [get]
func (h *AdminHandler) GetRiskConfig(c echo.Context) error {
	cfg, err := h.risk.Get(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, cfg)
}

// UpdateRiskConfig godoc
// @Summary Patch the pricing risk configuration
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.RiskConfigPatch true "Fields to change"
// @Success 200 {object} model.RiskConfig
// @Failure 400 {object} errors.ErrorResponse
// @Router /admin/risk-config [put]
func (h *AdminHandler) UpdateRiskConfig(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var patch model.RiskConfigPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	cfg, err := h.risk.Update(c.Request().Context(), actor, patch)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, cfg)
}

// AuditLogs godoc
// @Summary List audit entries, most recent first
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param entity_type query string false "USER, POLICY, SYSTEM, ADMIN"
// @Param actor_id query string false "Actor ID"
// @Param target_id query string false "Target ID"
// @Param action query string false "Action"
// @Param limit query int false "Maximum entries"
// @Success 200 {array} model.AuditLog
// @Failure 400 {object} errors.ErrorResponse
// @Router /admin/audit-logs [get]
func (h *AdminHandler) AuditLogs(c echo.Context) error {
	filter := audit.Filter{
		EntityType: model.EntityType(c.QueryParam("entity_type")),
		ActorID:    c.QueryParam("actor_id"),
		TargetID:   c.QueryParam("target_id"),
		Action:     c.QueryParam("action"),
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
				Error: "limit must be a non-negative integer",
				Code:  "VALIDATION_ERROR",
				Field: "limit",
			})
		}
		filter.Limit = limit
	}

	logs, err := h.recorder.List(c.Request().Context(), filter)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, logs)
}

// ActivityLogs godoc
// @Summary List admin activity entries, most recent first
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.AdminActivityLog
// @Router /admin/activity-logs [get]
func (h *AdminHandler) ActivityLogs(c echo.Context) error {
	logs, err := h.recorder.Activity(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, logs)
}
