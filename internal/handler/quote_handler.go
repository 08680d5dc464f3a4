package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"swiftpolicy/internal/errors"
	"swiftpolicy/internal/pricing"
	"swiftpolicy/internal/service"
)

// QuoteHandler prices quote forms and resolves registrations.
type QuoteHandler struct {
	quotes   service.QuoteService
	vehicles service.VehicleService
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(quotes service.QuoteService, vehicles service.VehicleService) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, vehicles: vehicles}
}

// Quote godoc
// @Summary Price a quote form
// @Description Malformed numeric fields price as zero rather than failing.
// @Tags quotes
// @Accept json
// @Produce json
// @Param request body pricing.QuoteRequest true "Quote form"
// @Success 200 {object} model.PremiumBreakdown
// @Failure 400 {object} errors.ErrorResponse
// @Router /quotes [post]
func (h *QuoteHandler) Quote(c echo.Context) error {
	var req pricing.QuoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	breakdown, err := h.quotes.Quote(c.Request().Context(), req)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, breakdown)
}

// LookupVehicle godoc
// @Summary Look up a vehicle by registration mark
// @Description Provider failures return success=false so the client can fall back to manual entry.
// @Tags vehicles
// @Produce json
// @Param vrm path string true "Registration mark"
// @Success 200 {object} service.LookupResult
// @Failure 400 {object} errors.ErrorResponse
// @Router /vehicles/{vrm} [get]
func (h *QuoteHandler) LookupVehicle(c echo.Context) error {
	result, err := h.vehicles.Lookup(c.Request().Context(), c.Param("vrm"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// LookupVIN godoc
// @Summary Decode a vehicle identification number
// @Description Returns make, model and year. Decoder failures return success=false so the client can fall back to manual entry.
// @Tags vehicles
// @Produce json
// @Param vin path string true "17-character VIN"
// @Success 200 {object} service.LookupResult
// @Failure 400 {object} errors.ErrorResponse
// @Router /vehicles/vin/{vin} [get]
func (h *QuoteHandler) LookupVIN(c echo.Context) error {
	result, err := h.vehicles.LookupVIN(c.Request().Context(), c.Param("vin"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// VehicleLogs godoc
// @Summary List vehicle lookup history
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.VehicleLookupLog
// @Router /admin/vehicle-logs [get]
func (h *QuoteHandler) VehicleLogs(c echo.Context) error {
	logs, err := h.vehicles.Logs(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, logs)
}
