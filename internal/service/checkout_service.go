package service

import (
	"context"
	"strconv"
	"strings"

	apperrors "swiftpolicy/internal/errors"
	"swiftpolicy/internal/model"
	"swiftpolicy/internal/pricing"
)

// PurchaseRequest is a customer's checkout: the policy to bind plus the quote
// form it was priced from.
type PurchaseRequest struct {
	BindRequest
	Quote pricing.QuoteRequest `json:"quote"`
}

// CheckoutService binds customer purchases at a premium priced by the rating engine.
type CheckoutService interface {
	Purchase(ctx context.Context, actor model.Actor, req PurchaseRequest) (*model.Policy, error)
}

type checkoutService struct {
	policies PolicyService
	quotes   QuoteService
}

// NewCheckoutService builds a CheckoutService.
func NewCheckoutService(policies PolicyService, quotes QuoteService) CheckoutService {
	if policies == nil || quotes == nil {
		panic("service: checkout needs policy and quote services")
	}
	return &checkoutService{policies: policies, quotes: quotes}
}

// Purchase binds the policy to the caller. Client-supplied premium, breakdown,
// card-on-file and payment reference are discarded; the premium is re-priced
// from the quote form with the rating factors pinned to the policy details.
func (s *checkoutService) Purchase(ctx context.Context, actor model.Actor, req PurchaseRequest) (*model.Policy, error) {
	if req.Details == nil {
		return nil, apperrors.NewValidationError("details", "are required")
	}
	bind := req.BindRequest
	bind.UserID = actor.ID
	bind.Premium = nil
	if bind.PolicyType == "" {
		bind.PolicyType = model.PolicyTypeAnnual
	}

	details := req.Details.Normalize()
	details.Card = nil
	details.PaymentRef = ""
	details.Breakdown = nil

	form := req.Quote
	form.PolicyType = string(bind.PolicyType)
	form.CoverLevel = string(details.Coverage.CoverLevel)
	form.NCBYears = strconv.Itoa(details.Coverage.NCBYears)
	form.Addons = details.Addons
	if details.Vehicle.Value.IsPositive() {
		form.VehicleValue = details.Vehicle.Value.String()
	}
	if strings.TrimSpace(details.Coverage.UsageType) != "" {
		form.Usage = details.Coverage.UsageType
	}

	breakdown, err := s.quotes.Quote(ctx, form)
	if err != nil {
		return nil, err
	}
	details.Breakdown = breakdown
	bind.Details = &details

	return s.policies.Bind(ctx, actor, bind)
}
