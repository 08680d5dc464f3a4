// Package lifecycle holds the closed policy state machine.
package lifecycle

import (
	apperrors "swiftpolicy/internal/errors"
	"swiftpolicy/internal/model"
)

var transitions = map[model.PolicyStatus][]model.PolicyStatus{
	model.PolicyStatusPendingApproval: {model.PolicyStatusApproved, model.PolicyStatusActive, model.PolicyStatusCancelled},
	model.PolicyStatusApproved:        {model.PolicyStatusActive, model.PolicyStatusCancelled},
	model.PolicyStatusActive: {
		model.PolicyStatusCancelled,
		model.PolicyStatusSuspended,
		model.PolicyStatusFrozen,
		model.PolicyStatusExpired,
		model.PolicyStatusLapsed,
		model.PolicyStatusTerminated,
		model.PolicyStatusRenewed,
	},
	model.PolicyStatusSuspended: {model.PolicyStatusActive, model.PolicyStatusCancelled},
	model.PolicyStatusCancelled: {model.PolicyStatusActive},
	model.PolicyStatusFrozen:    {model.PolicyStatusActive, model.PolicyStatusCancelled},
	model.PolicyStatusValidated: {model.PolicyStatusActive, model.PolicyStatusBlocked},
	model.PolicyStatusBlocked:   {model.PolicyStatusActive},
	model.PolicyStatusExpired:   {model.PolicyStatusRenewed, model.PolicyStatusLapsed},
	model.PolicyStatusLapsed:    {model.PolicyStatusActive, model.PolicyStatusRenewed},
	model.PolicyStatusRenewed:   {model.PolicyStatusActive},

	// Terminated may only be archived, not removed.
	model.PolicyStatusTerminated: {model.PolicyStatusDeleted},
	model.PolicyStatusDeleted:    nil,
	model.PolicyStatusRemoved:    nil,
}

// Known reports whether s is a recognised policy status.
func Known(s model.PolicyStatus) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether the table allows moving from one status to another.
func CanTransition(from, to model.PolicyStatus) bool {
	if !Known(from) || !Known(to) || from.Terminal() {
		return false
	}
	if from != model.PolicyStatusTerminated && to.Terminal() {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Next lists every status reachable from s in one step.
func Next(s model.PolicyStatus) []model.PolicyStatus {
	if !Known(s) || s.Terminal() {
		return nil
	}
	out := append([]model.PolicyStatus(nil), transitions[s]...)
	if s != model.PolicyStatusTerminated {
		out = append(out, model.PolicyStatusDeleted, model.PolicyStatusRemoved)
	}
	return out
}

// RequiresReason reports whether moving into to must carry a reason.
func RequiresReason(to model.PolicyStatus) bool {
	return to != model.PolicyStatusActive
}

// Validate checks the edge and the reason guard. It returns an
// *errors.InvalidTransitionError or *errors.ValidationError.
func Validate(from, to model.PolicyStatus, reason string) error {
	if !Known(to) {
		return apperrors.NewValidationError("status", "unknown policy status "+string(to))
	}
	if !CanTransition(from, to) {
		return &apperrors.InvalidTransitionError{From: string(from), To: string(to)}
	}
	if RequiresReason(to) && reason == "" {
		return apperrors.NewValidationError("reason", "a reason is required for this status change")
	}
	return nil
}
