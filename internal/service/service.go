package service

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"swiftpolicy/internal/audit"
	apperrors "swiftpolicy/internal/errors"
	"swiftpolicy/internal/idgen"
	"swiftpolicy/internal/metrics"
	"swiftpolicy/internal/repository"
)

// Deps are the collaborators shared by every service.
type Deps struct {
	Store    repository.Store
	Recorder *audit.Recorder
	IDs      *idgen.Generator
	Log      *zap.Logger
	Metrics  *metrics.Metrics
	// Now defaults to time.Now in UTC.
	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Store == nil || d.Recorder == nil || d.IDs == nil {
		panic("service: store, recorder and id generator are required")
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

// unusedDisplayID draws policy references until one is free in tx.
func unusedDisplayID(ids *idgen.Generator, policies repository.PolicyRepository) (string, error) {
	return idgen.Unique(ids.DisplayID, func(id string) (bool, error) {
		_, err := policies.FindByDisplayID(id)
		return inUse(err, apperrors.ErrPolicyNotFound)
	})
}

// unusedClientCode draws customer codes until one is free in tx.
func unusedClientCode(ids *idgen.Generator, users repository.UserRepository) (string, error) {
	return idgen.Unique(ids.ClientCode, func(code string) (bool, error) {
		_, err := users.FindByClientCode(code)
		return inUse(err, apperrors.ErrUserNotFound)
	})
}

func inUse(err, notFound error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, notFound):
		return false, nil
	default:
		return false, err
	}
}
