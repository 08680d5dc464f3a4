package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	apperrors "swiftpolicy/internal/errors"
	"swiftpolicy/internal/idgen"
	"swiftpolicy/internal/model"
	"swiftpolicy/internal/repository"
	"swiftpolicy/internal/vehicle"
)

// Vehicle lookup messages.
const (
	MsgInvalidRegistration = "Please enter a valid UK registration number."
	MsgVehicleNotFound     = "Vehicle not found. Please check registration number or enter details manually."
	MsgInvalidVIN          = "Please enter a valid 17-character VIN."
	MsgVINNotDecoded       = "VIN could not be decoded. Please enter vehicle details manually."
	notAvailable           = "N/A"
)

// LookupResult is the outcome of a registration lookup. Provider failures are
// reported here rather than as errors so the caller can fall back to manual entry.
type LookupResult struct {
	Success bool               `json:"success"`
	Data    *model.VehicleSpec `json:"data,omitempty"`
	Source  model.LookupSource `json:"source"`
	Error   string             `json:"error,omitempty"`
}

// VehicleService resolves registration marks to vehicle specifications.
type VehicleService interface {
	Lookup(ctx context.Context, vrm string) (*LookupResult, error)
	LookupVIN(ctx context.Context, vin string) (*LookupResult, error)
	Logs(ctx context.Context) ([]model.VehicleLookupLog, error)
}

type vehicleService struct {
	Deps
	provider vehicle.Provider
	log      *zap.Logger
}

// NewVehicleService builds a VehicleService. provider may be nil.
func NewVehicleService(deps Deps, provider vehicle.Provider) VehicleService {
	deps = deps.withDefaults()
	return &vehicleService{Deps: deps, provider: provider, log: deps.Log.Named("vehicle.service")}
}

// Lookup serves the reference set first and only then calls the provider. The
// provider call runs outside any registry transaction.
func (s *vehicleService) Lookup(ctx context.Context, vrm string) (*LookupResult, error) {
	normalized := vehicle.Normalize(vrm)
	if !vehicle.ValidUK(normalized) {
		return nil, apperrors.NewValidationError("vrm", MsgInvalidRegistration)
	}

	started := time.Now()
	if spec, ok := vehicle.Reference(normalized); ok {
		result := &LookupResult{Success: true, Data: &spec, Source: model.LookupSourceAuthoritative}
		s.record(ctx, model.VehicleLookupLog{Registration: normalized}, result, nil, started)
		return result, nil
	}

	var (
		spec *model.VehicleSpec
		err  error
	)
	if s.provider == nil {
		err = apperrors.ErrVehicleProviderUnavailable
	} else {
		spec, err = s.provider.Lookup(ctx, normalized)
	}
	if err == nil && (spec == nil || spec.Make == "" || spec.Model == "") {
		err = apperrors.ErrVehicleNotFound
	}

	result := &LookupResult{Source: model.LookupSourceAPI}
	if err != nil {
		result.Error = MsgVehicleNotFound
	} else {
		spec.Registration = normalized
		result.Success = true
		result.Data = spec
	}
	s.record(ctx, model.VehicleLookupLog{Registration: normalized}, result, err, started)
	return result, nil
}

// LookupVIN decodes a VIN into make, model and year. Like Lookup, a decoder
// failure is a result that sends the caller to manual entry.
func (s *vehicleService) LookupVIN(ctx context.Context, vin string) (*LookupResult, error) {
	normalized := vehicle.NormalizeVIN(vin)
	if !vehicle.ValidVIN(normalized) {
		return nil, apperrors.NewValidationError("vin", MsgInvalidVIN)
	}

	started := time.Now()
	var (
		spec *model.VehicleSpec
		err  error
	)
	if s.provider == nil {
		err = apperrors.ErrVehicleProviderUnavailable
	} else {
		spec, err = s.provider.LookupVIN(ctx, normalized)
	}
	if err == nil && (spec == nil || spec.Make == "" || spec.Model == "") {
		err = apperrors.ErrVehicleNotFound
	}

	result := &LookupResult{Source: model.LookupSourceIntelligence}
	if err != nil {
		result.Error = MsgVINNotDecoded
	} else {
		spec.VIN = normalized
		result.Success = true
		result.Data = spec
	}
	s.record(ctx, model.VehicleLookupLog{VIN: normalized}, result, err, started)
	return result, nil
}

// record completes entry from result and appends it. A failed append is
// logged, not returned.
func (s *vehicleService) record(ctx context.Context, entry model.VehicleLookupLog, result *LookupResult, cause error, started time.Time) {
	s.Metrics.ObserveVehicleLookup(string(result.Source), result.Success, time.Since(started))

	entry.ID = s.IDs.LogID(idgen.PrefixLookup)
	entry.Make, entry.Model, entry.Year = notAvailable, notAvailable, notAvailable
	entry.Source = result.Source
	entry.Timestamp = s.Now()
	entry.Success = result.Success
	if d := result.Data; d != nil {
		entry.Make, entry.Model, entry.Year = orNA(d.Make), orNA(d.Model), orNA(d.Year)
	}
	if cause != nil {
		entry.Error = cause.Error()
		level := s.log.Info
		if !errors.Is(cause, apperrors.ErrVehicleNotFound) {
			level = s.log.Warn
		}
		level("vehicle lookup failed", zap.String("vrm", entry.Registration), zap.String("vin", entry.VIN), zap.Error(cause))
	}

	err := s.Store.WithTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		return repository.VehicleLogs(tx).Prepend(entry)
	})
	if err != nil {
		s.log.Warn("vehicle lookup log not written", zap.String("log_id", entry.ID), zap.Error(err))
	}
}

// Logs returns lookup history, most recent first.
func (s *vehicleService) Logs(ctx context.Context) ([]model.VehicleLookupLog, error) {
	return repository.ReadAll[model.VehicleLookupLog](ctx, s.Store, repository.CollectionVehicleLogs)
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
