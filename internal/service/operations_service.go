package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"swiftpolicy/internal/audit"
	"swiftpolicy/internal/cache"
	apperrors "swiftpolicy/internal/errors"
	"swiftpolicy/internal/model"
	"swiftpolicy/internal/repository"
	"swiftpolicy/internal/vehicle"
)

// Diagnostic results.
const (
	CheckPass = "Pass"
	CheckFail = "Fail"

	StatusHealthy  = "Healthy"
	StatusDegraded = "Degraded"
)

// DiagnosticCheck is one line of a diagnostics report.
type DiagnosticCheck struct {
	Name      string    `json:"name"`
	Result    string    `json:"result"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// DiagnosticsReport summarises the health of the core.
type DiagnosticsReport struct {
	Status    string            `json:"status"`
	Checks    []DiagnosticCheck `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

// OperationsService exposes administrator maintenance operations.
type OperationsService interface {
	RunDiagnostics(ctx context.Context) (*DiagnosticsReport, error)
	RetryMIDSubmission(ctx context.Context, actor model.Actor, id string) (*model.MIDSubmission, error)
	MIDSubmissions(ctx context.Context) ([]model.MIDSubmission, error)
}

type operationsService struct {
	Deps
	cache    *cache.Client
	provider vehicle.Provider
	log      *zap.Logger
}

// NewOperationsService builds an OperationsService. cache and provider may be nil.
func NewOperationsService(deps Deps, c *cache.Client, provider vehicle.Provider) OperationsService {
	deps = deps.withDefaults()
	return &operationsService{Deps: deps, cache: c, provider: provider, log: deps.Log.Named("operations.service")}
}

// RunDiagnostics is read-only.
func (s *operationsService) RunDiagnostics(ctx context.Context) (*DiagnosticsReport, error) {
	now := s.Now()
	check := func(name string, ok bool, pass, fail string) DiagnosticCheck {
		c := DiagnosticCheck{Name: name, Result: CheckPass, Message: pass, Timestamp: now}
		if !ok {
			c.Result, c.Message = CheckFail, fail
		}
		return c
	}

	storeErr := s.verifyRegistry(ctx)
	storeFail := fmt.Sprintf("Persistent Registry unreadable: %v", storeErr)

	cacheErr := s.cache.Ping(ctx)
	cacheCheck := check("Snapshot Cache", cacheErr == nil, "Redis snapshot cache reachable.", fmt.Sprintf("Redis snapshot cache unreachable: %v", cacheErr))
	if errors.Is(cacheErr, cache.ErrDisabled) {
		cacheCheck = check("Snapshot Cache", true, "Snapshot cache disabled; reads go to the registry.", "")
	}

	providerReady := s.provider != nil && s.provider.Configured()
	report := &DiagnosticsReport{
		Status:    StatusHealthy,
		Timestamp: now,
		Checks: []DiagnosticCheck{
			check("Storage Integrity", storeErr == nil, "Persistent Registry verified.", storeFail),
			cacheCheck,
			check("Licence Validation Regex", vehicle.SelfTest(), "DVLA Enforcement active.", "Registration pattern self-test failed."),
			check("Vehicle Gateway", providerReady, "Vehicle data provider configured.", "No vehicle data provider configured; lookups outside the reference set fall back to manual entry."),
		},
	}
	for _, c := range report.Checks {
		if c.Result != CheckPass {
			report.Status = StatusDegraded
		}
	}
	return report, nil
}

// verifyRegistry decodes every collection into its typed shape.
func (s *operationsService) verifyRegistry(ctx context.Context) error {
	checks := []error{
		decodes[model.User](ctx, s.Store, repository.CollectionUsers),
		decodes[model.Policy](ctx, s.Store, repository.CollectionPolicies),
		decodes[model.ClaimRecord](ctx, s.Store, repository.CollectionClaims),
		decodes[model.PaymentRecord](ctx, s.Store, repository.CollectionPayments),
		decodes[model.MIDSubmission](ctx, s.Store, repository.CollectionMIDSubmissions),
		decodes[model.VehicleLookupLog](ctx, s.Store, repository.CollectionVehicleLogs),
		decodes[model.AuditLog](ctx, s.Store, repository.CollectionAuditLogs),
		decodes[model.AdminActivityLog](ctx, s.Store, repository.CollectionActivityLogs),
		decodes[model.SupportTicket](ctx, s.Store, repository.CollectionTickets),
	}
	var cfg model.RiskConfig
	if _, err := s.Store.Read(ctx, repository.CollectionRiskConfig, &cfg); err != nil {
		checks = append(checks, fmt.Errorf("%s: %w", repository.CollectionRiskConfig, err))
	}
	return errors.Join(checks...)
}

func decodes[T any](ctx context.Context, store repository.Store, name string) error {
	if _, err := repository.ReadAll[T](ctx, store, name); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// RetryMIDSubmission re-submits a vehicle to the Motor Insurance Database.
// The resubmission is recorded as successful.
func (s *operationsService) RetryMIDSubmission(ctx context.Context, actor model.Actor, id string) (*model.MIDSubmission, error) {
	var updated model.MIDSubmission
	err := s.Store.WithTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		set := repository.MIDSubmissions(tx)
		sub, ok, err := set.Get(id)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrMIDSubmissionNotFound
		}

		previous := sub.Status
		now := s.Now()
		sub.Status = model.MIDSuccess
		sub.LastAttemptAt = &now
		sub.RetryCount++
		if err := set.Replace(sub); err != nil {
			return err
		}

		_, err = s.Recorder.Record(ctx, tx, audit.Mutation{
			Actor:      actor,
			Action:     model.ActionMIDRetry,
			EntityType: model.EntitySystem,
			TargetID:   sub.ID,
			Details:    fmt.Sprintf("MID submission for %s retried (attempt %d): %s -> %s.", sub.VRM, sub.RetryCount, previous, sub.Status),
		})
		if err != nil {
			return err
		}
		updated = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("mid submission retried", zap.String("id", id), zap.Int("retry_count", updated.RetryCount))
	return &updated, nil
}

// MIDSubmissions returns every submission, most recent first.
func (s *operationsService) MIDSubmissions(ctx context.Context) ([]model.MIDSubmission, error) {
	return repository.ReadAll[model.MIDSubmission](ctx, s.Store, repository.CollectionMIDSubmissions)
}
