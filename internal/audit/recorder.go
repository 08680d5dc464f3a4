// Package audit turns each mutation into its audit and activity projections.
//
// Recording is fail-closed: both projections are written inside the caller's
// registry transaction, so if they cannot be staged the mutation fails with them.
package audit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"swiftpolicy/internal/idgen"
	"swiftpolicy/internal/metrics"
	"swiftpolicy/internal/model"
	"swiftpolicy/internal/repository"
)

// DefaultIPAddress is recorded when the actor carries no client address.
const DefaultIPAddress = "127.0.0.1"

// Activity is the dashboard side of a mutation.
type Activity struct {
	PolicyID       string
	UserID         string
	PreviousStatus string
	NewStatus      string
}

// Mutation describes one state change that occurred.
type Mutation struct {
	Actor      model.Actor
	Action     string
	EntityType model.EntityType
	TargetID   string
	Details    string
	Reason     string
	// Activity, when set, also produces an AdminActivityLog entry.
	Activity *Activity
}

// Filter narrows audit log reads. Zero fields match everything.
type Filter struct {
	EntityType model.EntityType
	ActorID    string
	TargetID   string
	Action     string
	Limit      int
}

func (f Filter) match(l model.AuditLog) bool {
	return (f.EntityType == "" || l.EntityType == f.EntityType) &&
		(f.ActorID == "" || l.ActorID == f.ActorID) &&
		(f.TargetID == "" || l.TargetID == f.TargetID) &&
		(f.Action == "" || l.Action == f.Action)
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Recorder) {
		if log != nil {
			r.log = log.Named("audit")
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// Recorder appends audit and activity entries.
type Recorder struct {
	store   repository.Store
	ids     *idgen.Generator
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewRecorder creates a recorder reading from store and minting ids from ids.
func NewRecorder(store repository.Store, ids *idgen.Generator, opts ...Option) *Recorder {
	if store == nil || ids == nil {
		panic("audit: recorder requires a store and an id generator")
	}
	r := &Recorder{
		store: store,
		ids:   ids,
		log:   zap.NewNop(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record stages the projections of m in tx. Entries are prepended so reads
// return the most recent first.
func (r *Recorder) Record(ctx context.Context, tx repository.Tx, m Mutation) (model.AuditLog, error) {
	if m.Action == "" {
		return model.AuditLog{}, fmt.Errorf("audit: mutation requires an action")
	}

	actorID, actorEmail := model.SystemActorID, model.SystemActorID
	if !m.Actor.IsSystem() {
		actorID = m.Actor.ID
		if m.Actor.Email != "" {
			actorEmail = m.Actor.Email
		}
	}
	ip := m.Actor.IP
	if ip == "" {
		ip = DefaultIPAddress
	}
	entity := m.EntityType
	if entity == "" {
		entity = model.EntitySystem
	}

	ts := r.now()
	entry := model.AuditLog{
		ID:         r.ids.LogID(idgen.PrefixAudit),
		Timestamp:  ts,
		ActorID:    actorID,
		ActorEmail: actorEmail,
		TargetID:   m.TargetID,
		Action:     m.Action,
		Details:    m.Details,
		Reason:     m.Reason,
		IPAddress:  ip,
		EntityType: entity,
	}
	if err := repository.AuditLogs(tx).Prepend(entry); err != nil {
		return model.AuditLog{}, fmt.Errorf("record audit log: %w", err)
	}

	if m.Activity != nil {
		activity := model.AdminActivityLog{
			ID:             r.ids.LogID(idgen.PrefixActivity),
			AdminID:        actorID,
			PolicyID:       m.Activity.PolicyID,
			UserID:         m.Activity.UserID,
			Action:         m.Action,
			PreviousStatus: m.Activity.PreviousStatus,
			NewStatus:      m.Activity.NewStatus,
			Timestamp:      ts,
		}
		if err := repository.ActivityLogs(tx).Prepend(activity); err != nil {
			return model.AuditLog{}, fmt.Errorf("record activity log: %w", err)
		}
	}

	r.metrics.IncAuditEvent(m.Action, string(entity))
	r.log.Info("audit event",
		zap.String("id", entry.ID),
		zap.String("action", entry.Action),
		zap.String("entity_type", string(entity)),
		zap.String("target_id", entry.TargetID),
		zap.String("actor_id", actorID),
	)
	return entry, nil
}

// List returns committed audit entries, most recent first.
func (r *Recorder) List(ctx context.Context, f Filter) ([]model.AuditLog, error) {
	logs, err := repository.ReadAll[model.AuditLog](ctx, r.store, repository.CollectionAuditLogs)
	if err != nil {
		return nil, fmt.Errorf("read audit logs: %w", err)
	}
	out := make([]model.AuditLog, 0, len(logs))
	for _, l := range logs {
		if !f.match(l) {
			continue
		}
		out = append(out, l)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// Activity returns committed administrator activity, most recent first.
func (r *Recorder) Activity(ctx context.Context) ([]model.AdminActivityLog, error) {
	logs, err := repository.ReadAll[model.AdminActivityLog](ctx, r.store, repository.CollectionActivityLogs)
	if err != nil {
		return nil, fmt.Errorf("read activity logs: %w", err)
	}
	return logs, nil
}
