package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"swiftpolicy/internal/audit"
	"swiftpolicy/internal/db"
	"swiftpolicy/internal/idgen"
	"swiftpolicy/internal/metrics"
	"swiftpolicy/internal/model"
	"swiftpolicy/internal/repository"
)

var testAdmin = model.Actor{ID: "adm-1", Email: "ops@swiftpolicy.test", Role: model.RoleAdmin, IP: "10.1.2.3"}

type fixture struct {
	deps     Deps
	registry *repository.Registry
	metrics  *metrics.Metrics
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb, err := db.NewMemory()
	require.NoError(t, err)

	m := metrics.New(prometheus.NewRegistry())
	reg := repository.NewRegistry(gdb, nil, nil, m)
	ids := idgen.MustNew(idgen.WithSeed(42))
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	return &fixture{
		deps: Deps{
			Store:    reg,
			Recorder: audit.NewRecorder(reg, ids, audit.WithMetrics(m), audit.WithClock(clock)),
			IDs:      ids,
			Metrics:  m,
			Now:      clock,
		},
		registry: reg,
		metrics:  m,
		now:      now,
	}
}

func (f *fixture) seedUser(t *testing.T, u model.User) model.User {
	t.Helper()
	if u.Status == "" {
		u.Status = model.UserStatusActive
	}
	if u.Role == "" {
		u.Role = model.RoleCustomer
	}
	require.NoError(t, f.registry.WithTransaction(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		return repository.Users(tx).Append(u)
	}))
	return u
}

func (f *fixture) auditLogs(t *testing.T) []model.AuditLog {
	t.Helper()
	logs, err := repository.ReadAll[model.AuditLog](context.Background(), f.registry, repository.CollectionAuditLogs)
	require.NoError(t, err)
	return logs
}

func (f *fixture) activityLogs(t *testing.T) []model.AdminActivityLog {
	t.Helper()
	logs, err := repository.ReadAll[model.AdminActivityLog](context.Background(), f.registry, repository.CollectionActivityLogs)
	require.NoError(t, err)
	return logs
}

func (f *fixture) users(t *testing.T) []model.User {
	t.Helper()
	users, err := repository.ReadAll[model.User](context.Background(), f.registry, repository.CollectionUsers)
	require.NoError(t, err)
	return users
}

func (f *fixture) policies(t *testing.T) []model.Policy {
	t.Helper()
	policies, err := repository.ReadAll[model.Policy](context.Background(), f.registry, repository.CollectionPolicies)
	require.NoError(t, err)
	return policies
}
