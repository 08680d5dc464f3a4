package audit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swiftpolicy/internal/db"
	"swiftpolicy/internal/idgen"
	"swiftpolicy/internal/metrics"
	"swiftpolicy/internal/model"
	"swiftpolicy/internal/repository"
)

func newRecorder(t *testing.T) (*Recorder, *repository.Registry, *metrics.Metrics) {
	t.Helper()
	gdb, err := db.NewMemory()
	require.NoError(t, err)
	m := metrics.New(prometheus.NewRegistry())
	reg := repository.NewRegistry(gdb, nil, nil, m)
	fixed := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	rec := NewRecorder(reg, idgen.MustNew(), WithMetrics(m), WithClock(func() time.Time { return fixed }))
	return rec, reg, m
}

func TestRecord_StatusChangeWritesBothProjections(t *testing.T) {
	rec, reg, m := newRecorder(t)
	ctx := context.Background()
	admin := model.Actor{ID: "adm-1", Email: "ops@swiftpolicy.test", Role: model.RoleAdmin, IP: "10.0.0.7"}

	err := reg.WithTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		_, err := rec.Record(ctx, tx, Mutation{
			Actor:      admin,
			Action:     model.ActionPolicyStatus,
			EntityType: model.EntityPolicy,
			TargetID:   "pol-1",
			Details:    "Active -> Cancelled",
			Reason:     "customer request",
			Activity: &Activity{
				PolicyID:       "pol-1",
				PreviousStatus: string(model.PolicyStatusActive),
				NewStatus:      string(model.PolicyStatusCancelled),
			},
		})
		return err
	})
	require.NoError(t, err)

	logs, err := rec.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.True(t, strings.HasPrefix(logs[0].ID, idgen.PrefixAudit))
	assert.Equal(t, "adm-1", logs[0].ActorID)
	assert.Equal(t, "10.0.0.7", logs[0].IPAddress)
	assert.Equal(t, "customer request", logs[0].Reason)

	activity, err := rec.Activity(ctx)
	require.NoError(t, err)
	require.Len(t, activity, 1)
	assert.True(t, strings.HasPrefix(activity[0].ID, idgen.PrefixActivity))
	assert.Equal(t, "Active", activity[0].PreviousStatus)
	assert.Equal(t, "Cancelled", activity[0].NewStatus)
	assert.Equal(t, logs[0].Timestamp, activity[0].Timestamp)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditEvents.WithLabelValues(model.ActionPolicyStatus, "POLICY")))
}

func TestRecord_SystemFallbackAndOrdering(t *testing.T) {
	rec, reg, _ := newRecorder(t)
	ctx := context.Background()

	for _, action := range []string{model.ActionMIDRetry, model.ActionRiskConfigUpdate} {
		err := reg.WithTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
			_, err := rec.Record(ctx, tx, Mutation{Action: action})
			return err
		})
		require.NoError(t, err)
	}

	logs, err := rec.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, model.ActionRiskConfigUpdate, logs[0].Action)
	assert.Equal(t, model.SystemActorID, logs[0].ActorID)
	assert.Equal(t, model.SystemActorID, logs[0].ActorEmail)
	assert.Equal(t, model.EntitySystem, logs[0].EntityType)
	assert.Equal(t, DefaultIPAddress, logs[0].IPAddress)

	activity, err := rec.Activity(ctx)
	require.NoError(t, err)
	assert.Empty(t, activity)
}

func TestRecord_RolledBackWithCaller(t *testing.T) {
	rec, reg, _ := newRecorder(t)
	ctx := context.Background()

	err := reg.WithTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := rec.Record(ctx, tx, Mutation{Action: model.ActionPolicyCreate, Activity: &Activity{PolicyID: "p"}}); err != nil {
			return err
		}
		return errors.New("policy write failed")
	})
	require.Error(t, err)

	logs, err := rec.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestRecord_RequiresAction(t *testing.T) {
	rec, reg, _ := newRecorder(t)
	err := reg.WithTransaction(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		_, err := rec.Record(ctx, tx, Mutation{})
		return err
	})
	assert.Error(t, err)
}

func TestList_Filter(t *testing.T) {
	rec, reg, _ := newRecorder(t)
	ctx := context.Background()

	require.NoError(t, reg.WithTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		for _, m := range []Mutation{
			{Action: model.ActionUserRegister, EntityType: model.EntityUser, TargetID: "u1"},
			{Action: model.ActionPolicyCreate, EntityType: model.EntityPolicy, TargetID: "p1"},
			{Action: model.ActionPolicyStatus, EntityType: model.EntityPolicy, TargetID: "p1"},
		} {
			if _, err := rec.Record(ctx, tx, m); err != nil {
				return err
			}
		}
		return nil
	}))

	policyLogs, err := rec.List(ctx, Filter{EntityType: model.EntityPolicy})
	require.NoError(t, err)
	assert.Len(t, policyLogs, 2)

	limited, err := rec.List(ctx, Filter{TargetID: "p1", Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, model.ActionPolicyStatus, limited[0].Action)
}
