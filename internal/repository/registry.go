package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"swiftpolicy/internal/cache"
	apperrors "swiftpolicy/internal/errors"
	"swiftpolicy/internal/metrics"
	"swiftpolicy/internal/model"
)

// Collection names.
const (
	CollectionUsers          = "users"
	CollectionPolicies       = "policies"
	CollectionClaims         = "claims"
	CollectionPayments       = "payments"
	CollectionMIDSubmissions = "mid_submissions"
	CollectionVehicleLogs    = "vehicle_logs"
	CollectionAuditLogs      = "audit_logs"
	CollectionActivityLogs   = "admin_activity_logs"
	CollectionTickets        = "tickets"
	CollectionRiskConfig     = "risk_config"
	CollectionSession        = "session"
	CollectionAdminSession   = "admin_session"
)

const (
	cacheKeyPrefix = "registry:collection:"
	cacheTTL       = 5 * time.Minute
)

// Tx is a unit of work over whole collections. Writes are buffered until the
// enclosing WithTransaction returns nil.
type Tx interface {
	// Load decodes the named collection into out. It reports false when the
	// collection has never been written.
	Load(name string, out any) (bool, error)
	// Save replaces the named collection with v.
	Save(name string, v any) error
	// Clear empties the named collection.
	Clear(name string) error
}

// Store is the registry surface services depend on.
type Store interface {
	Read(ctx context.Context, name string, out any) (bool, error)
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Registry persists named collections in one gorm table and serves reads
// through a redis snapshot cache. It is the single writer for the process.
type Registry struct {
	db      *gorm.DB
	cache   *cache.Client
	log     *zap.Logger
	metrics *metrics.Metrics

	mu sync.RWMutex
}

var _ Store = (*Registry)(nil)

// NewRegistry builds a registry. cache, log and m may be nil.
func NewRegistry(db *gorm.DB, c *cache.Client, log *zap.Logger, m *metrics.Metrics) *Registry {
	if db == nil {
		panic("repository: registry requires a database")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		db:      db,
		cache:   c,
		log:     log.Named("registry"),
		metrics: m,
	}
}

// Read decodes the committed state of a collection into out.
func (r *Registry) Read(ctx context.Context, name string, out any) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := cacheKeyPrefix + name
	if data, _ := r.cache.Get(ctx, key); data != nil {
		if empty(data) {
			return false, nil
		}
		if err := json.Unmarshal(data, out); err == nil {
			return true, nil
		}
		r.log.Warn("discarding undecodable cache entry", zap.String("collection", name))
		_ = r.cache.Delete(ctx, key)
	}

	rec, found, err := r.fetch(r.db.WithContext(ctx), name)
	if err != nil || !found {
		return false, err
	}
	_ = r.cache.Set(ctx, key, rec.Payload, cacheTTL)
	if empty(rec.Payload) {
		return false, nil
	}
	if err := json.Unmarshal(rec.Payload, out); err != nil {
		return false, fmt.Errorf("decode collection %s: %w", name, err)
	}
	return true, nil
}

// WithTransaction runs fn as one unit of work. Buffered writes are flushed in
// a single database transaction with optimistic version checks; any error from
// fn or the flush discards every write. fn must use tx for every access;
// calling back into the registry from fn deadlocks.
func (r *Registry) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	uow := &unitOfWork{
		db:        r.db.WithContext(ctx),
		registry:  r,
		snapshots: make(map[string]*snapshot),
	}

	if err := fn(ctx, uow); err != nil {
		r.metrics.IncRegistryCommit("rolled_back")
		return err
	}
	if len(uow.order) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		now := time.Now().UTC()
		for _, name := range uow.order {
			if err := uow.snapshots[name].flush(gtx, name, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrVersionConflict) {
			r.metrics.IncRegistryCommit("conflict")
		} else {
			r.metrics.IncRegistryCommit("rolled_back")
		}
		return err
	}
	r.metrics.IncRegistryCommit("committed")

	keys := make([]string, 0, len(uow.order))
	for _, name := range uow.order {
		keys = append(keys, cacheKeyPrefix+name)
	}
	_ = r.cache.Delete(ctx, keys...)
	r.log.Debug("registry commit", zap.Strings("collections", uow.order))
	return nil
}

func (r *Registry) fetch(db *gorm.DB, name string) (*model.CollectionRecord, bool, error) {
	var rec model.CollectionRecord
	err := db.Where("name = ?", name).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load collection %s: %w", name, err)
	}
	return &rec, true, nil
}

type snapshot struct {
	exists  bool
	version int64
	payload []byte
	dirty   bool
}

func (s *snapshot) flush(gtx *gorm.DB, name string, now time.Time) error {
	if !s.exists {
		rec := model.CollectionRecord{
			Name:      name,
			Payload:   datatypes.JSON(s.payload),
			Version:   1,
			UpdatedAt: now,
		}
		if err := gtx.Create(&rec).Error; err != nil {
			return fmt.Errorf("%w: create %s: %v", apperrors.ErrVersionConflict, name, err)
		}
		return nil
	}

	res := gtx.Model(&model.CollectionRecord{}).
		Where("name = ? AND version = ?", name, s.version).
		Updates(map[string]any{
			"payload":    datatypes.JSON(s.payload),
			"version":    s.version + 1,
			"updated_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("save collection %s: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s changed since version %d", apperrors.ErrVersionConflict, name, s.version)
	}
	return nil
}

type unitOfWork struct {
	db        *gorm.DB
	registry  *Registry
	snapshots map[string]*snapshot
	order     []string
}

func (u *unitOfWork) snapshot(name string) (*snapshot, error) {
	if s, ok := u.snapshots[name]; ok {
		return s, nil
	}
	rec, found, err := u.registry.fetch(u.db, name)
	if err != nil {
		return nil, err
	}
	s := &snapshot{}
	if found {
		s.exists = true
		s.version = rec.Version
		s.payload = rec.Payload
	}
	u.snapshots[name] = s
	return s, nil
}

func (u *unitOfWork) Load(name string, out any) (bool, error) {
	s, err := u.snapshot(name)
	if err != nil {
		return false, err
	}
	if empty(s.payload) {
		return false, nil
	}
	if err := json.Unmarshal(s.payload, out); err != nil {
		return false, fmt.Errorf("decode collection %s: %w", name, err)
	}
	return true, nil
}

func (u *unitOfWork) Save(name string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", name, err)
	}
	return u.stage(name, payload)
}

func (u *unitOfWork) Clear(name string) error {
	return u.stage(name, []byte(nullPayload))
}

const nullPayload = "null"

// empty reports whether a payload holds no collection at all.
func empty(payload []byte) bool {
	return len(payload) == 0 || string(payload) == nullPayload
}

func (u *unitOfWork) stage(name string, payload []byte) error {
	s, err := u.snapshot(name)
	if err != nil {
		return err
	}
	s.payload = payload
	if !s.dirty {
		s.dirty = true
		u.order = append(u.order, name)
	}
	return nil
}
