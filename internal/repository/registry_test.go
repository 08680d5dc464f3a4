package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"swiftpolicy/internal/db"
	apperrors "swiftpolicy/internal/errors"
	"swiftpolicy/internal/metrics"
	"swiftpolicy/internal/model"
)

type RegistrySuite struct {
	suite.Suite
	db       *gorm.DB
	metrics  *metrics.Metrics
	registry *Registry
	ctx      context.Context
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	gdb, err := db.NewMemory()
	s.Require().NoError(err)
	s.db = gdb
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.registry = NewRegistry(gdb, nil, nil, s.metrics)
	s.ctx = context.Background()
}

func (s *RegistrySuite) seedUser(id, email string) {
	err := s.registry.WithTransaction(s.ctx, func(_ context.Context, tx Tx) error {
		return NewUserRepository(tx).Create(&model.User{ID: id, Email: email})
	})
	s.Require().NoError(err)
}

func (s *RegistrySuite) TestReadMissingCollection() {
	users, err := ReadAll[model.User](s.ctx, s.registry, CollectionUsers)
	s.Require().NoError(err)
	s.Empty(users)
}

func (s *RegistrySuite) TestCommitIsVisibleAndVersioned() {
	s.seedUser("u1", "a@example.com")
	s.seedUser("u2", "b@example.com")

	users, err := ReadAll[model.User](s.ctx, s.registry, CollectionUsers)
	s.Require().NoError(err)
	s.Len(users, 2)
	s.Equal("u1", users[0].ID)

	var rec model.CollectionRecord
	s.Require().NoError(s.db.Where("name = ?", CollectionUsers).Take(&rec).Error)
	s.Equal(int64(2), rec.Version)
	s.Equal(2.0, testutil.ToFloat64(s.metrics.RegistryCommits.WithLabelValues("committed")))
}

func (s *RegistrySuite) TestFailedUnitOfWorkWritesNothing() {
	s.seedUser("u1", "a@example.com")
	boom := errors.New("boom")

	err := s.registry.WithTransaction(s.ctx, func(_ context.Context, tx Tx) error {
		if err := NewUserRepository(tx).Create(&model.User{ID: "u2"}); err != nil {
			return err
		}
		if err := AuditLogs(tx).Prepend(model.AuditLog{ID: "AUDIT-1"}); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	users, err := ReadAll[model.User](s.ctx, s.registry, CollectionUsers)
	s.Require().NoError(err)
	s.Len(users, 1)

	logs, err := ReadAll[model.AuditLog](s.ctx, s.registry, CollectionAuditLogs)
	s.Require().NoError(err)
	s.Empty(logs)
}

func (s *RegistrySuite) TestReadYourWritesInsideTransaction() {
	err := s.registry.WithTransaction(s.ctx, func(_ context.Context, tx Tx) error {
		repo := NewUserRepository(tx)
		s.Require().NoError(repo.Create(&model.User{ID: "u1", Email: "Mixed@Example.com"}))

		found, err := repo.FindByEmail("  mixed@example.COM ")
		s.Require().NoError(err)
		s.Equal("u1", found.ID)

		found.Name = "Renamed"
		s.Require().NoError(repo.Update(found))

		again, err := repo.FindByID("u1")
		s.Require().NoError(err)
		s.Equal("Renamed", again.Name)
		return nil
	})
	s.Require().NoError(err)
}

func (s *RegistrySuite) TestVersionConflict() {
	s.seedUser("u1", "a@example.com")

	err := s.registry.WithTransaction(s.ctx, func(_ context.Context, tx Tx) error {
		if _, err := NewUserRepository(tx).FindByID("u1"); err != nil {
			return err
		}
		// another process commits in between
		if err := s.db.Model(&model.CollectionRecord{}).
			Where("name = ?", CollectionUsers).
			Update("version", gorm.Expr("version + 1")).Error; err != nil {
			return err
		}
		return NewUserRepository(tx).Create(&model.User{ID: "u2"})
	})
	s.Require().ErrorIs(err, apperrors.ErrVersionConflict)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.RegistryCommits.WithLabelValues("conflict")))

	users, err := ReadAll[model.User](s.ctx, s.registry, CollectionUsers)
	s.Require().NoError(err)
	s.Len(users, 1)
}

func (s *RegistrySuite) TestSingletonAndClear() {
	session := model.Session{Slot: model.SessionSlotAdmin, User: model.User{ID: "admin"}}
	s.Require().NoError(s.registry.WithTransaction(s.ctx, func(_ context.Context, tx Tx) error {
		return SessionSlot(tx, model.SessionSlotAdmin).Put(session)
	}))

	var got model.Session
	found, err := s.registry.Read(s.ctx, CollectionAdminSession, &got)
	s.Require().NoError(err)
	s.True(found)
	s.Equal("admin", got.User.ID)

	found, err = s.registry.Read(s.ctx, CollectionSession, &got)
	s.Require().NoError(err)
	s.False(found)

	s.Require().NoError(s.registry.WithTransaction(s.ctx, func(_ context.Context, tx Tx) error {
		return SessionSlot(tx, model.SessionSlotAdmin).Clear()
	}))
	found, err = s.registry.Read(s.ctx, CollectionAdminSession, &model.Session{})
	s.Require().NoError(err)
	s.False(found)
}

func (s *RegistrySuite) TestSetOrderingAndReplace() {
	err := s.registry.WithTransaction(s.ctx, func(_ context.Context, tx Tx) error {
		logs := AuditLogs(tx)
		s.Require().NoError(logs.Prepend(model.AuditLog{ID: "first"}))
		s.Require().NoError(logs.Prepend(model.AuditLog{ID: "second"}))

		all, err := logs.All()
		s.Require().NoError(err)
		s.Equal([]string{"second", "first"}, []string{all[0].ID, all[1].ID})

		s.ErrorIs(logs.Replace(model.AuditLog{ID: "missing"}), ErrNotInCollection)
		s.ErrorIs(NewPolicyRepository(tx).Update(&model.Policy{ID: "missing"}), apperrors.ErrPolicyNotFound)

		n, err := logs.Len()
		s.Require().NoError(err)
		s.Equal(2, n)
		return nil
	})
	s.Require().NoError(err)
}

func (s *RegistrySuite) TestListByUser() {
	s.Require().NoError(s.registry.WithTransaction(s.ctx, func(_ context.Context, tx Tx) error {
		repo := NewPolicyRepository(tx)
		s.Require().NoError(repo.Create(&model.Policy{ID: "p1", UserID: "u1"}))
		s.Require().NoError(repo.Create(&model.Policy{ID: "p2", UserID: "u2"}))
		s.Require().NoError(repo.Create(&model.Policy{ID: "p3", UserID: "u1"}))

		mine, err := repo.ListByUser("u1")
		s.Require().NoError(err)
		s.Len(mine, 2)
		return nil
	}))
}
