package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"swiftpolicy/internal/audit"
	apperrors "swiftpolicy/internal/errors"
	"swiftpolicy/internal/model"
	"swiftpolicy/internal/repository"
)

// UserAdminService exposes administrator operations on customer accounts.
type UserAdminService interface {
	UpdateStatus(ctx context.Context, actor model.Actor, userID string, status model.UserStatus, reason string) (*model.User, error)
	ActivateProfile(ctx context.Context, actor model.Actor, userID string) (*model.User, error)
	DisableProfile(ctx context.Context, actor model.Actor, userID, reason string) (*model.User, error)
	UpdateKYC(ctx context.Context, actor model.Actor, userID string, status model.KYCStatus, reason string) (*model.User, error)
	UpdateRisk(ctx context.Context, actor model.Actor, userID string, level model.RiskLevel, reason string) (*model.User, error)
	UpdateNotes(ctx context.Context, actor model.Actor, userID, notes string) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
}

type userAdminService struct {
	Deps
	log *zap.Logger
}

// NewUserAdminService builds a UserAdminService.
func NewUserAdminService(deps Deps) UserAdminService {
	deps = deps.withDefaults()
	return &userAdminService{Deps: deps, log: deps.Log.Named("user.admin.service")}
}

// userMutation loads a user, applies change and persists it with its audit
// event in one unit of work. The customer slot follows the stored user.
func (s *userAdminService) userMutation(ctx context.Context, userID string, change func(u *model.User) (audit.Mutation, error)) (*model.User, error) {
	var updated model.User
	err := s.Store.WithTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		users := repository.NewUserRepository(tx)
		user, err := users.FindByID(userID)
		if err != nil {
			return err
		}

		m, err := change(user)
		if err != nil {
			return err
		}
		user.UpdatedAt = s.Now()
		if err := users.Update(user); err != nil {
			return err
		}
		if _, err := s.Recorder.Record(ctx, tx, m); err != nil {
			return err
		}
		if err := syncCustomerSlot(tx, user); err != nil {
			return err
		}
		updated = *user
		return nil
	})
	if err != nil {
		return nil, err
	}
	public := updated.Public()
	return &public, nil
}

// syncCustomerSlot refreshes the customer session when it holds user.
func syncCustomerSlot(tx repository.Tx, user *model.User) error {
	slot := repository.SessionSlot(tx, model.SessionSlotCustomer)
	session, found, err := slot.Get()
	if err != nil || !found || session.User.ID != user.ID {
		return err
	}
	session.User = user.Public()
	return slot.Put(session)
}

// UpdateStatus changes the regulatory status of a user. A reason is required
// unless the target is Active.
func (s *userAdminService) UpdateStatus(ctx context.Context, actor model.Actor, userID string, status model.UserStatus, reason string) (*model.User, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("status", fmt.Sprintf("unknown user status %q", status))
	}
	reason = strings.TrimSpace(reason)
	if status != model.UserStatusActive && reason == "" {
		return nil, apperrors.NewValidationError("reason", "a reason is required for this status change")
	}

	user, err := s.userMutation(ctx, userID, func(u *model.User) (audit.Mutation, error) {
		previous := u.Status
		u.Status = status
		action := model.ActionUserStatusChange
		details := fmt.Sprintf("Account status updated to %s. Reason: %s", status, reason)
		if status == model.UserStatusActive {
			u.ProfileEnabled = true
			u.AccountState = model.AccountStateActive
			action = model.ActionProfileActivated
			details = "Profile activated and account enabled by administrator."
		} else {
			u.AccountState = model.AccountStateSuspended
		}
		return audit.Mutation{
			Actor:      actor,
			Action:     action,
			EntityType: model.EntityUser,
			TargetID:   u.ID,
			Details:    details,
			Reason:     reason,
			Activity: &audit.Activity{
				UserID:         u.ID,
				PreviousStatus: string(previous),
				NewStatus:      string(status),
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("user status changed", zap.String("user_id", userID), zap.String("status", string(status)), zap.String("actor_id", actor.ID))
	return user, nil
}

// ActivateProfile enables the customer profile without touching status.
func (s *userAdminService) ActivateProfile(ctx context.Context, actor model.Actor, userID string) (*model.User, error) {
	return s.userMutation(ctx, userID, func(u *model.User) (audit.Mutation, error) {
		u.ProfileEnabled = true
		return audit.Mutation{
			Actor:      actor,
			Action:     model.ActionProfileActivated,
			EntityType: model.EntityUser,
			TargetID:   u.ID,
			Details:    "Customer profile enabled by administrator.",
			Activity:   &audit.Activity{UserID: u.ID},
		}, nil
	})
}

// DisableProfile hides the customer profile until an administrator re-enables it.
func (s *userAdminService) DisableProfile(ctx context.Context, actor model.Actor, userID, reason string) (*model.User, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("reason", "a reason is required to disable a profile")
	}
	return s.userMutation(ctx, userID, func(u *model.User) (audit.Mutation, error) {
		u.ProfileEnabled = false
		return audit.Mutation{
			Actor:      actor,
			Action:     model.ActionProfileDisabled,
			EntityType: model.EntityUser,
			TargetID:   u.ID,
			Details:    "Customer profile disabled by administrator.",
			Reason:     reason,
			Activity:   &audit.Activity{UserID: u.ID},
		}, nil
	})
}

// UpdateKYC records the outcome of identity verification.
func (s *userAdminService) UpdateKYC(ctx context.Context, actor model.Actor, userID string, status model.KYCStatus, reason string) (*model.User, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("kyc_status", fmt.Sprintf("unknown KYC status %q", status))
	}
	return s.userMutation(ctx, userID, func(u *model.User) (audit.Mutation, error) {
		previous := u.KYCStatus
		u.KYCStatus = status
		return audit.Mutation{
			Actor:      actor,
			Action:     model.ActionUserKYCUpdate,
			EntityType: model.EntityUser,
			TargetID:   u.ID,
			Details:    fmt.Sprintf("KYC status changed from %s to %s.", orNone(string(previous)), status),
			Reason:     strings.TrimSpace(reason),
		}, nil
	})
}

// UpdateRisk re-tiers a customer for underwriting.
func (s *userAdminService) UpdateRisk(ctx context.Context, actor model.Actor, userID string, level model.RiskLevel, reason string) (*model.User, error) {
	if !level.Valid() {
		return nil, apperrors.NewValidationError("risk_level", fmt.Sprintf("unknown risk level %q", level))
	}
	return s.userMutation(ctx, userID, func(u *model.User) (audit.Mutation, error) {
		previous := u.RiskLevel
		u.RiskLevel = level
		return audit.Mutation{
			Actor:      actor,
			Action:     model.ActionUserRiskUpdate,
			EntityType: model.EntityUser,
			TargetID:   u.ID,
			Details:    fmt.Sprintf("Risk level changed from %s to %s.", orNone(string(previous)), level),
			Reason:     strings.TrimSpace(reason),
		}, nil
	})
}

// UpdateNotes replaces the internal notes on a customer.
func (s *userAdminService) UpdateNotes(ctx context.Context, actor model.Actor, userID, notes string) (*model.User, error) {
	return s.userMutation(ctx, userID, func(u *model.User) (audit.Mutation, error) {
		u.InternalNotes = notes
		return audit.Mutation{
			Actor:      actor,
			Action:     model.ActionUserNotesUpdate,
			EntityType: model.EntityUser,
			TargetID:   u.ID,
			Details:    "Internal notes updated.",
		}, nil
	})
}

func (s *userAdminService) Get(ctx context.Context, userID string) (*model.User, error) {
	users, err := repository.ReadAll[model.User](ctx, s.Store, repository.CollectionUsers)
	if err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}
	for _, u := range users {
		if u.ID == userID {
			public := u.Public()
			return &public, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (s *userAdminService) List(ctx context.Context) ([]model.User, error) {
	users, err := repository.ReadAll[model.User](ctx, s.Store, repository.CollectionUsers)
	if err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

func orNone(s string) string {
	if s == "" {
		return "NONE"
	}
	return s
}
