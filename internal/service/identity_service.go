package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"swiftpolicy/internal/audit"
	"swiftpolicy/internal/auth"
	apperrors "swiftpolicy/internal/errors"
	"swiftpolicy/internal/model"
	"swiftpolicy/internal/repository"
)

// Login outcome messages.
const (
	MsgLoginFailed       = "Identity check failed."
	MsgAdminRequired     = "Identity check failed. Administrative privilege required."
	MsgAccountRestricted = "Access restricted. Contact support to restore your account."
	MsgCustomerWelcome   = "Portal access verified"
	MsgAdminWelcome      = "Welcome to Executive Terminal"
	minPasswordLength    = 8
	signupRegisterDetail = "New policy buyer enrolled. Status: Active. Profile and access enabled immediately."
)

// LoginResult reports whether a login succeeded. Credential failures are
// results, not errors.
type LoginResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	User    *model.User `json:"user,omitempty"`
	Token   string      `json:"token,omitempty"`
}

// SignupRequest is a new customer enrolment.
type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"phone,omitempty"`
	DOB      string `json:"dob,omitempty"`
	Address  string `json:"address_line1,omitempty"`
	City     string `json:"city,omitempty"`
	Postcode string `json:"postcode,omitempty"`
}

// IdentityService handles authentication and the two session slots.
type IdentityService interface {
	Login(ctx context.Context, email, password string, asAdmin bool) (*LoginResult, error)
	Signup(ctx context.Context, req SignupRequest) (*model.User, error)
	Logout(ctx context.Context) error
	LogoutAdmin(ctx context.Context) error
	RevokeToken(ctx context.Context, claims *auth.Claims) error
	CurrentSession(ctx context.Context, slot model.SessionSlot) (*model.Session, error)
	ProvisionAdmin(ctx context.Context, name, email, password string) (*model.User, error)
	Authorize(ctx context.Context, claims *auth.Claims) error
}

type identityService struct {
	Deps
	hasher     *auth.Hasher
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	validate   *validator.Validate
	log        *zap.Logger
}

// NewIdentityService creates a new identity service.
func NewIdentityService(deps Deps, hasher *auth.Hasher, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface) IdentityService {
	deps = deps.withDefaults()
	if hasher == nil {
		hasher = auth.NewHasher(0)
	}
	return &identityService{
		Deps:       deps,
		hasher:     hasher,
		jwtService: jwtService,
		tokenStore: tokenStore,
		validate:   validator.New(),
		log:        deps.Log.Named("identity.service"),
	}
}

// Login verifies credentials and fills the requested slot.
func (s *identityService) Login(ctx context.Context, email, password string, asAdmin bool) (*LoginResult, error) {
	slot := model.SessionSlotCustomer
	if asAdmin {
		slot = model.SessionSlotAdmin
	}

	var result *LoginResult
	err := s.Store.WithTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		users := repository.NewUserRepository(tx)
		user, err := users.FindByEmail(email)
		if errors.Is(err, apperrors.ErrUserNotFound) {
			result = &LoginResult{Message: MsgLoginFailed}
			return nil
		}
		if err != nil {
			return err
		}

		if user.PasswordHash == "" || s.hasher.Compare(user.PasswordHash, password) != nil {
			result = &LoginResult{Message: MsgLoginFailed}
			return nil
		}
		if asAdmin && !user.IsAdmin() {
			result = &LoginResult{Message: MsgAdminRequired}
			return nil
		}
		if !user.CanSignIn(slot) {
			result = &LoginResult{Message: MsgAccountRestricted}
			return nil
		}

		now := s.Now()
		user.LastLogin = &now
		if err := users.Update(user); err != nil {
			return err
		}
		public := user.Public()
		if err := repository.SessionSlot(tx, slot).Put(model.Session{Slot: slot, User: public, StartedAt: now}); err != nil {
			return err
		}

		msg := MsgCustomerWelcome
		if asAdmin {
			msg = MsgAdminWelcome
		}
		result = &LoginResult{Success: true, Message: msg, User: &public}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.Metrics.IncLogin(string(slot), result.Success)
	if !result.Success {
		return result, nil
	}

	if s.jwtService != nil {
		_, token, err := s.jwtService.GenerateToken(result.User, slot)
		if err != nil {
			return nil, fmt.Errorf("generate session token: %w", err)
		}
		result.Token = token
	}
	s.log.Info("session started", zap.String("user_id", result.User.ID), zap.String("slot", string(slot)))
	return result, nil
}

// Signup enrols a new customer and signs them in.
func (s *identityService) Signup(ctx context.Context, req SignupRequest) (*model.User, error) {
	req.Email = repository.NormalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return nil, signupValidationError(err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var created model.User
	err = s.Store.WithTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		users := repository.NewUserRepository(tx)
		if _, err := users.FindByEmail(req.Email); err == nil {
			return apperrors.ErrEmailAlreadyRegistered
		} else if !errors.Is(err, apperrors.ErrUserNotFound) {
			return err
		}

		code, err := unusedClientCode(s.IDs, users)
		if err != nil {
			return err
		}

		now := s.Now()
		first, last, _ := strings.Cut(req.Name, " ")
		created = model.User{
			ID:             s.IDs.EntityID(),
			ClientCode:     code,
			FirstName:      first,
			LastName:       strings.TrimSpace(last),
			Name:           req.Name,
			Email:          req.Email,
			PasswordHash:   hash,
			Phone:          req.Phone,
			DOB:            req.DOB,
			AddressLine1:   req.Address,
			City:           req.City,
			Postcode:       strings.ToUpper(strings.TrimSpace(req.Postcode)),
			Role:           model.RoleCustomer,
			Status:         model.UserStatusActive,
			ProfileEnabled: true,
			AccountState:   model.AccountStateActive,
			RiskLevel:      model.RiskLevelLow,
			KYCStatus:      model.KYCPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := users.Create(&created); err != nil {
			return err
		}

		if _, err := s.Recorder.Record(ctx, tx, audit.Mutation{
			Actor:      model.ActorFromUser(&created),
			Action:     model.ActionUserRegister,
			EntityType: model.EntityUser,
			TargetID:   created.ID,
			Details:    signupRegisterDetail,
		}); err != nil {
			return err
		}

		return repository.SessionSlot(tx, model.SessionSlotCustomer).Put(model.Session{
			Slot:      model.SessionSlotCustomer,
			User:      created.Public(),
			StartedAt: now,
		})
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrEmailAlreadyRegistered) {
			return nil, err
		}
		return nil, fmt.Errorf("signup: %w", err)
	}

	s.log.Info("customer registered", zap.String("user_id", created.ID), zap.String("client_code", created.ClientCode))
	public := created.Public()
	return &public, nil
}

func signupValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.NewValidationError("", err.Error())
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return apperrors.NewValidationError(field, "is required")
	case "email":
		return apperrors.NewValidationError(field, "must be a valid email address")
	case "min":
		return apperrors.NewValidationError(field, fmt.Sprintf("must be at least %d characters", minPasswordLength))
	default:
		return apperrors.NewValidationError(field, "is invalid")
	}
}

// Logout clears the customer slot only.
func (s *identityService) Logout(ctx context.Context) error {
	return s.clearSlot(ctx, model.SessionSlotCustomer)
}

// LogoutAdmin clears the administrator slot only.
func (s *identityService) LogoutAdmin(ctx context.Context) error {
	return s.clearSlot(ctx, model.SessionSlotAdmin)
}

func (s *identityService) clearSlot(ctx context.Context, slot model.SessionSlot) error {
	err := s.Store.WithTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		return repository.SessionSlot(tx, slot).Clear()
	})
	if err != nil {
		return fmt.Errorf("clear %s session: %w", slot, err)
	}
	return nil
}

// RevokeToken blacklists the presented token for its remaining lifetime.
func (s *identityService) RevokeToken(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || s.tokenStore == nil {
		return nil
	}
	if err := s.tokenStore.Revoke(ctx, claims.ID, claims.Remaining(time.Now())); err != nil {
		s.log.Warn("token revocation failed", zap.String("token_id", claims.ID), zap.Error(err))
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Authorize re-checks the stored account behind a presented token, so a block,
// suspension or profile disable takes effect before the token expires.
func (s *identityService) Authorize(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return apperrors.ErrAccountRestricted
	}
	users, err := repository.ReadAll[model.User](ctx, s.Store, repository.CollectionUsers)
	if err != nil {
		return fmt.Errorf("authorize: %w", err)
	}
	for i := range users {
		if users[i].ID != claims.UserID {
			continue
		}
		if !users[i].CanSignIn(claims.Slot) {
			s.log.Info("restricted account presented a token",
				zap.String("user_id", claims.UserID),
				zap.String("status", string(users[i].Status)),
				zap.String("slot", string(claims.Slot)),
			)
			return apperrors.ErrAccountRestricted
		}
		return nil
	}
	return apperrors.ErrAccountRestricted
}

// CurrentSession returns the identity held by slot, or nil when empty.
func (s *identityService) CurrentSession(ctx context.Context, slot model.SessionSlot) (*model.Session, error) {
	name := repository.CollectionSession
	if slot == model.SessionSlotAdmin {
		name = repository.CollectionAdminSession
	}
	var session model.Session
	found, err := s.Store.Read(ctx, name, &session)
	if err != nil {
		return nil, fmt.Errorf("read %s session: %w", slot, err)
	}
	if !found {
		return nil, nil
	}
	return &session, nil
}

// ProvisionAdmin creates the bootstrap administrator. Re-running it for an
// existing administrator returns the stored user; an address held by a
// customer is never promoted and fails with ErrAdminEmailTaken.
func (s *identityService) ProvisionAdmin(ctx context.Context, name, email, password string) (*model.User, error) {
	email = repository.NormalizeEmail(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, apperrors.NewValidationError("email", "must be a valid email address")
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.NewValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if strings.TrimSpace(name) == "" {
		name = "System Administrator"
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var admin model.User
	err = s.Store.WithTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		users := repository.NewUserRepository(tx)
		existing, err := users.FindByEmail(email)
		if err == nil {
			if !existing.IsAdmin() {
				return apperrors.ErrAdminEmailTaken
			}
			admin = *existing
			return nil
		}
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			return err
		}

		now := s.Now()
		first, last, _ := strings.Cut(name, " ")
		admin = model.User{
			ID:             s.IDs.EntityID(),
			ClientCode:     "SP-ADMIN-1",
			FirstName:      first,
			LastName:       last,
			Name:           name,
			Email:          email,
			PasswordHash:   hash,
			Role:           model.RoleAdmin,
			Status:         model.UserStatusActive,
			ProfileEnabled: true,
			AccountState:   model.AccountStateActive,
			RiskLevel:      model.RiskLevelLow,
			KYCStatus:      model.KYCVerified,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := users.Create(&admin); err != nil {
			return err
		}
		_, err = s.Recorder.Record(ctx, tx, audit.Mutation{
			Action:     model.ActionAdminProvisioned,
			EntityType: model.EntityAdmin,
			TargetID:   admin.ID,
			Details:    "Bootstrap administrator provisioned.",
		})
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrAdminEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("provision admin: %w", err)
	}
	public := admin.Public()
	return &public, nil
}
