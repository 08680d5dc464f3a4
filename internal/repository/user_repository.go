package repository

import (
	"strings"

	apperrors "swiftpolicy/internal/errors"
	"swiftpolicy/internal/model"
)

// UserRepository defines user persistence operations inside a unit of work.
type UserRepository interface {
	Create(user *model.User) error
	Update(user *model.User) error
	FindByID(id string) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	FindByClientCode(code string) (*model.User, error)
	List() ([]model.User, error)
}

type userRepository struct {
	set Set[model.User]
}

// NewUserRepository builds a registry-backed repository bound to tx.
func NewUserRepository(tx Tx) UserRepository {
	return &userRepository{set: Users(tx)}
}

func (r *userRepository) Create(user *model.User) error {
	return r.set.Append(*user)
}

func (r *userRepository) Update(user *model.User) error {
	if err := r.set.Replace(*user); err != nil {
		if err == ErrNotInCollection {
			return apperrors.ErrUserNotFound
		}
		return err
	}
	return nil
}

func (r *userRepository) FindByID(id string) (*model.User, error) {
	user, ok, err := r.set.Get(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &user, nil
}

// FindByEmail matches case-insensitively.
func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	email = NormalizeEmail(email)
	user, ok, err := r.set.Find(func(u model.User) bool { return NormalizeEmail(u.Email) == email })
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &user, nil
}

func (r *userRepository) FindByClientCode(code string) (*model.User, error) {
	user, ok, err := r.set.Find(func(u model.User) bool { return u.ClientCode == code })
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &user, nil
}

func (r *userRepository) List() ([]model.User, error) {
	return r.set.All()
}

// NormalizeEmail trims and lower-cases an address for comparison and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
