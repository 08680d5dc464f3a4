package repository

import (
	apperrors "swiftpolicy/internal/errors"
	"swiftpolicy/internal/model"
)

// PolicyRepository defines policy persistence operations inside a unit of work.
type PolicyRepository interface {
	Create(policy *model.Policy) error
	Update(policy *model.Policy) error
	FindByID(id string) (*model.Policy, error)
	FindByDisplayID(displayID string) (*model.Policy, error)
	ListByUser(userID string) ([]model.Policy, error)
	List() ([]model.Policy, error)
}

type policyRepository struct {
	set Set[model.Policy]
}

// NewPolicyRepository builds a registry-backed repository bound to tx.
func NewPolicyRepository(tx Tx) PolicyRepository {
	return &policyRepository{set: Policies(tx)}
}

func (r *policyRepository) Create(policy *model.Policy) error {
	return r.set.Append(*policy)
}

func (r *policyRepository) Update(policy *model.Policy) error {
	if err := r.set.Replace(*policy); err != nil {
		if err == ErrNotInCollection {
			return apperrors.ErrPolicyNotFound
		}
		return err
	}
	return nil
}

func (r *policyRepository) FindByID(id string) (*model.Policy, error) {
	policy, ok, err := r.set.Get(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrPolicyNotFound
	}
	return &policy, nil
}

func (r *policyRepository) FindByDisplayID(displayID string) (*model.Policy, error) {
	policy, ok, err := r.set.Find(func(p model.Policy) bool { return p.DisplayID == displayID })
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrPolicyNotFound
	}
	return &policy, nil
}

func (r *policyRepository) ListByUser(userID string) ([]model.Policy, error) {
	all, err := r.set.All()
	if err != nil {
		return nil, err
	}
	var out []model.Policy
	for _, p := range all {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *policyRepository) List() ([]model.Policy, error) {
	return r.set.All()
}
