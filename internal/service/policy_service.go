package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"swiftpolicy/internal/audit"
	apperrors "swiftpolicy/internal/errors"
	"swiftpolicy/internal/idgen"
	"swiftpolicy/internal/lifecycle"
	"swiftpolicy/internal/model"
	"swiftpolicy/internal/repository"
)

const (
	dateLayout        = "2006-01-02"
	defaultPolicyType = "Private Car"
)

// BindRequest carries everything needed to put a policy on risk.
type BindRequest struct {
	UserID      string               `json:"user_id"`
	Type        string               `json:"type,omitempty"`
	PolicyType  model.PolicyType     `json:"policy_type"`
	Premium     *decimal.Decimal     `json:"premium,omitempty"`
	Details     *model.PolicyDetails `json:"details"`
	Notes       string               `json:"notes,omitempty"`
	RenewalDate string               `json:"renewal_date,omitempty"`
	Payment     *CardPayment         `json:"payment,omitempty"`
}

// PolicyService manages the policy lifecycle.
type PolicyService interface {
	Bind(ctx context.Context, actor model.Actor, req BindRequest) (*model.Policy, error)
	UpdateStatus(ctx context.Context, actor model.Actor, policyID string, status model.PolicyStatus, reason string) (*model.Policy, error)
	UpdateNotes(ctx context.Context, actor model.Actor, policyID, notes string) (*model.Policy, error)
	Remove(ctx context.Context, actor model.Actor, policyID, reason string) (*model.Policy, error)
	UpdateRenewal(ctx context.Context, actor model.Actor, policyID, date string) (*model.Policy, error)
	Get(ctx context.Context, policyID string) (*model.Policy, error)
	List(ctx context.Context) ([]model.Policy, error)
	ListForUser(ctx context.Context, userID string) ([]model.Policy, error)
}

type policyService struct {
	Deps
	cards *CardValidator
	log   *zap.Logger
}

// NewPolicyService builds a PolicyService.
func NewPolicyService(deps Deps) PolicyService {
	deps = deps.withDefaults()
	return &policyService{Deps: deps, cards: NewCardValidator(deps.Now), log: deps.Log.Named("policy.service")}
}

// Bind creates a policy for an existing user. Annual policies go straight on
// risk; one-month policies wait for approval.
func (s *policyService) Bind(ctx context.Context, actor model.Actor, req BindRequest) (*model.Policy, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return nil, apperrors.NewValidationError("user_id", "is required")
	}
	if req.Details == nil {
		return nil, apperrors.NewValidationError("details", "are required")
	}
	policyType := req.PolicyType
	if policyType == "" {
		policyType = model.PolicyTypeAnnual
	}
	if policyType != model.PolicyTypeAnnual && policyType != model.PolicyTypeOneMonth {
		return nil, apperrors.NewValidationError("policy_type", fmt.Sprintf("unknown policy type %q", req.PolicyType))
	}

	details := req.Details.Normalize()
	premium, err := resolvePremium(req.Premium, details.Breakdown)
	if err != nil {
		return nil, err
	}
	if req.Payment != nil {
		card, err := s.cards.Validate(*req.Payment)
		if err != nil {
			return nil, err
		}
		details.Card = card
		if details.PaymentRef == "" {
			details.PaymentRef = s.IDs.LogID(idgen.PrefixPayment)
		}
	}

	now := s.Now()
	start := now
	if details.Coverage.StartDate != "" {
		parsed, err := time.Parse(dateLayout, details.Coverage.StartDate)
		if err != nil {
			return nil, apperrors.NewValidationError("details.coverage.start_date", "must be formatted YYYY-MM-DD")
		}
		start = parsed
	}
	details.Coverage.StartDate = start.Format(dateLayout)
	if details.Coverage.ExpiryDate == "" {
		details.Coverage.ExpiryDate = expiry(start, policyType).Format(dateLayout)
	}

	status := model.PolicyStatusActive
	if policyType == model.PolicyTypeOneMonth {
		status = model.PolicyStatusPendingApproval
	}
	paymentStatus := model.PolicyUnpaid
	if details.Card != nil {
		paymentStatus = model.PolicyPaid
	}
	kind := strings.TrimSpace(req.Type)
	if kind == "" {
		kind = defaultPolicyType
	}
	renewal := req.RenewalDate
	if renewal == "" {
		renewal = details.Coverage.ExpiryDate
	}

	policy := model.Policy{
		ID:            s.IDs.EntityID(),
		UserID:        req.UserID,
		Type:          kind,
		PolicyType:    policyType,
		Duration:      policyType.Duration(),
		Premium:       premium,
		Status:        status,
		PaymentStatus: paymentStatus,
		Details:       details,
		Notes:         req.Notes,
		RenewalDate:   renewal,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.Store.WithTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := repository.NewUserRepository(tx).FindByID(req.UserID); err != nil {
			return err
		}
		policies := repository.NewPolicyRepository(tx)
		displayID, err := unusedDisplayID(s.IDs, policies)
		if err != nil {
			return err
		}
		policy.DisplayID = displayID
		if err := policies.Create(&policy); err != nil {
			return err
		}

		if vrm := details.Vehicle.Registration; vrm != "" {
			if err := repository.MIDSubmissions(tx).Prepend(model.MIDSubmission{
				ID:          s.IDs.LogID(idgen.PrefixMID),
				PolicyID:    policy.ID,
				VRM:         vrm,
				Status:      model.MIDPending,
				SubmittedAt: now,
			}); err != nil {
				return err
			}
		}

		if card := details.Card; card != nil {
			if err := repository.Payments(tx).Prepend(model.PaymentRecord{
				ID:             s.IDs.EntityID(),
				PolicyID:       policy.ID,
				ClientID:       policy.UserID,
				Amount:         premium,
				Status:         model.PaymentRecordPaid,
				Timestamp:      now,
				Method:         "Card " + MaskCardNumber(card.LastFour),
				PaymentType:    string(policy.Duration),
				TransactionRef: details.PaymentRef,
			}); err != nil {
				return err
			}
		}

		summary := fmt.Sprintf("Policy %s bound for %s at %s.", policy.DisplayID, orNone(details.Vehicle.Registration), premium.StringFixed(2))
		if details.Card != nil {
			summary += fmt.Sprintf(" Paid by card %s.", MaskCardNumber(details.Card.LastFour))
		}
		m := audit.Mutation{
			Actor:      actor,
			Action:     model.ActionPolicyCreate,
			EntityType: model.EntityPolicy,
			TargetID:   policy.ID,
			Details:    summary,
		}
		// The activity stream is the administrators' record; self-service
		// purchases only reach the audit trail.
		if actor.Role == model.RoleAdmin {
			m.Activity = &audit.Activity{
				PolicyID:  policy.ID,
				UserID:    policy.UserID,
				NewStatus: string(policy.Status),
			}
		}
		_, err = s.Recorder.Record(ctx, tx, m)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("policy bound",
		zap.String("policy_id", policy.ID),
		zap.String("display_id", policy.DisplayID),
		zap.String("user_id", policy.UserID),
		zap.String("status", string(policy.Status)),
	)
	return &policy, nil
}

func resolvePremium(requested *decimal.Decimal, breakdown *model.PremiumBreakdown) (decimal.Decimal, error) {
	switch {
	case requested != nil && requested.IsPositive():
		return requested.Round(2), nil
	case breakdown != nil && breakdown.Total.IsPositive():
		return breakdown.Total.Round(2), nil
	case requested != nil && requested.IsNegative():
		return decimal.Zero, apperrors.NewValidationError("premium", "must not be negative")
	default:
		return decimal.Zero, apperrors.NewValidationError("premium", "a premium or a priced breakdown is required")
	}
}

func expiry(start time.Time, policyType model.PolicyType) time.Time {
	if policyType == model.PolicyTypeOneMonth {
		return start.AddDate(0, 1, 0)
	}
	return start.AddDate(1, 0, 0)
}

// policyMutation loads a policy, applies change and persists it with its audit
// event in one unit of work.
func (s *policyService) policyMutation(ctx context.Context, policyID string, change func(p *model.Policy) (audit.Mutation, error)) (*model.Policy, error) {
	var updated model.Policy
	err := s.Store.WithTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		policies := repository.NewPolicyRepository(tx)
		policy, err := policies.FindByID(policyID)
		if err != nil {
			return err
		}
		m, err := change(policy)
		if err != nil {
			return err
		}
		policy.UpdatedAt = s.Now()
		if err := policies.Update(policy); err != nil {
			return err
		}
		if _, err := s.Recorder.Record(ctx, tx, m); err != nil {
			return err
		}
		updated = *policy
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateStatus moves a policy along the transition table.
func (s *policyService) UpdateStatus(ctx context.Context, actor model.Actor, policyID string, status model.PolicyStatus, reason string) (*model.Policy, error) {
	reason = strings.TrimSpace(reason)
	policy, err := s.policyMutation(ctx, policyID, func(p *model.Policy) (audit.Mutation, error) {
		return s.transition(actor, p, status, reason, model.ActionPolicyStatus)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("policy status changed", zap.String("policy_id", policyID), zap.String("status", string(status)), zap.String("actor_id", actor.ID))
	return policy, nil
}

// Remove soft-deletes a policy. The record stays in the collection.
func (s *policyService) Remove(ctx context.Context, actor model.Actor, policyID, reason string) (*model.Policy, error) {
	reason = strings.TrimSpace(reason)
	policy, err := s.policyMutation(ctx, policyID, func(p *model.Policy) (audit.Mutation, error) {
		return s.transition(actor, p, model.PolicyStatusDeleted, reason, model.ActionPolicyRemove)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("policy removed", zap.String("policy_id", policyID), zap.String("actor_id", actor.ID))
	return policy, nil
}

func (s *policyService) transition(actor model.Actor, p *model.Policy, to model.PolicyStatus, reason, action string) (audit.Mutation, error) {
	from := p.Status
	if err := lifecycle.Validate(from, to, reason); err != nil {
		return audit.Mutation{}, err
	}
	p.Status = to

	details := fmt.Sprintf("Policy %s moved from %s to %s.", p.DisplayID, from, to)
	if action == model.ActionPolicyRemove {
		details = fmt.Sprintf("Policy soft-deleted. Reason: %s", reason)
	}
	return audit.Mutation{
		Actor:      actor,
		Action:     action,
		EntityType: model.EntityPolicy,
		TargetID:   p.ID,
		Details:    details,
		Reason:     reason,
		Activity: &audit.Activity{
			PolicyID:       p.ID,
			UserID:         p.UserID,
			PreviousStatus: string(from),
			NewStatus:      string(to),
		},
	}, nil
}

// UpdateNotes replaces the administrator notes on a policy.
func (s *policyService) UpdateNotes(ctx context.Context, actor model.Actor, policyID, notes string) (*model.Policy, error) {
	return s.policyMutation(ctx, policyID, func(p *model.Policy) (audit.Mutation, error) {
		p.Notes = notes
		return audit.Mutation{
			Actor:      actor,
			Action:     model.ActionPolicyNotesUpdate,
			EntityType: model.EntityPolicy,
			TargetID:   p.ID,
			Details:    "Policy notes updated.",
		}, nil
	})
}

// UpdateRenewal sets the next renewal date, formatted YYYY-MM-DD.
func (s *policyService) UpdateRenewal(ctx context.Context, actor model.Actor, policyID, date string) (*model.Policy, error) {
	date = strings.TrimSpace(date)
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, apperrors.NewValidationError("renewal_date", "must be formatted YYYY-MM-DD")
	}
	return s.policyMutation(ctx, policyID, func(p *model.Policy) (audit.Mutation, error) {
		if p.Status.Terminal() {
			return audit.Mutation{}, &apperrors.InvalidTransitionError{From: string(p.Status), To: string(p.Status)}
		}
		previous := p.RenewalDate
		p.RenewalDate = date
		return audit.Mutation{
			Actor:      actor,
			Action:     model.ActionPolicyRenewal,
			EntityType: model.EntityPolicy,
			TargetID:   p.ID,
			Details:    fmt.Sprintf("Renewal date changed from %s to %s.", orNone(previous), date),
		}, nil
	})
}

func (s *policyService) Get(ctx context.Context, policyID string) (*model.Policy, error) {
	policies, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range policies {
		if policies[i].ID == policyID {
			return &policies[i], nil
		}
	}
	return nil, apperrors.ErrPolicyNotFound
}

func (s *policyService) List(ctx context.Context) ([]model.Policy, error) {
	policies, err := repository.ReadAll[model.Policy](ctx, s.Store, repository.CollectionPolicies)
	if err != nil {
		return nil, fmt.Errorf("read policies: %w", err)
	}
	return policies, nil
}

func (s *policyService) ListForUser(ctx context.Context, userID string) ([]model.Policy, error) {
	policies, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Policy, 0)
	for _, p := range policies {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}
