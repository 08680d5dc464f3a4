package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"swiftpolicy/internal/audit"
	apperrors "swiftpolicy/internal/errors"
	"swiftpolicy/internal/model"
	"swiftpolicy/internal/repository"
)

var hundred = decimal.NewFromInt(100)

// RiskConfigService reads and tunes the pricing constants.
type RiskConfigService interface {
	Get(ctx context.Context) (*model.RiskConfig, error)
	Update(ctx context.Context, actor model.Actor, patch model.RiskConfigPatch) (*model.RiskConfig, error)
	Seed(ctx context.Context, cfg model.RiskConfig) (bool, error)
}

type riskConfigService struct {
	Deps
	log *zap.Logger
}

// NewRiskConfigService builds a RiskConfigService.
func NewRiskConfigService(deps Deps) RiskConfigService {
	deps = deps.withDefaults()
	return &riskConfigService{Deps: deps, log: deps.Log.Named("risk.config.service")}
}

func (s *riskConfigService) Get(ctx context.Context) (*model.RiskConfig, error) {
	cfg, err := currentRiskConfig(ctx, s.Store)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Update merges patch into the stored configuration and bumps its version.
func (s *riskConfigService) Update(ctx context.Context, actor model.Actor, patch model.RiskConfigPatch) (*model.RiskConfig, error) {
	var updated model.RiskConfig
	err := s.Store.WithTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		singleton := repository.RiskConfig(tx)
		current, found, err := singleton.Get()
		if err != nil {
			return err
		}
		if !found {
			current = model.DefaultRiskConfig()
		}

		next := patch.Apply(current)
		if err := validateRiskConfig(next); err != nil {
			return err
		}
		next.Version = current.Version + 1
		next.UpdatedAt = s.Now()
		next.UpdatedBy = model.SystemActorID
		if !actor.IsSystem() {
			next.UpdatedBy = actor.Email
		}
		if err := singleton.Put(next); err != nil {
			return err
		}

		_, err = s.Recorder.Record(ctx, tx, audit.Mutation{
			Actor:      actor,
			Action:     model.ActionRiskConfigUpdate,
			EntityType: model.EntitySystem,
			TargetID:   repository.CollectionRiskConfig,
			Details:    fmt.Sprintf("Risk configuration v%d -> v%d: %s", current.Version, next.Version, describePatch(patch)),
		})
		if err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("risk config updated", zap.Int("version", updated.Version), zap.String("updated_by", updated.UpdatedBy))
	return &updated, nil
}

// Seed stores cfg when no configuration exists yet. It reports whether it wrote.
func (s *riskConfigService) Seed(ctx context.Context, cfg model.RiskConfig) (bool, error) {
	if err := validateRiskConfig(cfg); err != nil {
		return false, err
	}
	written := false
	err := s.Store.WithTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		singleton := repository.RiskConfig(tx)
		if _, found, err := singleton.Get(); err != nil || found {
			return err
		}
		if cfg.Version == 0 {
			cfg.Version = 1
		}
		cfg.UpdatedAt = s.Now()
		cfg.UpdatedBy = model.SystemActorID
		written = true
		return singleton.Put(cfg)
	})
	if err != nil {
		return false, fmt.Errorf("seed risk config: %w", err)
	}
	return written, nil
}

func validateRiskConfig(cfg model.RiskConfig) error {
	if cfg.IPTRate.IsNegative() || cfg.IPTRate.GreaterThan(hundred) {
		return apperrors.NewValidationError("ipt_rate", "must be between 0 and 100")
	}
	if cfg.AdminFee.IsNegative() {
		return apperrors.NewValidationError("admin_fee", "must not be negative")
	}
	if cfg.NCBDiscountMax.IsNegative() || cfg.NCBDiscountMax.GreaterThan(hundred) {
		return apperrors.NewValidationError("ncb_discount_max", "must be between 0 and 100")
	}
	if cfg.MinPremium.IsNegative() {
		return apperrors.NewValidationError("min_premium", "must not be negative")
	}
	for k, v := range cfg.PostcodeMultipliers {
		if !v.IsPositive() {
			return apperrors.NewValidationError("postcode_multipliers", fmt.Sprintf("band %s must be positive", k))
		}
	}
	for k, v := range cfg.VehicleCategoryMultipliers {
		if !v.IsPositive() {
			return apperrors.NewValidationError("vehicle_category_multipliers", fmt.Sprintf("category %s must be positive", k))
		}
	}
	return nil
}

func describePatch(p model.RiskConfigPatch) string {
	var parts []string
	if p.IPTRate != nil {
		parts = append(parts, "ipt_rate="+p.IPTRate.String())
	}
	if p.AdminFee != nil {
		parts = append(parts, "admin_fee="+p.AdminFee.String())
	}
	if p.NCBDiscountMax != nil {
		parts = append(parts, "ncb_discount_max="+p.NCBDiscountMax.String())
	}
	if p.MinPremium != nil {
		parts = append(parts, "min_premium="+p.MinPremium.String())
	}
	for _, k := range sortedKeys(p.PostcodeMultipliers) {
		parts = append(parts, "postcode."+k+"="+p.PostcodeMultipliers[k].String())
	}
	for _, k := range sortedKeys(p.VehicleCategoryMultipliers) {
		parts = append(parts, "category."+k+"="+p.VehicleCategoryMultipliers[k].String())
	}
	if len(parts) == 0 {
		return "no changes"
	}
	return strings.Join(parts, ", ")
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
