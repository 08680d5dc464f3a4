package service

import (
	"context"
	"fmt"

	"swiftpolicy/internal/model"
	"swiftpolicy/internal/pricing"
	"swiftpolicy/internal/repository"
)

// QuoteService prices proposed policies against the current risk configuration.
type QuoteService interface {
	Quote(ctx context.Context, req pricing.QuoteRequest) (*model.PremiumBreakdown, error)
}

type quoteService struct {
	Deps
	engine *pricing.Engine
}

// NewQuoteService builds a QuoteService. A nil engine gets an unseeded one.
func NewQuoteService(deps Deps, engine *pricing.Engine) QuoteService {
	deps = deps.withDefaults()
	if engine == nil {
		engine = pricing.NewEngine()
	}
	return &quoteService{Deps: deps, engine: engine}
}

// Quote never fails on malformed form values; they price as zero.
func (s *quoteService) Quote(ctx context.Context, req pricing.QuoteRequest) (*model.PremiumBreakdown, error) {
	cfg, err := currentRiskConfig(ctx, s.Store)
	if err != nil {
		return nil, err
	}
	inputs := pricing.ParseRiskInputs(req)
	breakdown := s.engine.Quote(inputs, cfg)
	s.Metrics.IncQuote(string(inputs.Category), string(inputs.PolicyType))
	return &breakdown, nil
}

// currentRiskConfig reads the committed configuration, falling back to defaults.
func currentRiskConfig(ctx context.Context, store repository.Store) (model.RiskConfig, error) {
	var cfg model.RiskConfig
	found, err := store.Read(ctx, repository.CollectionRiskConfig, &cfg)
	if err != nil {
		return model.RiskConfig{}, fmt.Errorf("read risk config: %w", err)
	}
	if !found {
		return model.DefaultRiskConfig(), nil
	}
	return cfg, nil
}
