package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RiskConfig holds the administrator-tunable pricing constants.
type RiskConfig struct {
	IPTRate                    decimal.Decimal            `json:"ipt_rate"`
	AdminFee                   decimal.Decimal            `json:"admin_fee"`
	PostcodeMultipliers        map[string]decimal.Decimal `json:"postcode_multipliers"`
	VehicleCategoryMultipliers map[string]decimal.Decimal `json:"vehicle_category_multipliers"`
	NCBDiscountMax             decimal.Decimal            `json:"ncb_discount_max"`
	MinPremium                 decimal.Decimal            `json:"min_premium"`
	Version                    int                        `json:"version"`
	UpdatedAt                  time.Time                  `json:"updated_at"`
	UpdatedBy                  string                     `json:"updated_by,omitempty"`
}

// DefaultRiskConfig returns the factory pricing constants.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		IPTRate:  decimal.NewFromInt(12),
		AdminFee: decimal.NewFromInt(25),
		PostcodeMultipliers: map[string]decimal.Decimal{
			"A": decimal.RequireFromString("1.0"),
			"B": decimal.RequireFromString("1.2"),
			"C": decimal.RequireFromString("1.4"),
			"D": decimal.RequireFromString("1.6"),
			"E": decimal.RequireFromString("1.8"),
			"F": decimal.RequireFromString("2.5"),
		},
		VehicleCategoryMultipliers: map[string]decimal.Decimal{
			"Car":  decimal.RequireFromString("1.0"),
			"Van":  decimal.RequireFromString("1.3"),
			"Bike": decimal.RequireFromString("0.8"),
		},
		NCBDiscountMax: decimal.NewFromInt(65),
		MinPremium:     decimal.NewFromInt(450),
		Version:        1,
	}
}

// RiskConfigPatch carries a partial administrator update. Nil fields are left unchanged.
type RiskConfigPatch struct {
	IPTRate                    *decimal.Decimal           `json:"ipt_rate,omitempty"`
	AdminFee                   *decimal.Decimal           `json:"admin_fee,omitempty"`
	PostcodeMultipliers        map[string]decimal.Decimal `json:"postcode_multipliers,omitempty"`
	VehicleCategoryMultipliers map[string]decimal.Decimal `json:"vehicle_category_multipliers,omitempty"`
	NCBDiscountMax             *decimal.Decimal           `json:"ncb_discount_max,omitempty"`
	MinPremium                 *decimal.Decimal           `json:"min_premium,omitempty"`
}

// Apply returns cfg with the patch merged in. Map entries are merged key by key.
func (p RiskConfigPatch) Apply(cfg RiskConfig) RiskConfig {
	if p.IPTRate != nil {
		cfg.IPTRate = *p.IPTRate
	}
	if p.AdminFee != nil {
		cfg.AdminFee = *p.AdminFee
	}
	if p.NCBDiscountMax != nil {
		cfg.NCBDiscountMax = *p.NCBDiscountMax
	}
	if p.MinPremium != nil {
		cfg.MinPremium = *p.MinPremium
	}
	cfg.PostcodeMultipliers = mergeMultipliers(cfg.PostcodeMultipliers, p.PostcodeMultipliers)
	cfg.VehicleCategoryMultipliers = mergeMultipliers(cfg.VehicleCategoryMultipliers, p.VehicleCategoryMultipliers)
	return cfg
}

func mergeMultipliers(base, updates map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(base)+len(updates))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range updates {
		out[k] = v
	}
	return out
}

// PremiumBreakdown is the itemised output of the rating engine.
type PremiumBreakdown struct {
	Base              decimal.Decimal  `json:"base"`
	RiskAdjustment    decimal.Decimal  `json:"risk_adjustment"`
	NCBDiscount       decimal.Decimal  `json:"ncb_discount"`
	Addons            decimal.Decimal  `json:"addons"`
	IPT               decimal.Decimal  `json:"ipt"`
	AdminFee          decimal.Decimal  `json:"admin_fee"`
	RawTotal          decimal.Decimal  `json:"raw_total"`
	BandMin           decimal.Decimal  `json:"band_min"`
	BandMax           decimal.Decimal  `json:"band_max"`
	Total             decimal.Decimal  `json:"total"`
	FirstMonthCharge  *decimal.Decimal `json:"first_month_charge,omitempty"`
	FullAnnualPremium *decimal.Decimal `json:"full_annual_premium,omitempty"`
	RemainingBalance  *decimal.Decimal `json:"remaining_balance,omitempty"`
}
