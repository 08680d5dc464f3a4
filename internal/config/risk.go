package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"swiftpolicy/internal/model"
)

type riskFile struct {
	IPTRate                    *float64           `mapstructure:"ipt_rate"`
	AdminFee                   *float64           `mapstructure:"admin_fee"`
	PostcodeMultipliers        map[string]float64 `mapstructure:"postcode_multipliers"`
	VehicleCategoryMultipliers map[string]float64 `mapstructure:"vehicle_category_multipliers"`
	NCBDiscountMax             *float64           `mapstructure:"ncb_discount_max"`
	MinPremium                 *float64           `mapstructure:"min_premium"`
}

// LoadRiskConfig reads the initial pricing tunables from a YAML file, layered
// over model.DefaultRiskConfig. An empty path or a missing file yields the defaults.
func LoadRiskConfig(path string) (model.RiskConfig, error) {
	cfg := model.DefaultRiskConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("read risk config %s: %w", path, err)
	}

	var f riskFile
	if err := v.Unmarshal(&f); err != nil {
		return cfg, fmt.Errorf("decode risk config %s: %w", path, err)
	}

	patch := model.RiskConfigPatch{
		IPTRate:        toDecimal(f.IPTRate),
		AdminFee:       toDecimal(f.AdminFee),
		NCBDiscountMax: toDecimal(f.NCBDiscountMax),
		MinPremium:     toDecimal(f.MinPremium),
	}
	// viper lower-cases map keys.
	if len(f.PostcodeMultipliers) > 0 {
		patch.PostcodeMultipliers = make(map[string]decimal.Decimal, len(f.PostcodeMultipliers))
		for k, val := range f.PostcodeMultipliers {
			patch.PostcodeMultipliers[strings.ToUpper(k)] = decimal.NewFromFloat(val)
		}
	}
	if len(f.VehicleCategoryMultipliers) > 0 {
		patch.VehicleCategoryMultipliers = make(map[string]decimal.Decimal, len(f.VehicleCategoryMultipliers))
		for k, val := range f.VehicleCategoryMultipliers {
			patch.VehicleCategoryMultipliers[categoryKey(k)] = decimal.NewFromFloat(val)
		}
	}

	return patch.Apply(cfg), nil
}

func toDecimal(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := decimal.NewFromFloat(*f)
	return &d
}

func categoryKey(k string) string {
	if k == "" {
		return k
	}
	return strings.ToUpper(k[:1]) + strings.ToLower(k[1:])
}
