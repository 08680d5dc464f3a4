package pricing

import (
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swiftpolicy/internal/model"
)

func TestQuote_ComprehensiveCarScenario(t *testing.T) {
	engine := NewEngine(WithoutJitter())
	inputs := RiskInputs{
		Category:     CategoryCar,
		CoverLevel:   model.CoverComprehensive,
		PolicyType:   model.PolicyTypeAnnual,
		VehicleValue: decimal.NewFromInt(5000),
		NCBYears:     5,
	}

	got := engine.Quote(inputs, model.DefaultRiskConfig())

	assert.True(t, got.Base.Equal(decimal.NewFromInt(850)), "base %s", got.Base)
	assert.True(t, got.RiskAdjustment.Equal(decimal.NewFromInt(100)), "risk %s", got.RiskAdjustment)
	assert.True(t, got.NCBDiscount.Equal(decimal.NewFromInt(-50)), "discount %s", got.NCBDiscount)
	assert.True(t, got.AdminFee.Equal(decimal.NewFromInt(25)))
	assert.True(t, got.IPT.Equal(decimal.NewFromInt(111)), "ipt %s", got.IPT)
	assert.True(t, got.RawTotal.Equal(decimal.NewFromInt(1036)), "raw %s", got.RawTotal)
	assert.Equal(t, "2965.67", got.Total.StringFixed(2))
	assert.Nil(t, got.FirstMonthCharge)

	jittered := NewEngine(WithSeed(7)).Quote(inputs, model.DefaultRiskConfig())
	assert.True(t, SelectBand(CategoryCar, model.CoverComprehensive, model.PolicyTypeAnnual).Contains(jittered.Total))
}

func TestQuote_TotalAlwaysWithinBand(t *testing.T) {
	engine := NewEngine(WithSeed(42))
	cfg := model.DefaultRiskConfig()
	r := rand.New(rand.NewPCG(1, 2))

	categories := []VehicleCategory{CategoryCar, CategoryVan, CategoryMotorcycle, VehicleCategory("tractor")}
	covers := []model.CoverLevel{model.CoverComprehensive, model.CoverThirdParty, model.CoverThirdPartyFireTheft}
	types := []model.PolicyType{model.PolicyTypeAnnual, model.PolicyTypeOneMonth}
	bands := []string{"A", "B", "C", "D", "E", "F", "Z", ""}

	for i := 0; i < 2000; i++ {
		in := RiskInputs{
			Category:          categories[r.IntN(len(categories))],
			PostcodeBand:      bands[r.IntN(len(bands))],
			CoverLevel:        covers[r.IntN(len(covers))],
			PolicyType:        types[r.IntN(len(types))],
			PenaltyPoints:     r.IntN(20),
			VehicleValue:      decimal.NewFromInt(int64(r.IntN(200000))),
			BusinessUse:       r.IntN(2) == 1,
			Claims:            r.IntN(6),
			AdditionalDrivers: r.IntN(4),
			NCBYears:          r.IntN(15),
			Addons: model.Addons{
				Breakdown:    r.IntN(2) == 1,
				Legal:        r.IntN(2) == 1,
				ProtectedNCB: r.IntN(2) == 1,
			},
		}
		got := engine.Quote(in, cfg)
		b := SelectBand(in.Category, in.CoverLevel, in.PolicyType)
		require.True(t, b.Contains(got.Total), "total %s outside [%s, %s] for %+v", got.Total, b.Min, b.Max, in)
		require.True(t, got.NCBDiscount.LessThanOrEqual(decimal.Zero))
	}
}

func TestQuote_OneMonthBands(t *testing.T) {
	engine := NewEngine(WithSeed(3))
	cfg := model.DefaultRiskConfig()

	tests := []struct {
		name     string
		category VehicleCategory
		cover    model.CoverLevel
		min, max int64
	}{
		{"comprehensive car", CategoryCar, model.CoverComprehensive, 410, 850},
		{"comprehensive van", CategoryVan, model.CoverComprehensive, 410, 850},
		{"third party car", CategoryCar, model.CoverThirdParty, 200, 400},
		{"tpft motorcycle", CategoryMotorcycle, model.CoverThirdPartyFireTheft, 200, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, value := range []int64{0, 5000, 80000, 1000000} {
				got := engine.Quote(RiskInputs{
					Category:      tt.category,
					CoverLevel:    tt.cover,
					PolicyType:    model.PolicyTypeOneMonth,
					VehicleValue:  decimal.NewFromInt(value),
					PenaltyPoints: 12,
					BusinessUse:   true,
				}, cfg)
				assert.True(t, got.Total.GreaterThanOrEqual(decimal.NewFromInt(tt.min)), "total %s", got.Total)
				assert.True(t, got.Total.LessThanOrEqual(decimal.NewFromInt(tt.max)), "total %s", got.Total)
				assert.Nil(t, got.FirstMonthCharge)
			}
		})
	}
}

func TestQuote_SeededEnginesAgree(t *testing.T) {
	in := RiskInputs{Category: CategoryVan, PolicyType: model.PolicyTypeAnnual, VehicleValue: decimal.NewFromInt(12000)}
	cfg := model.DefaultRiskConfig()

	a := NewEngine(WithSeed(99))
	b := NewEngine(WithSeed(99))
	for i := 0; i < 10; i++ {
		assert.True(t, a.Quote(in, cfg).Total.Equal(b.Quote(in, cfg).Total))
	}
}

func TestQuote_MonthlyInstalments(t *testing.T) {
	engine := NewEngine(WithoutJitter())
	got := engine.Quote(RiskInputs{
		Category:         CategoryCar,
		PolicyType:       model.PolicyTypeAnnual,
		PaymentFrequency: PayMonthly,
		VehicleValue:     decimal.NewFromInt(5000),
		NCBYears:         5,
	}, model.DefaultRiskConfig())

	require.NotNil(t, got.FirstMonthCharge)
	require.NotNil(t, got.RemainingBalance)
	instalment := got.Total.Div(decimal.NewFromInt(12)).Round(2)
	assert.True(t, got.FirstMonthCharge.Equal(instalment.Add(decimal.NewFromInt(25))))
	assert.True(t, got.FullAnnualPremium.Equal(got.Total))
	assert.True(t, got.RemainingBalance.Add(instalment).Equal(got.Total))
}

func TestQuote_AddonsAndMultipliers(t *testing.T) {
	engine := NewEngine(WithoutJitter())
	cfg := model.DefaultRiskConfig()

	got := engine.Quote(RiskInputs{
		Category:     CategoryVan,
		PostcodeBand: "F",
		Addons:       model.Addons{Breakdown: true, Legal: true, CourtesyCar: true, Windscreen: true, ProtectedNCB: true, KeyCover: true},
	}, cfg)

	// 1200 x 1.3 x 2.5
	assert.True(t, got.Base.Equal(decimal.NewFromInt(3900)), "base %s", got.Base)
	assert.True(t, got.Addons.Equal(decimal.NewFromInt(215)), "addons %s", got.Addons)
	assert.True(t, got.BandMin.Equal(decimal.NewFromInt(3100)))
}

func TestQuote_NegativeInputsAreZero(t *testing.T) {
	engine := NewEngine(WithoutJitter())
	cfg := model.DefaultRiskConfig()

	neg := engine.Quote(RiskInputs{PenaltyPoints: -4, Claims: -2, VehicleValue: decimal.NewFromInt(-900), NCBYears: -3}, cfg)
	zero := engine.Quote(RiskInputs{}, cfg)

	assert.True(t, neg.Total.Equal(zero.Total))
	assert.True(t, neg.RiskAdjustment.IsZero())
}

func TestParseRiskInputs(t *testing.T) {
	got := ParseRiskInputs(QuoteRequest{
		VehicleType:       "Motorbike",
		PostcodeBand:      " c ",
		CoverLevel:        "Third Party Fire & Theft",
		PolicyType:        "one_month",
		PaymentFrequency:  "Monthly",
		PenaltyPoints:     "5",
		VehicleValue:      "£12,500",
		Usage:             "Social & Business",
		Claims:            "",
		AdditionalDrivers: "abc",
		NCBYears:          "NaN",
	})

	assert.Equal(t, CategoryMotorcycle, got.Category)
	assert.Equal(t, "C", got.PostcodeBand)
	assert.Equal(t, model.CoverThirdPartyFireTheft, got.CoverLevel)
	assert.Equal(t, model.PolicyTypeOneMonth, got.PolicyType)
	assert.Equal(t, PayMonthly, got.PaymentFrequency)
	assert.Equal(t, 5, got.PenaltyPoints)
	assert.True(t, got.VehicleValue.Equal(decimal.NewFromInt(12500)))
	assert.True(t, got.BusinessUse)
	assert.Zero(t, got.Claims)
	assert.Zero(t, got.AdditionalDrivers)
	assert.Zero(t, got.NCBYears)

	assert.Equal(t, CategoryCar, ParseRiskInputs(QuoteRequest{VehicleType: "hovercraft"}).Category)
	assert.True(t, ParseRiskInputs(QuoteRequest{VehicleValue: "-10"}).VehicleValue.IsZero())
}
