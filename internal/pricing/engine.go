// Package pricing computes banded premium quotes from rating factors.
package pricing

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"swiftpolicy/internal/model"
)

var (
	baseRates = map[VehicleCategory]decimal.Decimal{
		CategoryCar:        decimal.NewFromInt(850),
		CategoryVan:        decimal.NewFromInt(1200),
		CategoryMotorcycle: decimal.NewFromInt(600),
	}

	pointsWeight     = decimal.NewFromInt(45)
	valueFraction    = decimal.RequireFromString("0.02")
	businessUseLoad  = decimal.NewFromInt(150)
	claimWeight      = decimal.NewFromInt(250)
	extraDriverLoad  = decimal.NewFromInt(75)
	ncbStep          = decimal.RequireFromString("0.10")
	jitterFraction   = decimal.RequireFromString("0.05")
	monthsInYear     = decimal.NewFromInt(12)
	hundred          = decimal.NewFromInt(100)
	defaultNCBCapPct = decimal.NewFromInt(65)
)

// Add-on prices.
var (
	AddonBreakdown    = decimal.NewFromInt(45)
	AddonLegal        = decimal.NewFromInt(30)
	AddonCourtesyCar  = decimal.NewFromInt(35)
	AddonWindscreen   = decimal.NewFromInt(25)
	AddonProtectedNCB = decimal.NewFromInt(60)
	AddonKeyCover     = decimal.NewFromInt(20)
)

// Option configures an Engine.
type Option func(*Engine)

// WithSeed makes the band jitter reproducible.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithoutJitter disables the band perturbation entirely.
func WithoutJitter() Option {
	return func(e *Engine) {
		e.jitter = false
	}
}

// Engine is the premium rating engine. It never touches storage.
type Engine struct {
	mu     sync.Mutex
	rng    *rand.Rand
	jitter bool
}

// NewEngine creates an engine seeded from the clock unless WithSeed is given.
func NewEngine(opts ...Option) *Engine {
	seed := uint64(time.Now().UnixNano())
	e := &Engine{
		rng:    rand.New(rand.NewPCG(seed, seed>>1)),
		jitter: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Quote prices the inputs against cfg. The total always lies inside the
// selected band, inclusive.
func (e *Engine) Quote(inputs RiskInputs, cfg model.RiskConfig) model.PremiumBreakdown {
	in := inputs.sanitize()

	base := baseRates[in.Category]
	if base.IsZero() {
		base = baseRates[CategoryCar]
	}
	base = base.Mul(multiplier(cfg.VehicleCategoryMultipliers, in.Category.multiplierKey())).
		Mul(multiplier(cfg.PostcodeMultipliers, in.PostcodeBand))

	risk := pointsWeight.Mul(decimal.NewFromInt(int64(in.PenaltyPoints))).
		Add(in.VehicleValue.Mul(valueFraction)).
		Add(claimWeight.Mul(decimal.NewFromInt(int64(in.Claims)))).
		Add(extraDriverLoad.Mul(decimal.NewFromInt(int64(in.AdditionalDrivers))))
	if in.BusinessUse {
		risk = risk.Add(businessUseLoad)
	}

	discount := risk.Mul(ncbRate(in.NCBYears, cfg.NCBDiscountMax)).Neg()
	addons := addonTotal(in.Addons)
	adminFee := nonNegative(cfg.AdminFee)

	subtotal := base.Add(risk).Add(discount).Add(addons).Add(adminFee)
	ipt := subtotal.Mul(nonNegative(cfg.IPTRate)).Div(hundred)
	raw := subtotal.Add(ipt)

	b := SelectBand(in.Category, in.CoverLevel, in.PolicyType)
	total := e.project(raw, b)

	out := model.PremiumBreakdown{
		Base:           base.Round(2),
		RiskAdjustment: risk.Round(2),
		NCBDiscount:    discount.Round(2),
		Addons:         addons.Round(2),
		IPT:            ipt.Round(2),
		AdminFee:       adminFee.Round(2),
		RawTotal:       raw.Round(2),
		BandMin:        b.Min,
		BandMax:        b.Max,
		Total:          total,
	}

	if in.PaymentFrequency == PayMonthly && in.PolicyType != model.PolicyTypeOneMonth {
		instalment := total.Div(monthsInYear).Round(2)
		first := instalment.Add(adminFee).Round(2)
		remaining := total.Sub(instalment)
		full := total
		out.FirstMonthCharge = &first
		out.FullAnnualPremium = &full
		out.RemainingBalance = &remaining
	}

	return out
}

// project normalises raw against the reference range, re-projects it into b,
// perturbs it and clamps the result.
func (e *Engine) project(raw decimal.Decimal, b Band) decimal.Decimal {
	norm := raw.Sub(referenceMin).Div(referenceMax.Sub(referenceMin))
	norm = clamp(norm, decimal.Zero, decimal.NewFromInt(1))

	target := b.Min.Add(b.Width().Mul(norm))
	if e.jitter {
		target = target.Add(b.Width().Mul(jitterFraction).Mul(e.unit()))
	}
	return clamp(target, b.Min, b.Max).Round(2)
}

// unit draws a uniform value in [-1, 1).
func (e *Engine) unit() decimal.Decimal {
	e.mu.Lock()
	f := e.rng.Float64()
	e.mu.Unlock()
	return decimal.NewFromFloat(f*2 - 1)
}

func ncbRate(years int, maxPct decimal.Decimal) decimal.Decimal {
	if maxPct.IsZero() || maxPct.IsNegative() {
		maxPct = defaultNCBCapPct
	}
	capYears := min(maxPct.Div(decimal.NewFromInt(10)).IntPart(), 10)
	y := int64(years)
	if y > capYears {
		y = capYears
	}
	return ncbStep.Mul(decimal.NewFromInt(y))
}

func addonTotal(a model.Addons) decimal.Decimal {
	total := decimal.Zero
	for _, item := range []struct {
		on    bool
		price decimal.Decimal
	}{
		{a.Breakdown, AddonBreakdown},
		{a.Legal, AddonLegal},
		{a.CourtesyCar, AddonCourtesyCar},
		{a.Windscreen, AddonWindscreen},
		{a.ProtectedNCB, AddonProtectedNCB},
		{a.KeyCover, AddonKeyCover},
	} {
		if item.on {
			total = total.Add(item.price)
		}
	}
	return total
}

func multiplier(m map[string]decimal.Decimal, key string) decimal.Decimal {
	if v, ok := m[key]; ok && v.IsPositive() {
		return v
	}
	return decimal.NewFromInt(1)
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
