package pricing

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"swiftpolicy/internal/model"
)

// VehicleCategory selects the base rate and band table.
type VehicleCategory string

const (
	CategoryCar        VehicleCategory = "car"
	CategoryVan        VehicleCategory = "van"
	CategoryMotorcycle VehicleCategory = "motorcycle"
)

// ParseCategory maps a free-form vehicle type onto a category. Unknown values are cars.
func ParseCategory(s string) VehicleCategory {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "van", "lcv":
		return CategoryVan
	case "motorcycle", "motorbike", "bike", "scooter":
		return CategoryMotorcycle
	default:
		return CategoryCar
	}
}

// multiplierKey is the RiskConfig key for the category.
func (c VehicleCategory) multiplierKey() string {
	switch c {
	case CategoryVan:
		return "Van"
	case CategoryMotorcycle:
		return "Bike"
	default:
		return "Car"
	}
}

// PaymentFrequency is how the customer pays for an annual policy.
type PaymentFrequency string

const (
	PayAnnually PaymentFrequency = "annual"
	PayMonthly  PaymentFrequency = "monthly"
)

// RiskInputs are the typed, already-sanitised rating factors for one quote.
type RiskInputs struct {
	Category          VehicleCategory
	PostcodeBand      string
	CoverLevel        model.CoverLevel
	PolicyType        model.PolicyType
	PaymentFrequency  PaymentFrequency
	PenaltyPoints     int
	VehicleValue      decimal.Decimal
	BusinessUse       bool
	Claims            int
	AdditionalDrivers int
	NCBYears          int
	Addons            model.Addons
}

// QuoteRequest is the loosely-typed quote form as submitted by a client.
type QuoteRequest struct {
	VehicleType       string       `json:"vehicle_type"`
	PostcodeBand      string       `json:"postcode_band"`
	CoverLevel        string       `json:"cover_level"`
	PolicyType        string       `json:"policy_type"`
	PaymentFrequency  string       `json:"payment_frequency"`
	PenaltyPoints     string       `json:"penalty_points"`
	VehicleValue      string       `json:"vehicle_value"`
	Usage             string       `json:"usage"`
	Claims            string       `json:"claims"`
	AdditionalDrivers string       `json:"additional_drivers"`
	NCBYears          string       `json:"ncb_years"`
	Addons            model.Addons `json:"addons"`
}

// ParseRiskInputs converts a quote form into rating factors. Anything that does
// not parse as a non-negative number becomes zero.
func ParseRiskInputs(req QuoteRequest) RiskInputs {
	policyType := model.PolicyTypeAnnual
	if strings.EqualFold(strings.TrimSpace(req.PolicyType), string(model.PolicyTypeOneMonth)) {
		policyType = model.PolicyTypeOneMonth
	}
	freq := PayAnnually
	if strings.EqualFold(strings.TrimSpace(req.PaymentFrequency), string(PayMonthly)) {
		freq = PayMonthly
	}

	return RiskInputs{
		Category:          ParseCategory(req.VehicleType),
		PostcodeBand:      strings.ToUpper(strings.TrimSpace(req.PostcodeBand)),
		CoverLevel:        model.ParseCoverLevel(req.CoverLevel),
		PolicyType:        policyType,
		PaymentFrequency:  freq,
		PenaltyPoints:     parseCount(req.PenaltyPoints),
		VehicleValue:      parseAmount(req.VehicleValue),
		BusinessUse:       strings.Contains(strings.ToLower(req.Usage), "business"),
		Claims:            parseCount(req.Claims),
		AdditionalDrivers: parseCount(req.AdditionalDrivers),
		NCBYears:          parseCount(req.NCBYears),
		Addons:            req.Addons,
	}
}

func parseCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func parseAmount(s string) decimal.Decimal {
	s = strings.NewReplacer(",", "", "£", "").Replace(strings.TrimSpace(s))
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// sanitize zeroes negative numerics on inputs built in code rather than parsed.
func (in RiskInputs) sanitize() RiskInputs {
	if in.PenaltyPoints < 0 {
		in.PenaltyPoints = 0
	}
	if in.Claims < 0 {
		in.Claims = 0
	}
	if in.AdditionalDrivers < 0 {
		in.AdditionalDrivers = 0
	}
	if in.NCBYears < 0 {
		in.NCBYears = 0
	}
	if in.VehicleValue.IsNegative() {
		in.VehicleValue = decimal.Zero
	}
	if in.Category == "" {
		in.Category = CategoryCar
	}
	if in.CoverLevel == "" {
		in.CoverLevel = model.CoverComprehensive
	}
	if in.PolicyType == "" {
		in.PolicyType = model.PolicyTypeAnnual
	}
	return in
}
