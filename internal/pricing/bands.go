package pricing

import (
	"github.com/shopspring/decimal"

	"swiftpolicy/internal/model"
)

// Band is a closed permissible price range.
type Band struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Width returns Max - Min.
func (b Band) Width() decimal.Decimal {
	return b.Max.Sub(b.Min)
}

// Contains reports whether v lies within the band, inclusive.
func (b Band) Contains(v decimal.Decimal) bool {
	return v.GreaterThanOrEqual(b.Min) && v.LessThanOrEqual(b.Max)
}

func band(lo, hi int64) Band {
	return Band{Min: decimal.NewFromInt(lo), Max: decimal.NewFromInt(hi)}
}

type bandKey struct {
	category   VehicleCategory
	thirdParty bool
}

var annualBands = map[bandKey]Band{
	{CategoryCar, false}:        band(2800, 4500),
	{CategoryCar, true}:         band(1420, 2750),
	{CategoryVan, false}:        band(3100, 4900),
	{CategoryVan, true}:         band(1600, 3000),
	{CategoryMotorcycle, false}: band(810, 1700),
	{CategoryMotorcycle, true}:  band(810, 1700),
}

var (
	oneMonthComprehensive = band(410, 850)
	oneMonthThirdParty    = band(200, 400)
)

// Raw prices are normalised against this range before projection into a band.
var (
	referenceMin = decimal.NewFromInt(500)
	referenceMax = decimal.NewFromInt(6000)
)

// SelectBand returns the band for the category, cover level and policy type.
// ONE_MONTH always uses the short-duration table.
func SelectBand(category VehicleCategory, cover model.CoverLevel, policyType model.PolicyType) Band {
	thirdParty := cover.IsThirdParty()
	if policyType == model.PolicyTypeOneMonth {
		if thirdParty {
			return oneMonthThirdParty
		}
		return oneMonthComprehensive
	}
	if b, ok := annualBands[bandKey{category, thirdParty}]; ok {
		return b
	}
	return annualBands[bandKey{CategoryCar, thirdParty}]
}
