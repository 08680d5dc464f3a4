package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PolicyStatus is a state in the policy lifecycle.
type PolicyStatus string

const (
	PolicyStatusPendingApproval PolicyStatus = "Pending Approval"
	PolicyStatusApproved        PolicyStatus = "Approved"
	PolicyStatusActive          PolicyStatus = "Active"
	PolicyStatusSuspended       PolicyStatus = "Suspended"
	PolicyStatusFrozen          PolicyStatus = "Frozen"
	PolicyStatusValidated       PolicyStatus = "Validated"
	PolicyStatusBlocked         PolicyStatus = "Blocked"
	PolicyStatusCancelled       PolicyStatus = "Cancelled"
	PolicyStatusExpired         PolicyStatus = "Expired"
	PolicyStatusLapsed          PolicyStatus = "Lapsed"
	PolicyStatusRenewed         PolicyStatus = "Renewed"
	PolicyStatusTerminated      PolicyStatus = "Terminated"
	PolicyStatusDeleted         PolicyStatus = "Deleted"
	PolicyStatusRemoved         PolicyStatus = "Removed"
)

// Terminal reports whether no further transition may leave s.
func (s PolicyStatus) Terminal() bool {
	return s == PolicyStatusDeleted || s == PolicyStatusRemoved
}

// PolicyType selects the policy term.
type PolicyType string

const (
	PolicyTypeAnnual   PolicyType = "ANNUAL"
	PolicyTypeOneMonth PolicyType = "ONE_MONTH"
)

// PolicyDuration is the human-readable term derived from PolicyType.
type PolicyDuration string

const (
	PolicyDurationTwelveMonths PolicyDuration = "12 Months"
	PolicyDurationOneMonth     PolicyDuration = "1 Month"
)

// Duration returns the term label for the policy type.
func (t PolicyType) Duration() PolicyDuration {
	if t == PolicyTypeOneMonth {
		return PolicyDurationOneMonth
	}
	return PolicyDurationTwelveMonths
}

// PaymentStatusLabel is the billing state shown on a policy.
type PaymentStatusLabel string

const (
	PolicyPaid    PaymentStatusLabel = "Paid"
	PolicyUnpaid  PaymentStatusLabel = "Unpaid"
	PolicyPartial PaymentStatusLabel = "Partial"
	PolicyOverdue PaymentStatusLabel = "Overdue"
)

// CoverLevel is the level of cover purchased.
type CoverLevel string

const (
	CoverComprehensive       CoverLevel = "Comprehensive"
	CoverThirdPartyFireTheft CoverLevel = "Third Party Fire & Theft"
	CoverThirdParty          CoverLevel = "Third Party"
)

// ParseCoverLevel maps free-form labels onto a cover level. Anything that is
// not recognisably third-party is treated as comprehensive.
func ParseCoverLevel(s string) CoverLevel {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(v, "fire") || strings.Contains(v, "tpft"):
		return CoverThirdPartyFireTheft
	case strings.Contains(v, "third"):
		return CoverThirdParty
	default:
		return CoverComprehensive
	}
}

// IsThirdParty reports whether the cover is one of the third-party levels.
func (c CoverLevel) IsThirdParty() bool {
	return c == CoverThirdParty || c == CoverThirdPartyFireTheft
}

// Addons are the optional extras attached to a policy.
type Addons struct {
	Breakdown    bool `json:"breakdown"`
	Legal        bool `json:"legal"`
	CourtesyCar  bool `json:"courtesy_car"`
	Windscreen   bool `json:"windscreen"`
	ProtectedNCB bool `json:"protected_ncb"`
	KeyCover     bool `json:"key_cover"`
}

// VehicleSpec is the vehicle record returned by lookups and stored on a policy.
type VehicleSpec struct {
	Registration string          `json:"registration"`
	VIN          string          `json:"vin,omitempty"`
	Make         string          `json:"make"`
	Model        string          `json:"model"`
	Year         string          `json:"year"`
	FuelType     string          `json:"fuel_type,omitempty"`
	EngineSize   string          `json:"engine_size,omitempty"`
	Color        string          `json:"color,omitempty"`
	Value        decimal.Decimal `json:"value"`
}

// Coverage describes what the policy covers and for how long.
type Coverage struct {
	CoverLevel CoverLevel `json:"cover_level"`
	Excess     string     `json:"excess"`
	NCBYears   int        `json:"ncb_years"`
	UsageType  string     `json:"usage_type,omitempty"`
	StartDate  string     `json:"start_date,omitempty"`
	ExpiryDate string     `json:"expiry_date,omitempty"`
}

// CardOnFile is the non-sensitive card metadata kept for renewals.
type CardOnFile struct {
	LastFour       string `json:"last_four"`
	CardholderName string `json:"cardholder_name"`
	Expiry         string `json:"expiry"`
}

// PolicyDetails is the nested vehicle, coverage and payment record.
type PolicyDetails struct {
	Vehicle    VehicleSpec       `json:"vehicle"`
	Coverage   Coverage          `json:"coverage"`
	Addons     Addons            `json:"addons"`
	Breakdown  *PremiumBreakdown `json:"breakdown,omitempty"`
	Card       *CardOnFile       `json:"card,omitempty"`
	PaymentRef string            `json:"payment_ref,omitempty"`
}

// Normalize resolves defaults once so read sites never need to.
func (d PolicyDetails) Normalize() PolicyDetails {
	d.Vehicle.Registration = NormalizeVRM(d.Vehicle.Registration)
	d.Vehicle.Make = strings.ToUpper(strings.TrimSpace(d.Vehicle.Make))
	d.Vehicle.Model = strings.ToUpper(strings.TrimSpace(d.Vehicle.Model))
	if d.Vehicle.Value.IsNegative() {
		d.Vehicle.Value = decimal.Zero
	}
	if d.Coverage.CoverLevel == "" {
		d.Coverage.CoverLevel = CoverComprehensive
	} else {
		d.Coverage.CoverLevel = ParseCoverLevel(string(d.Coverage.CoverLevel))
	}
	if d.Coverage.Excess == "" {
		d.Coverage.Excess = "250"
	}
	if d.Coverage.NCBYears < 0 {
		d.Coverage.NCBYears = 0
	}
	if d.Card != nil && d.Card.LastFour == "" {
		d.Card = nil
	}
	return d
}

// NormalizeVRM strips whitespace and upper-cases a registration mark.
func NormalizeVRM(vrm string) string {
	return strings.ToUpper(strings.Join(strings.Fields(vrm), ""))
}

// Policy is a bound insurance contract.
type Policy struct {
	ID            string             `json:"id"`
	DisplayID     string             `json:"display_id"`
	UserID        string             `json:"user_id"`
	Type          string             `json:"type"`
	PolicyType    PolicyType         `json:"policy_type"`
	Duration      PolicyDuration     `json:"duration"`
	Premium       decimal.Decimal    `json:"premium"`
	Status        PolicyStatus       `json:"status"`
	PaymentStatus PaymentStatusLabel `json:"payment_status"`
	Details       PolicyDetails      `json:"details"`
	Notes         string             `json:"notes,omitempty"`
	RenewalDate   string             `json:"renewal_date,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// IsActive reports whether the policy currently provides cover.
func (p *Policy) IsActive() bool {
	return p != nil && p.Status == PolicyStatusActive
}
