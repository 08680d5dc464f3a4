package service

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "swiftpolicy/internal/errors"
	"swiftpolicy/internal/model"
)

var (
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/(\d{2})$`)
	cvvPattern    = regexp.MustCompile(`^\d{3,4}$`)
	nonDigit      = regexp.MustCompile(`\D`)
)

// CardPayment is the card presented at checkout. Only CardOnFile metadata
// survives validation; the number and CVV are never stored.
type CardPayment struct {
	Number         string `json:"number"`
	CardholderName string `json:"cardholder_name"`
	Expiry         string `json:"expiry"`
	CVV            string `json:"cvv"`
}

// CardValidator validates checkout cards.
type CardValidator struct {
	now func() time.Time
}

// NewCardValidator creates a card validator. A nil clock uses time.Now.
func NewCardValidator(now func() time.Time) *CardValidator {
	if now == nil {
		now = time.Now
	}
	return &CardValidator{now: now}
}

// Validate checks number, expiry and CVV and returns the metadata kept on the policy.
func (v *CardValidator) Validate(card CardPayment) (*model.CardOnFile, error) {
	number := strings.ReplaceAll(strings.ReplaceAll(card.Number, " ", ""), "-", "")
	if !v.validateLuhn(number) {
		return nil, apperrors.NewValidationError("payment.number", "card number is invalid")
	}

	expiry := strings.TrimSpace(card.Expiry)
	if !expiryPattern.MatchString(expiry) || !v.validateExpiry(expiry) {
		return nil, apperrors.NewValidationError("payment.expiry", "card has expired or expiry is not MM/YY")
	}

	if !cvvPattern.MatchString(strings.TrimSpace(card.CVV)) {
		return nil, apperrors.NewValidationError("payment.cvv", "must be 3 or 4 digits")
	}

	holder := strings.TrimSpace(card.CardholderName)
	if holder == "" {
		return nil, apperrors.NewValidationError("payment.cardholder_name", "is required")
	}

	return &model.CardOnFile{
		LastFour:       number[len(number)-4:],
		CardholderName: strings.ToUpper(holder),
		Expiry:         expiry,
	}, nil
}

func (v *CardValidator) validateLuhn(number string) bool {
	if nonDigit.MatchString(number) || len(number) < 13 || len(number) > 19 {
		return false
	}

	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		digit := int(number[i] - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}
	return sum%10 == 0
}

// validateExpiry accepts cards valid through the current month.
func (v *CardValidator) validateExpiry(expiry string) bool {
	month, err := strconv.Atoi(expiry[:2])
	if err != nil {
		return false
	}
	year, err := strconv.Atoi(expiry[3:])
	if err != nil {
		return false
	}

	now := v.now().UTC()
	lastValid := time.Date(2000+year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	return now.Before(lastValid)
}

// MaskCardNumber shows only the last four digits.
func MaskCardNumber(lastFour string) string {
	if len(lastFour) != 4 {
		return "****"
	}
	return "**** **** **** " + lastFour
}
