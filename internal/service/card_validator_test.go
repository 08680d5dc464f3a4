package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "swiftpolicy/internal/errors"
	"swiftpolicy/internal/model"
	"swiftpolicy/internal/repository"
)

func TestCardValidator_Validate(t *testing.T) {
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	v := NewCardValidator(func() time.Time { return now })

	tests := []struct {
		name      string
		card      CardPayment
		wantField string
	}{
		{
			name: "valid visa with spaces",
			card: CardPayment{Number: "4242 4242 4242 4242", CardholderName: "jo bloggs", Expiry: "12/29", CVV: "123"},
		},
		{
			name: "expires this month",
			card: CardPayment{Number: "4242-4242-4242-4242", CardholderName: "Jo", Expiry: "05/26", CVV: "1234"},
		},
		{
			name:      "luhn failure",
			card:      CardPayment{Number: "4242424242424241", CardholderName: "Jo", Expiry: "12/29", CVV: "123"},
			wantField: "payment.number",
		},
		{
			name:      "too short",
			card:      CardPayment{Number: "42424242", CardholderName: "Jo", Expiry: "12/29", CVV: "123"},
			wantField: "payment.number",
		},
		{
			name:      "letters in number",
			card:      CardPayment{Number: "4242a24242424242", CardholderName: "Jo", Expiry: "12/29", CVV: "123"},
			wantField: "payment.number",
		},
		{
			name:      "expired last month",
			card:      CardPayment{Number: "4242424242424242", CardholderName: "Jo", Expiry: "04/26", CVV: "123"},
			wantField: "payment.expiry",
		},
		{
			name:      "bad expiry format",
			card:      CardPayment{Number: "4242424242424242", CardholderName: "Jo", Expiry: "2029-12", CVV: "123"},
			wantField: "payment.expiry",
		},
		{
			name:      "bad cvv",
			card:      CardPayment{Number: "4242424242424242", CardholderName: "Jo", Expiry: "12/29", CVV: "12"},
			wantField: "payment.cvv",
		},
		{
			name:      "missing holder",
			card:      CardPayment{Number: "4242424242424242", CardholderName: " ", Expiry: "12/29", CVV: "123"},
			wantField: "payment.cardholder_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, err := v.Validate(tt.card)
			if tt.wantField != "" {
				var verr *apperrors.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantField, verr.Field)
				assert.Nil(t, card)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "4242", card.LastFour)
		})
	}
}

func TestMaskCardNumber(t *testing.T) {
	assert.Equal(t, "**** **** **** 4242", MaskCardNumber("4242"))
	assert.Equal(t, "****", MaskCardNumber("42"))
}

func TestPolicyService_BindWithPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, model.User{ID: "cust-1", Email: "cust@example.com"})
	svc := NewPolicyService(f.deps)

	req := bindRequest("cust-1", model.PolicyTypeAnnual)
	req.Payment = &CardPayment{Number: "4242424242424242", CardholderName: "Jo Bloggs", Expiry: "12/29", CVV: "123"}
	policy, err := svc.Bind(ctx, testAdmin, req)
	require.NoError(t, err)

	assert.Equal(t, model.PolicyPaid, policy.PaymentStatus)
	require.NotNil(t, policy.Details.Card)
	assert.Equal(t, "4242", policy.Details.Card.LastFour)
	assert.Equal(t, "JO BLOGGS", policy.Details.Card.CardholderName)
	assert.Contains(t, policy.Details.PaymentRef, "PAY-")

	logs := f.auditLogs(t)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Details, "**** **** **** 4242")

	payments, err := repository.ReadAll[model.PaymentRecord](ctx, f.registry, repository.CollectionPayments)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, policy.ID, payments[0].PolicyID)
	assert.True(t, payments[0].Amount.Equal(policy.Premium))
	assert.Equal(t, policy.Details.PaymentRef, payments[0].TransactionRef)

	req = bindRequest("cust-1", model.PolicyTypeAnnual)
	req.Payment = &CardPayment{Number: "1234", CardholderName: "Jo", Expiry: "12/29", CVV: "123"}
	_, err = svc.Bind(ctx, testAdmin, req)
	assert.True(t, apperrors.IsValidation(err))
	assert.Len(t, f.auditLogs(t), 1)
}
