package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validCreatePaymentRequest() CreatePaymentRequest {
	return CreatePaymentRequest{
		OrderID:    "ORD-100",
		Currency:   "RON",
		Amount:     decimal.RequireFromString("49.90"),
		CustomerID: "cust-7",
		Details:    "Subscription renewal",
	}
}

func TestCreatePaymentRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *CreatePaymentRequest)
		wantErr bool
	}{
		{"valid request", func(r *CreatePaymentRequest) {}, false},
		{"missing order id", func(r *CreatePaymentRequest) { r.OrderID = "" }, true},
		{"missing customer id", func(r *CreatePaymentRequest) { r.CustomerID = "" }, true},
		{"missing details", func(r *CreatePaymentRequest) { r.Details = "" }, true},
		{"amount too small", func(r *CreatePaymentRequest) { r.Amount = decimal.RequireFromString("0.09") }, true},
		{"amount too large", func(r *CreatePaymentRequest) { r.Amount = decimal.RequireFromString("100000.00") }, true},
		{"amount three decimals", func(r *CreatePaymentRequest) { r.Amount = decimal.RequireFromString("1.005") }, true},
		{"amount at bounds", func(r *CreatePaymentRequest) { r.Amount = decimal.RequireFromString("0.10") }, false},
		{
			"billing with bad email",
			func(r *CreatePaymentRequest) {
				r.Billing = &BillingDTO{
					FirstName: "Ion", LastName: "Popescu",
					Address: "Str. Exemplu 1", Email: "not-an-email", Phone: "0700000000",
				}
			},
			true,
		},
		{
			"complete billing",
			func(r *CreatePaymentRequest) {
				r.Billing = &BillingDTO{
					FirstName: "Ion", LastName: "Popescu",
					Address: "Str. Exemplu 1", Email: "ion@example.com", Phone: "0700000000",
				}
			},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreatePaymentRequest()
			tt.mutate(&req)

			err := req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
