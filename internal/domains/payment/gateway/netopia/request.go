package netopia

import (
	"encoding/xml"
	"sort"

	"github.com/shopspring/decimal"

	"payments-backend/internal/domains/payment/gateway"
)

// =====================================================
// REQUEST XML SCHEMA
// =====================================================
// Element names, attributes and nesting are part of the wire contract.
// The gateway parses exactly this layout; renaming anything breaks the
// integration without a useful error on the other side.

// Wire constants fixed by the gateway.
const (
	orderTypeCard       = "card"
	customerTypePerson  = "2"
	billingTypePerson   = "person"
	timestampWireFormat = "20060102150405"
)

// Amount bounds accepted by the gateway.
var (
	minAmount = decimal.RequireFromString("0.10")
	maxAmount = decimal.RequireFromString("99999.00")
)

const maxOrderIDLength = 64

type orderXML struct {
	XMLName   xml.Name   `xml:"order"`
	Type      string     `xml:"type,attr"`
	ID        string     `xml:"id,attr"`
	Timestamp string     `xml:"timestamp,attr"`
	Signature string     `xml:"signature"`
	Invoice   invoiceXML `xml:"invoice"`
	Params    *paramsXML `xml:"params"`
	URL       urlXML     `xml:"url"`
}

type invoiceXML struct {
	Currency     string          `xml:"currency,attr"`
	Amount       string          `xml:"amount,attr"`
	CustomerType string          `xml:"customer_type,attr"`
	CustomerID   string          `xml:"customer_id,attr"`
	Details      string          `xml:"details"`
	ContactInfo  *contactInfoXML `xml:"contact_info"`
}

type contactInfoXML struct {
	Billing billingXML `xml:"billing"`
}

type billingXML struct {
	Type      string `xml:"type,attr"`
	FirstName string `xml:"first_name"`
	LastName  string `xml:"last_name"`
	Address   string `xml:"address"`
	Email     string `xml:"email"`
	Phone     string `xml:"mobile_phone"`
}

type paramsXML struct {
	Params []paramXML `xml:"param"`
}

type paramXML struct {
	Name  string `xml:"name"`
	Value string `xml:"value"`
}

type urlXML struct {
	Confirm string `xml:"confirm"`
	Return  string `xml:"return"`
}

// validateOrder enforces the gateway's input contract before anything is
// serialized. All offending fields are collected, not just the first.
func validateOrder(order gateway.PaymentOrder, confirmURL, returnURL string) error {
	var fields []string

	if order.OrderID == "" {
		fields = append(fields, "order_id is required")
	} else if len(order.OrderID) > maxOrderIDLength {
		fields = append(fields, "order_id exceeds 64 characters")
	}
	if order.Currency == "" {
		fields = append(fields, "currency is required")
	}
	if order.Amount.LessThan(minAmount) || order.Amount.GreaterThan(maxAmount) {
		fields = append(fields, "amount must be between 0.10 and 99999.00")
	} else if order.Amount.Exponent() < -2 {
		fields = append(fields, "amount must have at most two decimal digits")
	}
	if order.CustomerID == "" {
		fields = append(fields, "customer_id is required")
	}
	if order.Details == "" {
		fields = append(fields, "details is required")
	}
	if confirmURL == "" {
		fields = append(fields, "confirm_url is required")
	}
	if returnURL == "" {
		fields = append(fields, "return_url is required")
	}
	if b := order.Billing; b != nil {
		if b.FirstName == "" || b.LastName == "" || b.Address == "" || b.Email == "" || b.Phone == "" {
			fields = append(fields, "billing details must be fully supplied or omitted")
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// buildOrderXML serializes a validated order into the request schema.
// Params are emitted in sorted key order so the output is deterministic.
func buildOrderXML(order gateway.PaymentOrder, signature, timestamp, confirmURL, returnURL string) ([]byte, error) {
	doc := orderXML{
		Type:      orderTypeCard,
		ID:        order.OrderID,
		Timestamp: timestamp,
		Signature: signature,
		Invoice: invoiceXML{
			Currency:     order.Currency,
			Amount:       order.Amount.StringFixed(2),
			CustomerType: customerTypePerson,
			CustomerID:   order.CustomerID,
			Details:      order.Details,
		},
		URL: urlXML{
			Confirm: confirmURL,
			Return:  returnURL,
		},
	}

	if b := order.Billing; b != nil {
		doc.Invoice.ContactInfo = &contactInfoXML{
			Billing: billingXML{
				Type:      billingTypePerson,
				FirstName: b.FirstName,
				LastName:  b.LastName,
				Address:   b.Address,
				Email:     b.Email,
				Phone:     b.Phone,
			},
		}
	}

	if len(order.Params) > 0 {
		keys := make([]string, 0, len(order.Params))
		for k := range order.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		params := &paramsXML{}
		for _, k := range keys {
			params.Params = append(params.Params, paramXML{Name: k, Value: order.Params[k]})
		}
		doc.Params = params
	}

	body, err := xml.Marshal(doc)
	if err != nil {
		return nil, &EncodingError{Op: "order xml", Err: err}
	}
	return append([]byte(xml.Header), body...), nil
}
