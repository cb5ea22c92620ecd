package netopia

import (
	"encoding/xml"

	"github.com/shopspring/decimal"

	"payments-backend/internal/domains/payment/gateway"
)

// =====================================================
// NOTIFICATION XML SCHEMA
// =====================================================

// notificationXML is the webhook payload after decryption: the original
// order echoed back, plus the gateway's mobilpay block with the
// transaction outcome. Unknown elements are ignored on purpose - the
// gateway adds fields over time and old integrations must keep working.
type notificationXML struct {
	XMLName   xml.Name     `xml:"order"`
	Type      string       `xml:"type,attr"`
	ID        string       `xml:"id,attr"`
	Timestamp string       `xml:"timestamp,attr"`
	Signature string       `xml:"signature"`
	Invoice   *invoiceXML  `xml:"invoice"`
	Params    *paramsXML   `xml:"params"`
	Mobilpay  *mobilpayXML `xml:"mobilpay"`
}

type mobilpayXML struct {
	Timestamp       string   `xml:"timestamp,attr"`
	CRC             string   `xml:"crc,attr"`
	Action          string   `xml:"action"`
	Purchase        string   `xml:"purchase"`
	OriginalAmount  string   `xml:"original_amount"`
	ProcessedAmount string   `xml:"processed_amount"`
	PanMasked       string   `xml:"pan_masked"`
	Error           errorXML `xml:"error"`
}

type errorXML struct {
	Code    string `xml:"code,attr"`
	Message string `xml:",chardata"`
}

// parseNotification maps the decrypted payload onto a Notification.
// Required elements are collected into a single SchemaError rather than
// failing on the first one.
func parseNotification(payload []byte) (*gateway.Notification, error) {
	var doc notificationXML
	if err := xml.Unmarshal(payload, &doc); err != nil {
		return nil, &SchemaError{Err: err}
	}

	var missing []string
	if doc.ID == "" {
		missing = append(missing, "order id")
	}
	if doc.Mobilpay == nil {
		missing = append(missing, "mobilpay")
	} else if doc.Mobilpay.Action == "" {
		missing = append(missing, "mobilpay action")
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	n := &gateway.Notification{
		OrderID:          doc.ID,
		Timestamp:        doc.Timestamp,
		Action:           doc.Mobilpay.Action,
		CRC:              doc.Mobilpay.CRC,
		GatewayTimestamp: doc.Mobilpay.Timestamp,
		TransactionID:    doc.Mobilpay.Purchase,
		PanMasked:        doc.Mobilpay.PanMasked,
		ErrorCode:        doc.Mobilpay.Error.Code,
		ErrorMessage:     doc.Mobilpay.Error.Message,
		Params:           map[string]string{},
	}

	// The gateway omits the error element entirely on clean transactions.
	if n.ErrorCode == "" {
		n.ErrorCode = "0"
	}

	if doc.Invoice != nil {
		n.CustomerID = doc.Invoice.CustomerID
	}
	if doc.Params != nil {
		for _, p := range doc.Params.Params {
			n.Params[p.Name] = p.Value
		}
	}

	var err error
	if n.OriginalAmount, err = parseAmount(doc.Mobilpay.OriginalAmount); err != nil {
		return nil, &SchemaError{Missing: []string{"original_amount (malformed)"}}
	}
	if n.ProcessedAmount, err = parseAmount(doc.Mobilpay.ProcessedAmount); err != nil {
		return nil, &SchemaError{Missing: []string{"processed_amount (malformed)"}}
	}

	return n, nil
}

// parseAmount treats an absent amount as zero; the gateway only sends
// amounts on settlement actions.
func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
