package netopia

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const confirmedNotification = `<?xml version="1.0" encoding="UTF-8"?>
<order type="card" id="42" timestamp="20250101120000">
	<signature>TEST-SIGN</signature>
	<invoice currency="RON" amount="10.50" customer_type="2" customer_id="7">
		<details>test payment</details>
	</invoice>
	<params>
		<param><name>cart_id</name><value>c-55</value></param>
	</params>
	<mobilpay timestamp="20250101120130" crc="abc123">
		<action>confirmed</action>
		<purchase>900001</purchase>
		<original_amount>10.50</original_amount>
		<processed_amount>10.50</processed_amount>
		<pan_masked>4***********1111</pan_masked>
	</mobilpay>
</order>`

func TestParseNotification_Confirmed(t *testing.T) {
	n, err := parseNotification([]byte(confirmedNotification))
	require.NoError(t, err)

	assert.Equal(t, "42", n.OrderID)
	assert.Equal(t, "20250101120000", n.Timestamp)
	assert.Equal(t, "confirmed", n.Action)
	assert.Equal(t, "abc123", n.CRC)
	assert.Equal(t, "20250101120130", n.GatewayTimestamp)
	assert.Equal(t, "900001", n.TransactionID)
	assert.Equal(t, "4***********1111", n.PanMasked)
	assert.Equal(t, "7", n.CustomerID)
	assert.Equal(t, map[string]string{"cart_id": "c-55"}, n.Params)
	assert.True(t, n.OriginalAmount.Equal(decimal.RequireFromString("10.50")))
	assert.True(t, n.ProcessedAmount.Equal(decimal.RequireFromString("10.50")))

	// Absent error element reads as success
	assert.Equal(t, "0", n.ErrorCode)
	assert.Empty(t, n.ErrorMessage)
	assert.True(t, n.IsSuccessful())
}

func TestParseNotification_BusinessFailure(t *testing.T) {
	payload := `<?xml version="1.0" encoding="UTF-8"?>
<order type="card" id="42" timestamp="20250101120000">
	<mobilpay timestamp="20250101120130" crc="def456">
		<action>paid</action>
		<error code="34">card has insufficient funds</error>
	</mobilpay>
</order>`

	n, err := parseNotification([]byte(payload))
	require.NoError(t, err)

	assert.Equal(t, "34", n.ErrorCode)
	assert.Equal(t, "card has insufficient funds", n.ErrorMessage)
	assert.False(t, n.IsSuccessful())
	assert.True(t, n.OriginalAmount.IsZero())
}

func TestParseNotification_SchemaErrors(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		wantMissing string
	}{
		{
			name:        "missing mobilpay block",
			payload:     `<order type="card" id="42"><signature>S</signature></order>`,
			wantMissing: "mobilpay",
		},
		{
			name:        "missing order id",
			payload:     `<order type="card"><mobilpay crc="x"><action>paid</action></mobilpay></order>`,
			wantMissing: "order id",
		},
		{
			name:        "missing action",
			payload:     `<order id="42"><mobilpay crc="x"></mobilpay></order>`,
			wantMissing: "mobilpay action",
		},
		{
			name:        "malformed amount",
			payload:     `<order id="42"><mobilpay crc="x"><action>paid</action><original_amount>ten</original_amount></mobilpay></order>`,
			wantMissing: "original_amount (malformed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseNotification([]byte(tt.payload))

			var sErr *SchemaError
			require.ErrorAs(t, err, &sErr)
			assert.Contains(t, sErr.Missing, tt.wantMissing)
		})
	}
}

func TestParseNotification_MalformedXML(t *testing.T) {
	_, err := parseNotification([]byte("not xml at all <<<"))

	var sErr *SchemaError
	assert.ErrorAs(t, err, &sErr)
}

func TestParseNotification_IgnoresUnknownElements(t *testing.T) {
	payload := `<order id="42" some_future_attr="x">
	<brand_new_block><nested>1</nested></brand_new_block>
	<mobilpay timestamp="t" crc="c"><action>paid</action><future_field>y</future_field></mobilpay>
</order>`

	n, err := parseNotification([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, "paid", n.Action)
}
