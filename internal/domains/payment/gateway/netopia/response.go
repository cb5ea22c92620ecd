package netopia

import (
	"encoding/xml"
)

// =====================================================
// WEBHOOK RESPONSE BUILDER
// =====================================================
// The ack the merchant returns to the gateway is plain XML, never
// encrypted: a bare crc element carrying a message, with error_type and
// error_code attributes on failure.

// Error types the gateway distinguishes on a webhook ack.
const (
	// ErrorTypeTemporary asks the gateway to redeliver the notification.
	ErrorTypeTemporary = "1"
	// ErrorTypePermanent tells the gateway to stop retrying.
	ErrorTypePermanent = "2"
)

type crcXML struct {
	XMLName   xml.Name `xml:"crc"`
	ErrorType string   `xml:"error_type,attr,omitempty"`
	ErrorCode string   `xml:"error_code,attr,omitempty"`
	Message   string   `xml:",chardata"`
}

// SuccessResponse builds the ack for a processed notification.
// Pure formatting: same input always yields byte-identical XML.
func SuccessResponse(message string) ([]byte, error) {
	return marshalCRC(crcXML{Message: message})
}

// ErrorResponse builds the failure ack. errorType must be
// ErrorTypeTemporary or ErrorTypePermanent; errorCode is an optional
// merchant-internal code.
func ErrorResponse(message, errorType, errorCode string) ([]byte, error) {
	if errorType != ErrorTypeTemporary && errorType != ErrorTypePermanent {
		return nil, &ValidationError{Fields: []string{"error_type must be \"1\" or \"2\""}}
	}
	return marshalCRC(crcXML{
		ErrorType: errorType,
		ErrorCode: errorCode,
		Message:   message,
	})
}

func marshalCRC(doc crcXML) ([]byte, error) {
	body, err := xml.Marshal(doc)
	if err != nil {
		return nil, &EncodingError{Op: "crc response", Err: err}
	}
	return append([]byte(xml.Header), body...), nil
}
