package mock

import (
	"fmt"

	"payments-backend/internal/domains/payment/gateway"
)

// =====================================================
// MOCK NETOPIA GATEWAY FOR TESTING
// =====================================================

type MockNetopiaGateway struct {
	ShouldFailEncode  bool
	ShouldFailDecrypt bool

	// Notification returned by DecryptWebhook when set
	Notification *gateway.Notification

	// LastOrder captures the most recent CreatePaymentData input
	LastOrder *gateway.PaymentOrder
}

func NewMockNetopiaGateway() *MockNetopiaGateway {
	return &MockNetopiaGateway{}
}

func (m *MockNetopiaGateway) CreatePaymentData(order gateway.PaymentOrder) (*gateway.Envelope, error) {
	if m.ShouldFailEncode {
		return nil, fmt.Errorf("mock envelope creation failed")
	}
	m.LastOrder = &order

	return &gateway.Envelope{
		EnvKey: "bW9jay1lbnYta2V5",
		Data:   "bW9jay1kYXRh",
	}, nil
}

func (m *MockNetopiaGateway) DecryptWebhook(envKey, data string) (*gateway.Notification, error) {
	if m.ShouldFailDecrypt {
		return nil, fmt.Errorf("mock decrypt failed")
	}
	if m.Notification != nil {
		return m.Notification, nil
	}

	return &gateway.Notification{
		OrderID:   "mock-order",
		Action:    "confirmed",
		ErrorCode: "0",
		Params:    map[string]string{},
	}, nil
}

func (m *MockNetopiaGateway) PaymentURL() string {
	return "https://mock-netopia.test/payment"
}
