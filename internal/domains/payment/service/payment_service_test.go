package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payments-backend/internal/domains/payment/gateway"
	"payments-backend/internal/domains/payment/gateway/mock"
	"payments-backend/internal/domains/payment/model"
	repo "payments-backend/internal/domains/payment/repository"
	"payments-backend/internal/infrastructure/queue"
)

// =====================================================
// HAND-WRITTEN MOCKS
// =====================================================

type mockPaymentRepo struct {
	payments map[string]*model.PaymentTransaction

	createErr  error
	hasPaid    bool
	hasPaidErr error

	lastUpdate    *repo.NotificationUpdate
	updateErr     error
	cancelledRows int
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{payments: map[string]*model.PaymentTransaction{}}
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *model.PaymentTransaction) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.payments[payment.OrderID] = payment
	return nil
}

func (m *mockPaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.PaymentTransaction, error) {
	for _, p := range m.payments {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, model.ErrPaymentNotFound
}

func (m *mockPaymentRepo) GetByOrderID(ctx context.Context, orderID string) (*model.PaymentTransaction, error) {
	if p, ok := m.payments[orderID]; ok {
		return p, nil
	}
	return nil, model.ErrPaymentNotFound
}

func (m *mockPaymentRepo) UpdateFromNotification(ctx context.Context, id uuid.UUID, update repo.NotificationUpdate) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.lastUpdate = &update
	return nil
}

func (m *mockPaymentRepo) HasSuccessfulPayment(ctx context.Context, orderID string) (bool, error) {
	return m.hasPaid, m.hasPaidErr
}

func (m *mockPaymentRepo) CancelExpired(ctx context.Context, olderThan time.Duration) (int, error) {
	return m.cancelledRows, nil
}

type mockWebhookRepo struct {
	logs []*model.PaymentWebhookLog

	processed      bool
	processedErr   error
	createErr      error
	markedAsDone   []uuid.UUID
	markProcessErr []*string
	failures       []*string
}

func (m *mockWebhookRepo) Create(ctx context.Context, log *model.PaymentWebhookLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.logs = append(m.logs, log)
	return nil
}

// CheckIdempotency matches the SQL: only processed entries count.
func (m *mockWebhookRepo) CheckIdempotency(ctx context.Context, orderID, gatewayTimestamp, crc string) (bool, error) {
	if m.processedErr != nil {
		return false, m.processedErr
	}
	if m.processed {
		return true, nil
	}
	for _, l := range m.logs {
		if l.OrderID == orderID && l.GatewayTimestamp == gatewayTimestamp && l.CRC == crc && l.IsProcessed {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockWebhookRepo) MarkProcessed(ctx context.Context, id uuid.UUID, processingError *string) error {
	m.markedAsDone = append(m.markedAsDone, id)
	m.markProcessErr = append(m.markProcessErr, processingError)
	for _, l := range m.logs {
		if l.ID == id {
			l.IsProcessed = true
			l.ProcessingError = processingError
		}
	}
	return nil
}

func (m *mockWebhookRepo) RecordFailure(ctx context.Context, id uuid.UUID, processingError *string) error {
	m.failures = append(m.failures, processingError)
	for _, l := range m.logs {
		if l.ID == id {
			l.ProcessingError = processingError
		}
	}
	return nil
}

type mockGuard struct {
	denied   bool
	err      error
	lastKey  string
	claimed  map[string]bool
	released []string
}

func (m *mockGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.lastKey = key
	if m.err != nil {
		return false, m.err
	}
	if m.denied || m.claimed[key] {
		return false, nil
	}
	if m.claimed == nil {
		m.claimed = map[string]bool{}
	}
	m.claimed[key] = true
	return true, nil
}

func (m *mockGuard) Release(ctx context.Context, key string) error {
	m.released = append(m.released, key)
	delete(m.claimed, key)
	return nil
}

type mockEnqueuer struct {
	payloads []queue.PaymentSettledPayload
	err      error
}

func (m *mockEnqueuer) EnqueuePaymentSettled(ctx context.Context, payload queue.PaymentSettledPayload) error {
	if m.err != nil {
		return m.err
	}
	m.payloads = append(m.payloads, payload)
	return nil
}

// =====================================================
// FIXTURES
// =====================================================

type serviceFixture struct {
	paymentRepo *mockPaymentRepo
	webhookRepo *mockWebhookRepo
	gateway     *mock.MockNetopiaGateway
	guard       *mockGuard
	enqueuer    *mockEnqueuer
	service     PaymentService
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		paymentRepo: newMockPaymentRepo(),
		webhookRepo: &mockWebhookRepo{},
		gateway:     mock.NewMockNetopiaGateway(),
		guard:       &mockGuard{},
		enqueuer:    &mockEnqueuer{},
	}
	f.service = NewPaymentService(f.paymentRepo, f.webhookRepo, f.gateway, f.guard, f.enqueuer)
	return f
}

func (f *serviceFixture) seedPayment(orderID string) *model.PaymentTransaction {
	payment := &model.PaymentTransaction{
		ID:          uuid.New(),
		OrderID:     orderID,
		CustomerID:  "cust-7",
		Details:     "test payment",
		Amount:      decimal.RequireFromString("10.50"),
		Currency:    "RON",
		Status:      model.PaymentStatusPending,
		InitiatedAt: time.Now(),
	}
	f.paymentRepo.payments[orderID] = payment
	return payment
}

func confirmedNotification(orderID string) *gateway.Notification {
	return &gateway.Notification{
		OrderID:          orderID,
		Action:           model.ActionConfirmed,
		CRC:              "crc-1",
		GatewayTimestamp: "20250101120130",
		TransactionID:    "900001",
		PanMasked:        "4***********1111",
		ErrorCode:        "0",
		Params:           map[string]string{},
	}
}

// =====================================================
// CREATE PAYMENT
// =====================================================

func TestCreatePayment_Success(t *testing.T) {
	f := newServiceFixture()

	res, err := f.service.CreatePayment(context.Background(), model.CreatePaymentRequest{
		OrderID:    "ORD-1",
		Amount:     decimal.RequireFromString("10.50"),
		CustomerID: "cust-7",
		Details:    "test payment",
		Params:     map[string]string{"cart_id": "c-55"},
	})
	require.NoError(t, err)

	assert.Equal(t, "ORD-1", res.OrderID)
	assert.Equal(t, model.DefaultCurrency, res.Currency)
	assert.NotEmpty(t, res.EnvKey)
	assert.NotEmpty(t, res.Data)
	assert.Equal(t, "https://mock-netopia.test/payment", res.PaymentURL)
	assert.WithinDuration(t, time.Now().Add(model.PaymentTimeoutMinutes*time.Minute), res.ExpiresAt, 5*time.Second)

	// Transaction persisted once the envelope was built
	stored, ok := f.paymentRepo.payments["ORD-1"]
	require.True(t, ok)
	assert.Equal(t, model.PaymentStatusPending, stored.Status)

	// Order forwarded to the codec intact
	require.NotNil(t, f.gateway.LastOrder)
	assert.Equal(t, "ORD-1", f.gateway.LastOrder.OrderID)
	assert.Equal(t, map[string]string{"cart_id": "c-55"}, f.gateway.LastOrder.Params)
}

func TestCreatePayment_InvalidRequest(t *testing.T) {
	f := newServiceFixture()

	_, err := f.service.CreatePayment(context.Background(), model.CreatePaymentRequest{
		OrderID: "ORD-1",
		Amount:  decimal.RequireFromString("0.01"),
	})

	var pErr *model.PaymentError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, model.ErrCodeInvalidOrder, pErr.Code)
	assert.Empty(t, f.paymentRepo.payments)
}

func TestCreatePayment_OrderAlreadyPaid(t *testing.T) {
	f := newServiceFixture()
	f.paymentRepo.hasPaid = true

	_, err := f.service.CreatePayment(context.Background(), validRequest())

	assert.ErrorIs(t, err, model.ErrOrderAlreadyPaid)
	var pErr *model.PaymentError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, model.ErrCodeOrderAlreadyPaid, pErr.Code)
}

func TestCreatePayment_GatewayFailure(t *testing.T) {
	f := newServiceFixture()
	f.gateway.ShouldFailEncode = true

	_, err := f.service.CreatePayment(context.Background(), validRequest())

	var pErr *model.PaymentError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, model.ErrCodeInternalError, pErr.Code)

	// No pending row is left behind for the stale sweep to cancel
	assert.Empty(t, f.paymentRepo.payments)
}

func validRequest() model.CreatePaymentRequest {
	return model.CreatePaymentRequest{
		OrderID:    "ORD-1",
		Amount:     decimal.RequireFromString("10.50"),
		CustomerID: "cust-7",
		Details:    "test payment",
	}
}

// =====================================================
// GET PAYMENT STATUS
// =====================================================

func TestGetPaymentStatus(t *testing.T) {
	f := newServiceFixture()
	payment := f.seedPayment("ORD-1")
	action := model.ActionConfirmed
	payment.Action = &action
	payment.Status = model.PaymentStatusSuccess

	res, err := f.service.GetPaymentStatus(context.Background(), payment.ID)
	require.NoError(t, err)

	assert.Equal(t, payment.ID, res.TransactionID)
	assert.Equal(t, model.PaymentStatusSuccess, res.Status)
	assert.Equal(t, "Confirmed", res.StatusDescription)
}

func TestGetPaymentStatus_NotFound(t *testing.T) {
	f := newServiceFixture()

	_, err := f.service.GetPaymentStatus(context.Background(), uuid.New())

	assert.ErrorIs(t, err, model.ErrPaymentNotFound)
}

// =====================================================
// PROCESS WEBHOOK
// =====================================================

func TestProcessWebhook_ConfirmedSettles(t *testing.T) {
	f := newServiceFixture()
	payment := f.seedPayment("ORD-1")
	f.gateway.Notification = confirmedNotification("ORD-1")

	ack, err := f.service.ProcessWebhook(context.Background(), "env", "data")
	require.NoError(t, err)
	assert.Contains(t, string(ack), "<crc>Confirmed</crc>")

	// Status transition applied
	require.NotNil(t, f.paymentRepo.lastUpdate)
	assert.Equal(t, model.PaymentStatusSuccess, f.paymentRepo.lastUpdate.Status)
	assert.Equal(t, "900001", f.paymentRepo.lastUpdate.TransactionID)

	// Settlement follow-up enqueued
	require.Len(t, f.enqueuer.payloads, 1)
	assert.Equal(t, payment.ID, f.enqueuer.payloads[0].PaymentTransactionID)
	assert.Equal(t, model.ActionConfirmed, f.enqueuer.payloads[0].Action)

	// Webhook logged and marked processed
	require.Len(t, f.webhookRepo.logs, 1)
	require.Len(t, f.webhookRepo.markedAsDone, 1)
	assert.Nil(t, f.webhookRepo.markProcessErr[0])
}

func TestProcessWebhook_BusinessFailureAcksSuccess(t *testing.T) {
	f := newServiceFixture()
	f.seedPayment("ORD-1")
	notif := confirmedNotification("ORD-1")
	notif.ErrorCode = "34"
	notif.ErrorMessage = "insufficient funds"
	f.gateway.Notification = notif

	ack, err := f.service.ProcessWebhook(context.Background(), "env", "data")

	// A declined card is decoded data, not a processing error
	require.NoError(t, err)
	assert.Contains(t, string(ack), "<crc>")
	assert.NotContains(t, string(ack), "error_type")

	require.NotNil(t, f.paymentRepo.lastUpdate)
	assert.Equal(t, model.PaymentStatusFailed, f.paymentRepo.lastUpdate.Status)

	// Failed payments never trigger settlement work
	assert.Empty(t, f.enqueuer.payloads)
}

func TestProcessWebhook_InvalidEnvelope(t *testing.T) {
	f := newServiceFixture()
	f.gateway.ShouldFailDecrypt = true

	ack, err := f.service.ProcessWebhook(context.Background(), "env", "data")

	require.Error(t, err)
	assert.Contains(t, string(ack), `error_type="2"`)
	assert.Contains(t, string(ack), model.ErrCodeInvalidEnvelope)
}

func TestProcessWebhook_DuplicateByGuard(t *testing.T) {
	f := newServiceFixture()
	f.seedPayment("ORD-1")
	f.gateway.Notification = confirmedNotification("ORD-1")
	f.guard.denied = true

	ack, err := f.service.ProcessWebhook(context.Background(), "env", "data")

	assert.ErrorIs(t, err, model.ErrWebhookAlreadyProcessed)
	assert.Contains(t, string(ack), "<crc>")
	assert.NotContains(t, string(ack), "error_type")
	assert.Empty(t, f.webhookRepo.logs)
	assert.Equal(t, "webhook:netopia:ORD-1:20250101120130:crc-1", f.guard.lastKey)
}

func TestProcessWebhook_DuplicateByDurableLog(t *testing.T) {
	f := newServiceFixture()
	f.seedPayment("ORD-1")
	f.gateway.Notification = confirmedNotification("ORD-1")
	f.webhookRepo.processed = true

	ack, err := f.service.ProcessWebhook(context.Background(), "env", "data")

	assert.ErrorIs(t, err, model.ErrWebhookAlreadyProcessed)
	assert.Contains(t, string(ack), "<crc>")
	assert.Empty(t, f.webhookRepo.logs)
}

func TestProcessWebhook_GuardDownFallsThrough(t *testing.T) {
	f := newServiceFixture()
	f.seedPayment("ORD-1")
	f.gateway.Notification = confirmedNotification("ORD-1")
	f.guard.err = errors.New("redis down")

	_, err := f.service.ProcessWebhook(context.Background(), "env", "data")

	// Cache outage must not block webhook processing
	require.NoError(t, err)
	require.Len(t, f.webhookRepo.logs, 1)
}

func TestProcessWebhook_UnknownOrder(t *testing.T) {
	f := newServiceFixture()
	f.gateway.Notification = confirmedNotification("ORD-MISSING")

	ack, err := f.service.ProcessWebhook(context.Background(), "env", "data")

	assert.ErrorIs(t, err, model.ErrPaymentNotFound)
	assert.Contains(t, string(ack), `error_type="2"`)
	assert.Contains(t, string(ack), model.ErrCodePaymentNotFound)
}

func TestProcessWebhook_UpdateFailureAcksTemporary(t *testing.T) {
	f := newServiceFixture()
	f.seedPayment("ORD-1")
	f.gateway.Notification = confirmedNotification("ORD-1")
	f.paymentRepo.updateErr = errors.New("connection reset")

	ack, err := f.service.ProcessWebhook(context.Background(), "env", "data")

	require.Error(t, err)
	assert.Contains(t, string(ack), `error_type="1"`)

	// The failure is recorded without consuming the delivery: the log
	// entry stays unprocessed and the guard key is given back
	require.Len(t, f.webhookRepo.failures, 1)
	require.NotNil(t, f.webhookRepo.failures[0])
	assert.Contains(t, *f.webhookRepo.failures[0], "connection reset")
	assert.Empty(t, f.webhookRepo.markedAsDone)
	require.Len(t, f.webhookRepo.logs, 1)
	assert.False(t, f.webhookRepo.logs[0].IsProcessed)
	assert.Equal(t, []string{"webhook:netopia:ORD-1:20250101120130:crc-1"}, f.guard.released)
}

func TestProcessWebhook_RetryAfterUpdateFailure(t *testing.T) {
	f := newServiceFixture()
	f.seedPayment("ORD-1")
	f.gateway.Notification = confirmedNotification("ORD-1")
	f.paymentRepo.updateErr = errors.New("connection reset")

	ack, err := f.service.ProcessWebhook(context.Background(), "env", "data")
	require.Error(t, err)
	assert.Contains(t, string(ack), `error_type="1"`)
	assert.Nil(t, f.paymentRepo.lastUpdate)

	// The gateway redelivers the same envelope once the database recovers.
	// The redelivery must be processed, not filtered as a duplicate.
	f.paymentRepo.updateErr = nil

	ack, err = f.service.ProcessWebhook(context.Background(), "env", "data")
	require.NoError(t, err)
	assert.Contains(t, string(ack), "<crc>Confirmed</crc>")

	require.NotNil(t, f.paymentRepo.lastUpdate)
	assert.Equal(t, model.PaymentStatusSuccess, f.paymentRepo.lastUpdate.Status)
	require.Len(t, f.enqueuer.payloads, 1)
	require.Len(t, f.webhookRepo.markedAsDone, 1)
}

func TestProcessWebhook_RedeliveryAfterSuccessIsDuplicate(t *testing.T) {
	f := newServiceFixture()
	f.seedPayment("ORD-1")
	f.gateway.Notification = confirmedNotification("ORD-1")

	_, err := f.service.ProcessWebhook(context.Background(), "env", "data")
	require.NoError(t, err)

	ack, err := f.service.ProcessWebhook(context.Background(), "env", "data")

	assert.ErrorIs(t, err, model.ErrWebhookAlreadyProcessed)
	assert.Contains(t, string(ack), "<crc>")
	require.Len(t, f.webhookRepo.logs, 1)
	require.Len(t, f.enqueuer.payloads, 1)
}

func TestProcessWebhook_EnqueueFailureStillAcks(t *testing.T) {
	f := newServiceFixture()
	f.seedPayment("ORD-1")
	f.gateway.Notification = confirmedNotification("ORD-1")
	f.enqueuer.err = errors.New("queue down")

	ack, err := f.service.ProcessWebhook(context.Background(), "env", "data")

	// Follow-up work must never fail the gateway ack
	require.NoError(t, err)
	assert.Contains(t, string(ack), "<crc>Confirmed</crc>")
}
