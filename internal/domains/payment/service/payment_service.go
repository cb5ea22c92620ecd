package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"payments-backend/internal/domains/payment/gateway"
	"payments-backend/internal/domains/payment/gateway/netopia"
	"payments-backend/internal/domains/payment/model"
	repo "payments-backend/internal/domains/payment/repository"
	"payments-backend/internal/infrastructure/queue"
)

// =====================================================
// PAYMENT SERVICE IMPLEMENTATION
// =====================================================
type paymentService struct {
	paymentRepo repo.PaymentRepoInterface
	webhookRepo repo.WebhookRepoInterface

	netopiaGateway gateway.NetopiaGateway

	// Fast duplicate filter ahead of the durable webhook-log check;
	// optional, the service degrades to the durable check alone.
	guard IdempotencyGuard

	enqueuer TaskEnqueuer
}

func NewPaymentService(
	paymentRepo repo.PaymentRepoInterface,
	webhookRepo repo.WebhookRepoInterface,
	netopiaGateway gateway.NetopiaGateway,
	guard IdempotencyGuard,
	enqueuer TaskEnqueuer,
) PaymentService {
	return &paymentService{
		paymentRepo:    paymentRepo,
		webhookRepo:    webhookRepo,
		netopiaGateway: netopiaGateway,
		guard:          guard,
		enqueuer:       enqueuer,
	}
}

// =====================================================
// CREATE PAYMENT
// =====================================================

// CreatePayment initiates a payment attempt.
//
// Flow:
// 1. Validate request
// 2. Reject orders that already settled
// 3. Build the encrypted envelope for the browser form
// 4. Persist the payment_transactions record
//
// The envelope is built before the insert so a codec or key failure
// leaves no orphan pending row behind for the stale sweep.
func (s *paymentService) CreatePayment(
	ctx context.Context,
	req model.CreatePaymentRequest,
) (*model.CreatePaymentResponse, error) {
	// Step 1: Validate request
	if err := req.Validate(); err != nil {
		return nil, model.NewPaymentError(model.ErrCodeInvalidOrder, "Invalid payment request", err)
	}

	currency := req.Currency
	if currency == "" {
		currency = model.DefaultCurrency
	}

	// Step 2: Reject orders that already settled
	paid, err := s.paymentRepo.HasSuccessfulPayment(ctx, req.OrderID)
	if err != nil {
		return nil, model.NewPaymentError(model.ErrCodeInternalError, "Failed to check order state", err)
	}
	if paid {
		return nil, model.NewOrderAlreadyPaidError(req.OrderID)
	}

	// Step 3: Build the encrypted envelope
	order := gateway.PaymentOrder{
		OrderID:    req.OrderID,
		Currency:   currency,
		Amount:     req.Amount,
		CustomerID: req.CustomerID,
		Details:    req.Details,
		Params:     req.Params,
	}
	if b := req.Billing; b != nil {
		order.Billing = &gateway.BillingDetails{
			FirstName: b.FirstName,
			LastName:  b.LastName,
			Address:   b.Address,
			Email:     b.Email,
			Phone:     b.Phone,
		}
	}

	envelope, err := s.netopiaGateway.CreatePaymentData(order)
	if err != nil {
		var vErr *netopia.ValidationError
		if errors.As(err, &vErr) {
			return nil, model.NewPaymentError(model.ErrCodeInvalidOrder, vErr.Error(), err)
		}
		if errors.Is(err, netopia.ErrInvalidKey) {
			return nil, model.NewPaymentError(model.ErrCodeKeyMaterial, "Gateway key material misconfigured", err)
		}
		return nil, model.NewPaymentError(model.ErrCodeInternalError, "Failed to build payment envelope", err)
	}

	// Step 4: Persist the transaction
	now := time.Now()
	payment := &model.PaymentTransaction{
		ID:          uuid.New(),
		OrderID:     req.OrderID,
		CustomerID:  req.CustomerID,
		Details:     req.Details,
		Amount:      req.Amount,
		Currency:    currency,
		Status:      model.PaymentStatusPending,
		Params:      req.Params,
		InitiatedAt: now,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, model.NewPaymentError(model.ErrCodeInternalError, "Failed to create payment transaction", err)
	}

	log.Info().
		Str("order_id", req.OrderID).
		Str("payment_transaction_id", payment.ID.String()).
		Str("amount", req.Amount.StringFixed(2)).
		Str("currency", currency).
		Msg("Payment envelope issued")

	return &model.CreatePaymentResponse{
		PaymentTransactionID: payment.ID,
		OrderID:              payment.OrderID,
		Amount:               payment.Amount,
		Currency:             payment.Currency,
		EnvKey:               envelope.EnvKey,
		Data:                 envelope.Data,
		PaymentURL:           s.netopiaGateway.PaymentURL(),
		ExpiresAt:            now.Add(model.PaymentTimeoutMinutes * time.Minute),
	}, nil
}

// =====================================================
// GET PAYMENT STATUS
// =====================================================

func (s *paymentService) GetPaymentStatus(ctx context.Context, id uuid.UUID) (*model.PaymentStatusResponse, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrPaymentNotFound) {
			return nil, model.NewPaymentNotFoundError(id.String())
		}
		return nil, model.NewPaymentError(model.ErrCodeInternalError, "Failed to load payment transaction", err)
	}

	resp := &model.PaymentStatusResponse{
		TransactionID:        payment.ID,
		OrderID:              payment.OrderID,
		Status:               payment.Status,
		Amount:               payment.Amount,
		Currency:             payment.Currency,
		Action:               payment.Action,
		ErrorCode:            payment.ErrorCode,
		ErrorMessage:         payment.ErrorMessage,
		GatewayTransactionID: payment.GatewayTransactionID,
		PanMasked:            payment.PanMasked,
		Params:               payment.Params,
		InitiatedAt:          payment.InitiatedAt,
		CompletedAt:          payment.CompletedAt,
	}
	if payment.Action != nil {
		resp.StatusDescription = model.ActionStatuses[*payment.Action]
	}

	return resp, nil
}

// =====================================================
// PROCESS WEBHOOK
// =====================================================

// ProcessWebhook handles one gateway notification end to end.
//
// Flow:
// 1. Decrypt and parse the envelope
// 2. Duplicate filter (redis guard, then durable webhook log)
// 3. Load the transaction for the order reference
// 4. Record the webhook, apply the status transition
// 5. Enqueue settlement follow-up when the payment settled
// 6. Build the XML ack
//
// The returned ack is always non-nil; the error reports internal
// failures for logging. Envelope problems ack permanent ("2") so the
// gateway stops redelivering garbage; internal failures ack temporary
// ("1") so the gateway retries later.
func (s *paymentService) ProcessWebhook(ctx context.Context, envKey, data string) ([]byte, error) {
	// Step 1: Decrypt and parse
	notif, err := s.netopiaGateway.DecryptWebhook(envKey, data)
	if err != nil {
		return s.errorAck(model.ErrCodeInvalidEnvelope, netopia.ErrorTypePermanent, "invalid envelope"), err
	}

	// Step 2: Duplicate filter
	dupKey := fmt.Sprintf("webhook:netopia:%s:%s:%s", notif.OrderID, notif.GatewayTimestamp, notif.CRC)
	claimed := false
	if s.guard != nil {
		acquired, guardErr := s.guard.Acquire(ctx, dupKey, 24*time.Hour)
		if guardErr != nil {
			// Cache down: fall through to the durable check
			log.Warn().Err(guardErr).Msg("Idempotency guard unavailable")
		} else if !acquired {
			return s.successAck(notif), model.NewWebhookAlreadyProcessedError()
		} else {
			claimed = true
		}
	}

	processed, err := s.webhookRepo.CheckIdempotency(ctx, notif.OrderID, notif.GatewayTimestamp, notif.CRC)
	if err != nil {
		s.releaseGuard(ctx, claimed, dupKey)
		return s.errorAck(model.ErrCodeInternalError, netopia.ErrorTypeTemporary, "idempotency check failed"), err
	}
	if processed {
		return s.successAck(notif), model.NewWebhookAlreadyProcessedError()
	}

	// Step 3: Load the transaction
	payment, err := s.paymentRepo.GetByOrderID(ctx, notif.OrderID)
	if err != nil {
		s.releaseGuard(ctx, claimed, dupKey)
		if errors.Is(err, model.ErrPaymentNotFound) {
			return s.errorAck(model.ErrCodePaymentNotFound, netopia.ErrorTypePermanent, "unknown order"),
				model.NewPaymentNotFoundError(notif.OrderID)
		}
		return s.errorAck(model.ErrCodeInternalError, netopia.ErrorTypeTemporary, "transaction lookup failed"), err
	}

	// Step 4: Record the webhook, apply the transition
	webhookLog := &model.PaymentWebhookLog{
		ID:                   uuid.New(),
		PaymentTransactionID: &payment.ID,
		OrderID:              notif.OrderID,
		Action:               notif.Action,
		GatewayTimestamp:     notif.GatewayTimestamp,
		CRC:                  notif.CRC,
		ReceivedAt:           time.Now(),
	}
	if notif.ErrorCode != "" {
		webhookLog.ErrorCode = &notif.ErrorCode
	}
	if notif.ErrorMessage != "" {
		webhookLog.ErrorMessage = &notif.ErrorMessage
	}
	if err := s.webhookRepo.Create(ctx, webhookLog); err != nil {
		s.releaseGuard(ctx, claimed, dupKey)
		return s.errorAck(model.ErrCodeInternalError, netopia.ErrorTypeTemporary, "webhook log failed"), err
	}

	status := model.MapActionToStatus(notif.Action, notif.ErrorCode)
	update := repo.NotificationUpdate{
		Status:        status,
		Action:        notif.Action,
		ErrorCode:     notif.ErrorCode,
		ErrorMessage:  notif.ErrorMessage,
		TransactionID: notif.TransactionID,
		PanMasked:     notif.PanMasked,
	}
	if err := s.paymentRepo.UpdateFromNotification(ctx, payment.ID, update); err != nil {
		// Keep the log entry claimable: the temporary ack asks the
		// gateway to redeliver, and a processed entry would make that
		// redelivery look like a duplicate
		webhookLog.MarkProcessingError(err)
		if recErr := s.webhookRepo.RecordFailure(ctx, webhookLog.ID, webhookLog.ProcessingError); recErr != nil {
			log.Error().Err(recErr).Str("order_id", notif.OrderID).Msg("Failed to record webhook failure")
		}
		s.releaseGuard(ctx, claimed, dupKey)
		return s.errorAck(model.ErrCodeInternalError, netopia.ErrorTypeTemporary, "status update failed"), err
	}

	// Step 5: Settlement follow-up
	if status == model.PaymentStatusSuccess && s.enqueuer != nil {
		payload := queue.PaymentSettledPayload{
			PaymentTransactionID: payment.ID,
			OrderID:              payment.OrderID,
			CustomerID:           payment.CustomerID,
			Amount:               payment.Amount,
			Currency:             payment.Currency,
			Action:               notif.Action,
			SettledAt:            time.Now().Format(time.RFC3339),
		}
		if err := s.enqueuer.EnqueuePaymentSettled(ctx, payload); err != nil {
			// Never fail the ack over follow-up work; the log entry keeps it findable
			log.Error().Err(err).Str("order_id", payment.OrderID).Msg("Failed to enqueue settlement task")
		}
	}

	if err := s.webhookRepo.MarkProcessed(ctx, webhookLog.ID, nil); err != nil {
		log.Error().Err(err).Str("order_id", payment.OrderID).Msg("Failed to mark webhook processed")
	}

	log.Info().
		Str("order_id", notif.OrderID).
		Str("action", notif.Action).
		Str("status", status).
		Str("error_code", notif.ErrorCode).
		Msg("Webhook processed")

	// Step 6: Ack
	return s.successAck(notif), nil
}

// releaseGuard frees the fast-path duplicate key after a failed delivery.
// A claimed key outlives the temporary ack, so without the release the
// gateway's retry would be swallowed as a duplicate for the full TTL.
func (s *paymentService) releaseGuard(ctx context.Context, claimed bool, key string) {
	if !claimed {
		return
	}
	if err := s.guard.Release(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to release idempotency key")
	}
}

// =====================================================
// ACK HELPERS
// =====================================================

func (s *paymentService) successAck(notif *gateway.Notification) []byte {
	message := model.ActionStatuses[notif.Action]
	if message == "" {
		message = "OK"
	}
	ack, err := netopia.SuccessResponse(message)
	if err != nil {
		// Marshalling a flat literal struct cannot realistically fail
		log.Error().Err(err).Msg("Failed to build success ack")
		return []byte{}
	}
	return ack
}

func (s *paymentService) errorAck(code, errorType, message string) []byte {
	ack, err := netopia.ErrorResponse(message, errorType, code)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build error ack")
		return []byte{}
	}
	return ack
}
