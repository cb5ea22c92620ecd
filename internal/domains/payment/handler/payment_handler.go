package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"payments-backend/internal/domains/payment/model"
	"payments-backend/internal/domains/payment/service"
	res "payments-backend/internal/shared/response"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// =====================================================
// PAYMENT ENDPOINTS
// =====================================================

// CreatePayment issues the encrypted envelope for an order
// POST /api/v1/payments
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	// Step 1: Bind request body
	var req model.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		res.BadRequest(c, err.Error())
		return
	}

	// Step 2: Call service (validation included)
	response, err := h.paymentService.CreatePayment(c.Request.Context(), req)
	if err != nil {
		statusCode, errCode := mapPaymentError(err)
		res.ErrorResponse(c, statusCode, errCode, err.Error())
		return
	}

	// Step 3: Return the browser form fields
	res.Success(c, http.StatusCreated, response)
}

// GetPaymentStatus returns the current transaction state
// GET /api/v1/payments/:id
func (h *PaymentHandler) GetPaymentStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		res.BadRequest(c, "Invalid payment ID")
		return
	}

	response, err := h.paymentService.GetPaymentStatus(c.Request.Context(), id)
	if err != nil {
		statusCode, errCode := mapPaymentError(err)
		res.ErrorResponse(c, statusCode, errCode, err.Error())
		return
	}

	res.Success(c, http.StatusOK, response)
}

// =====================================================
// WEBHOOK ENDPOINT
// =====================================================

// HandleWebhook consumes the gateway confirm call
// POST /api/v1/webhooks/netopia
//
// The gateway posts the same two form fields the browser form carried
// (env_key, data) and expects a plain XML crc body back. The HTTP status
// is always 200; temporary/permanent is signalled inside the ack.
func (h *PaymentHandler) HandleWebhook(c *gin.Context) {
	envKey := c.PostForm("env_key")
	data := c.PostForm("data")

	ack, err := h.paymentService.ProcessWebhook(c.Request.Context(), envKey, data)
	if err != nil {
		// Already-processed duplicates are expected gateway retries
		if !errors.Is(err, model.ErrWebhookAlreadyProcessed) {
			log.Error().
				Err(err).
				Str("request_id", c.GetString("request_id")).
				Msg("Webhook processing failed")
		}
	}

	c.Data(http.StatusOK, "application/xml; charset=utf-8", ack)
}

// =====================================================
// ERROR MAPPING
// =====================================================

// mapPaymentError converts service errors to HTTP status + error code
func mapPaymentError(err error) (int, string) {
	var paymentErr *model.PaymentError
	if errors.As(err, &paymentErr) {
		switch paymentErr.Code {
		case model.ErrCodePaymentNotFound:
			return http.StatusNotFound, paymentErr.Code
		case model.ErrCodeOrderAlreadyPaid:
			return http.StatusConflict, paymentErr.Code
		case model.ErrCodeInvalidOrder:
			return http.StatusBadRequest, paymentErr.Code
		case model.ErrCodeKeyMaterial:
			return http.StatusInternalServerError, paymentErr.Code
		default:
			return http.StatusInternalServerError, paymentErr.Code
		}
	}

	return http.StatusInternalServerError, model.ErrCodeInternalError
}
