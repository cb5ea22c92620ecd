package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"payments-backend/internal/infrastructure/queue"
)

// ================================================
// HTTP NOTIFIER (order system callback)
// ================================================

// HTTPNotifier posts the settlement payload to the order system so it can
// release the goods. A non-2xx answer is an error, asynq retries the task.
type HTTPNotifier struct {
	url    string
	client *http.Client
}

func NewHTTPNotifier(url string) *HTTPNotifier {
	return &HTTPNotifier{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (n *HTTPNotifier) NotifySettled(ctx context.Context, payload queue.PaymentSettledPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal settlement payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build settlement request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver settlement notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("settlement notification rejected with status %d", resp.StatusCode)
	}

	return nil
}

// ================================================
// LOG NOTIFIER (for development)
// ================================================

type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) NotifySettled(ctx context.Context, payload queue.PaymentSettledPayload) error {
	log.Info().
		Str("order_id", payload.OrderID).
		Str("customer_id", payload.CustomerID).
		Str("amount", payload.Amount.StringFixed(2)).
		Str("currency", payload.Currency).
		Str("action", payload.Action).
		Msg("[MOCK] Settlement notification delivered")

	return nil
}
