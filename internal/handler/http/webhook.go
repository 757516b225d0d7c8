package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/avocadohq/marketplace/internal/models"
)

// signatureHeader carries the provider's HMAC signature of the payload
const signatureHeader = "X-Payment-Signature"

type WebhookService interface {
	// HandleEvent processes one signed provider event
	HandleEvent(ctx context.Context, payload []byte, signature string) error
}

// WebhookHandler represents HTTP handler for provider callbacks
type WebhookHandler struct {
	svc WebhookService
}

// NewWebhookHandler creates new WebhookHandler instance
func NewWebhookHandler(svc WebhookService) *WebhookHandler {
	return &WebhookHandler{svc: svc}
}

// HandleEvent accepts a payment provider event. The provider retries on
// anything but 2xx, so the only non-200 answers are signature failure
// and genuine internal errors.
// 200 — event accepted (including no-op replays);
// 400 — signature verification failed or event is malformed;
// 500 — internal error, provider should retry.
func (wh *WebhookHandler) HandleEvent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		err = wh.svc.HandleEvent(r.Context(), payload, r.Header.Get(signatureHeader))
		if err != nil {
			switch {
			case errors.Is(err, models.ErrInvalidSignature):
				http.Error(w, "invalid signature", http.StatusBadRequest)
			case errors.Is(err, models.ErrInvalidEvent):
				http.Error(w, "malformed event", http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(map[string]string{"status": "success"}); err != nil {
			return
		}
	}
}
