package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avocadohq/marketplace/internal/models"
)

// default time of retry after
const delaySeconds = 60

// payment statuses reported by the provider
const statusSucceeded = "succeeded"

// Customer identifies the paying user on the provider side
type Customer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SessionRequest describes a checkout session to create. Amount is in
// the smallest currency unit (cents for USD, paise for INR).
type SessionRequest struct {
	Amount      int64    `json:"amount"`
	Currency    string   `json:"currency"`
	Customer    Customer `json:"customer"`
	ProductName string   `json:"product_name"`
	ListingIDs  []string `json:"-"`
	SuccessURL  string   `json:"success_url"`
	CancelURL   string   `json:"cancel_url"`
}

// Session is a provider-hosted payment flow
type Session struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
}

// Client is a thin adapter over the external payment processor's HTTP API
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewClient creates new gateway Client instance
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

type sessionPayload struct {
	SessionRequest
	Metadata map[string]string `json:"metadata"`
}

// CreateCheckoutSession creates a checkout session for the given request.
// Listing ids travel in metadata as a comma-separated list and come back
// the same way in webhook events.
func (c *Client) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error) {
	u, err := url.JoinPath(c.baseURL, "checkouts")
	if err != nil {
		return nil, err
	}

	payload := sessionPayload{
		SessionRequest: req,
		Metadata: map[string]string{
			"listing_ids": strings.Join(req.ListingIDs, ","),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		session := Session{}
		if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
			return nil, err
		}
		return &session, nil
	case http.StatusTooManyRequests:
		return nil, models.NewTooManyRequestsError(retryAfter(resp))
	default:
		return nil, models.ErrSessionRejected
	}
}

type checkoutStatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// VerifyPayment retrieves the checkout referenced by paymentRef and
// reports whether the provider considers it paid
func (c *Client) VerifyPayment(ctx context.Context, paymentRef string) (bool, error) {
	u, err := url.JoinPath(c.baseURL, "checkouts", paymentRef)
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return false, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		status := checkoutStatusResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			return false, err
		}
		return status.Status == statusSucceeded, nil
	case http.StatusNotFound:
		return false, nil
	case http.StatusTooManyRequests:
		return false, models.NewTooManyRequestsError(retryAfter(resp))
	default:
		return false, models.ErrInternalError
	}
}

type refundRequest struct {
	PaymentRef string `json:"payment_ref"`
	Reason     string `json:"reason"`
}

// RefundPayment issues a compensating refund for paymentRef
func (c *Client) RefundPayment(ctx context.Context, paymentRef, reason string) error {
	u, err := url.JoinPath(c.baseURL, "refunds")
	if err != nil {
		return err
	}

	body, err := json.Marshal(refundRequest{PaymentRef: paymentRef, Reason: reason})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusTooManyRequests:
		return models.NewTooManyRequestsError(retryAfter(resp))
	default:
		return models.ErrInternalError
	}
}

func retryAfter(resp *http.Response) time.Duration {
	t := delaySeconds
	if val := resp.Header.Get("Retry-After"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			t = parsed
		}
	}
	return time.Duration(t) * time.Second
}
