package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/avocadohq/marketplace/internal/models"
)

// Client talks to the external notification endpoint that renders and
// delivers transactional email. Delivery is best effort: callers log
// errors and move on.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewClient creates new mailer Client instance
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

type sendRequest struct {
	To       string            `json:"to"`
	Template string            `json:"template"`
	Params   map[string]string `json:"params"`
}

func (c *Client) send(ctx context.Context, req sendRequest) error {
	if c.baseURL == "" {
		// mail endpoint is not configured, nothing to do
		return nil
	}

	u, err := url.JoinPath(c.baseURL, "send")
	if err != nil {
		return err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return models.ErrInternalError
	}

	return nil
}

// SendOrderConfirmation sends the buyer receipt
func (c *Client) SendOrderConfirmation(ctx context.Context, toEmail, orderID, listingTitle string) error {
	return c.send(ctx, sendRequest{
		To:       toEmail,
		Template: "order_confirmation",
		Params: map[string]string{
			"order_id":      orderID,
			"listing_title": listingTitle,
		},
	})
}

// SendRefundNotification tells the buyer the order was refunded and why
func (c *Client) SendRefundNotification(ctx context.Context, toEmail, orderID, listingTitle, reason string) error {
	return c.send(ctx, sendRequest{
		To:       toEmail,
		Template: "refund_notification",
		Params: map[string]string{
			"order_id":      orderID,
			"listing_title": listingTitle,
			"reason":        reason,
		},
	})
}

// SendSaleNotification tells the seller about a completed sale
func (c *Client) SendSaleNotification(ctx context.Context, toEmail, buyerName, itemTitle string, amount float64, currency string) error {
	return c.send(ctx, sendRequest{
		To:       toEmail,
		Template: "sale_notification",
		Params: map[string]string{
			"buyer_name": buyerName,
			"item_title": itemTitle,
			"amount":     fmt.Sprintf("%.2f", amount),
			"currency":   currency,
		},
	})
}

// SendAuctionWonNotification tells the winning bidder to complete checkout
func (c *Client) SendAuctionWonNotification(ctx context.Context, toEmail, listingTitle string, amount float64) error {
	return c.send(ctx, sendRequest{
		To:       toEmail,
		Template: "auction_won",
		Params: map[string]string{
			"listing_title": listingTitle,
			"amount":        fmt.Sprintf("%.2f", amount),
		},
	})
}
