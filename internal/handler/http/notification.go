package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/avocadohq/marketplace/internal/models"
)

type NotificationService interface {
	// ListNotifications returns the caller's in-app notifications
	ListNotifications(ctx context.Context, userEmail string) ([]models.Notification, error)
}

// NotificationHandler represents HTTP handler for the notification feed
type NotificationHandler struct {
	svc NotificationService
}

// NewNotificationHandler creates new NotificationHandler instance
func NewNotificationHandler(svc NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

type notificationResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Link      string `json:"link,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ListNotifications returns the caller's notifications, newest first
// 200 — list returned;
// 401 — caller is not authenticated;
// 500 — internal error.
func (nh *NotificationHandler) ListNotifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := identityFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		notifications, err := nh.svc.ListNotifications(r.Context(), caller.Email)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		resp := []notificationResponse{}
		for _, n := range notifications {
			resp = append(resp, notificationResponse{
				ID:        n.ID,
				Type:      n.Type,
				Title:     n.Title,
				Message:   n.Message,
				Link:      n.Link,
				CreatedAt: n.CreatedAt.Format(time.RFC3339),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			return
		}
	}
}
