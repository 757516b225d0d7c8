package service

import (
	"context"

	"github.com/avocadohq/marketplace/internal/models"
)

// NotificationService exposes the in-app notification feed
type NotificationService struct {
	notifications NotificationRepository
}

// NewNotificationService creates new NotificationService instance
func NewNotificationService(notifications NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// ListNotifications returns the caller's notifications, newest first
func (ns *NotificationService) ListNotifications(ctx context.Context, userEmail string) ([]models.Notification, error) {
	return ns.notifications.GetNotificationsByUser(ctx, userEmail)
}
