package repository

import (
	"context"

	"github.com/avocadohq/marketplace/internal/models"
	"github.com/avocadohq/marketplace/internal/repository/postgres"
)

const (
	insertNotificationQuery = `
						INSERT INTO notifications (id, user_email, type, title, message, link)
						VALUES ($1, $2, $3, $4, $5, $6)
						RETURNING id, user_email, type, title, message, link, created_at
`
	selectNotificationsByUserQuery = `
						SELECT id, user_email, type, title, message, link, created_at FROM notifications
						WHERE user_email = $1
						ORDER BY created_at DESC
`
)

// NotificationRepository stores in-app notification records
type NotificationRepository struct {
	db *postgres.DB
}

// NewNotificationRepository creates new NotificationRepository instance
func NewNotificationRepository(db *postgres.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateNotification inserts new in-app notification
func (nr *NotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) (*models.Notification, error) {
	err := nr.db.QueryRow(ctx, insertNotificationQuery,
		notification.ID, notification.UserEmail, notification.Type, notification.Title, notification.Message, notification.Link).
		Scan(&notification.ID, &notification.UserEmail, &notification.Type, &notification.Title,
			&notification.Message, &notification.Link, &notification.CreatedAt)
	if err != nil {
		return nil, err
	}

	return notification, nil
}

// GetNotificationsByUser returns user notifications, newest first
func (nr *NotificationRepository) GetNotificationsByUser(ctx context.Context, userEmail string) ([]models.Notification, error) {
	rows, err := nr.db.Query(ctx, selectNotificationsByUserQuery, userEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []models.Notification{}

	for rows.Next() {
		n := models.Notification{}
		err = rows.Scan(&n.ID, &n.UserEmail, &n.Type, &n.Title, &n.Message, &n.Link, &n.CreatedAt)
		if err != nil {
			continue
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notifications, nil
}
