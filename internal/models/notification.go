package models

import "time"

// notification type
const (
	NotificationTypeSale   = "sale"
	NotificationTypeSystem = "system"
)

// Notification is an in-app notification record
type Notification struct {
	ID        string
	UserEmail string
	Type      string
	Title     string
	Message   string
	Link      string
	CreatedAt time.Time
}
