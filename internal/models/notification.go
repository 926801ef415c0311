package models

import "time"

// NotificationType groups notifications by origin
type NotificationType string

const (
	NotificationPrazo     NotificationType = "prazo"
	NotificationPagamento NotificationType = "pagamento"
	NotificationAlerta    NotificationType = "alerta"
)

// Severity drives how loudly a notification is shown
type Severity string

const (
	SeverityInfo   Severity = "info"
	SeverityWarn   Severity = "warn"
	SeverityDanger Severity = "danger"
)

// Notification is a derived, read-only alert; it is never persisted
type Notification struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Type        NotificationType `json:"type"`
	Severity    Severity         `json:"severity"`
	CreatedAt   time.Time        `json:"createdAt"`
}
