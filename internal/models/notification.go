package models

import (
	"time"
)

const (
	NotificationSent   = "sent"
	NotificationFailed = "failed"
)

// Notification records every outbound email, sent or not.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *string   `gorm:"size:64;index" json:"userId"`
	Type      string    `gorm:"size:50;not null;index" json:"type"`
	Recipient string    `gorm:"size:255;not null" json:"recipient"`
	Subject   string    `gorm:"size:255" json:"subject"`
	Status    string    `gorm:"size:20;not null;index" json:"status"`
	Error     string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Notification) TableName() string {
	return "notifications"
}
