package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog records user-facing events (enrollment, logins, payments, access grants).
type ActivityLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     *string   `gorm:"size:64;index" json:"userId"`
	Action     string    `gorm:"size:100;not null;index" json:"action"`
	Resource   string    `gorm:"size:100;index" json:"resource"`
	ResourceID string    `gorm:"size:100;index" json:"resourceId"`
	IP         string    `gorm:"size:45" json:"ip,omitempty"`
	UserAgent  string    `gorm:"size:512" json:"userAgent,omitempty"`
	Metadata   string    `gorm:"type:text" json:"metadata,omitempty"` // JSON
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

// AccessLog is an append-only record of each portal access computation.
// It is never consulted when deciding access.
type AccessLog struct {
	ID          uint                        `gorm:"primaryKey" json:"id"`
	UserID      string                      `gorm:"size:64;not null;index" json:"userId"`
	HasAccess   bool                        `json:"hasAccess"`
	Reason      string                      `gorm:"size:255" json:"reason,omitempty"`
	Permissions datatypes.JSONSlice[string] `json:"permissions"`
	Features    datatypes.JSONSlice[string] `json:"features"`
	CreatedAt   time.Time                   `gorm:"index" json:"createdAt"`
}

func (AccessLog) TableName() string {
	return "portal_access_logs"
}
