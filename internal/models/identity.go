package models

import "time"

// Identity is an account held by the built-in identity provider.
type Identity struct {
	ID               string     `gorm:"primaryKey;size:64" json:"id"`
	Email            string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash     string     `gorm:"size:255;not null" json:"-"`
	EmailConfirmedAt *time.Time `json:"emailConfirmedAt"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func (Identity) TableName() string {
	return "identities"
}
