package models

import (
	"time"

	"codecamp/internal/domain"

	"gorm.io/datatypes"
)

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country"`
}

type EmergencyContact struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
}

type Preferences struct {
	LearningMode      string `json:"learningMode,omitempty"`
	PreferredSchedule string `json:"preferredSchedule,omitempty"`
	Newsletter        bool   `json:"newsletter"`
	Notifications     bool   `json:"notifications"`
}

// ProfileData is stored as a JSON column.
type ProfileData struct {
	DateOfBirth      string            `json:"dateOfBirth,omitempty"`
	Address          *Address          `json:"address,omitempty"`
	EmergencyContact *EmergencyContact `json:"emergencyContact,omitempty"`
	Preferences      *Preferences      `json:"preferences,omitempty"`
}

// User is the local profile paired 1:1 with an identity provider account.
type User struct {
	ID               string                          `gorm:"primaryKey;size:64" json:"id"`
	Email            string                          `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FirstName        string                          `gorm:"size:50;not null" json:"firstName"`
	LastName         string                          `gorm:"size:50;not null" json:"lastName"`
	Phone            *string                         `gorm:"size:32" json:"phone,omitempty"`
	Role             string                          `gorm:"size:20;not null;index;default:'student'" json:"role"`
	PaymentStatus    string                          `gorm:"size:20;not null;index;default:'pending'" json:"paymentStatus"`
	SubscriptionPlan string                          `gorm:"size:50;index" json:"subscriptionPlan"`
	ProfileData      datatypes.JSONType[ProfileData] `json:"profileData"`
	IsActive         bool                            `gorm:"not null;default:true;index" json:"isActive"`
	EmailVerified    bool                            `gorm:"not null;default:false" json:"emailVerified"`
	LoginCount       int                             `gorm:"not null;default:0" json:"loginCount"`
	EnrollmentDate   time.Time                       `json:"enrollmentDate"`
	LastLoginAt      *time.Time                      `json:"lastLoginAt,omitempty"`
	CreatedAt        time.Time                       `json:"createdAt"`
	UpdatedAt        time.Time                       `json:"updatedAt"`

	Payments []Payment `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) FullName() string { return u.FirstName + " " + u.LastName }

func (u *User) IsAdmin() bool { return u.Role == domain.RoleAdmin }

func (u *User) HasPaid() bool { return u.PaymentStatus == domain.PaymentStatusCompleted }
