package validation

import (
	"strings"

	"codecamp/internal/domain"
)

type AddressInput struct {
	Street     string `json:"street" validate:"required,max=200"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"omitempty,max=100"`
	PostalCode string `json:"postalCode" validate:"omitempty,max=20"`
	Country    string `json:"country" validate:"required,max=100"`
}

type EmergencyContactInput struct {
	Name         string `json:"name" validate:"required,max=100"`
	Phone        string `json:"phone" validate:"required,phone"`
	Relationship string `json:"relationship" validate:"required,max=50"`
}

type PreferencesInput struct {
	LearningMode      string `json:"learningMode" validate:"omitempty,oneof=online in_person hybrid"`
	PreferredSchedule string `json:"preferredSchedule" validate:"omitempty,oneof=weekday weekend evening flexible"`
	Newsletter        *bool  `json:"newsletter"`
	Notifications     *bool  `json:"notifications"`
}

// ProfileInput is the optional nested profile; each part is checked only when present.
type ProfileInput struct {
	DateOfBirth      string                 `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Address          *AddressInput          `json:"address"`
	EmergencyContact *EmergencyContactInput `json:"emergencyContact"`
	Preferences      *PreferencesInput      `json:"preferences"`
}

func (p *ProfileInput) sanitize() {
	if p == nil {
		return
	}
	p.DateOfBirth = strings.TrimSpace(p.DateOfBirth)
	if a := p.Address; a != nil {
		a.Street = strings.TrimSpace(a.Street)
		a.City = strings.TrimSpace(a.City)
		a.State = strings.TrimSpace(a.State)
		a.PostalCode = strings.TrimSpace(a.PostalCode)
		a.Country = strings.TrimSpace(a.Country)
	}
	if ec := p.EmergencyContact; ec != nil {
		ec.Name = strings.TrimSpace(ec.Name)
		ec.Phone = strings.TrimSpace(ec.Phone)
		ec.Relationship = strings.TrimSpace(ec.Relationship)
	}
}

type EnrollmentRequest struct {
	Email            string        `json:"email" validate:"required,email,max=255"`
	Password         string        `json:"password" validate:"required,password"`
	FirstName        string        `json:"firstName" validate:"required,max=50"`
	LastName         string        `json:"lastName" validate:"required,max=50"`
	Phone            string        `json:"phone" validate:"omitempty,phone"`
	SubscriptionPlan string        `json:"subscriptionPlan" validate:"required,plan"`
	ProfileData      *ProfileInput `json:"profileData"`
}

func (r *EnrollmentRequest) sanitize() {
	r.Email = normalizeEmail(r.Email)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Phone = strings.TrimSpace(r.Phone)
	r.SubscriptionPlan = strings.ToLower(strings.TrimSpace(r.SubscriptionPlan))
	r.ProfileData.sanitize()
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) sanitize() { r.Email = normalizeEmail(r.Email) }

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *PasswordResetRequest) sanitize() { r.Email = normalizeEmail(r.Email) }

type PasswordResetConfirm struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,password"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

func (r *PasswordResetConfirm) sanitize() { r.Token = strings.TrimSpace(r.Token) }

type PaymentMetadataInput struct {
	CardLast4      string `json:"cardLast4" validate:"omitempty,len=4,numeric"`
	CardBrand      string `json:"cardBrand" validate:"omitempty,max=20"`
	BillingName    string `json:"billingName" validate:"omitempty,max=100"`
	BillingEmail   string `json:"billingEmail" validate:"omitempty,email"`
	BillingAddress string `json:"billingAddress" validate:"omitempty,max=300"`
	Phone          string `json:"phone" validate:"omitempty,phone"`
}

type PaymentRequest struct {
	UserID           string                `json:"userId" validate:"required,max=64"`
	Amount           float64               `json:"amount" validate:"required,gt=0,lte=1000000"`
	Currency         string                `json:"currency" validate:"required,len=3,alpha,uppercase"`
	PaymentMethod    string                `json:"paymentMethod" validate:"required,payment_method"`
	SubscriptionPlan string                `json:"subscriptionPlan" validate:"required,plan"`
	Metadata         *PaymentMetadataInput `json:"metadata"`
}

func (r *PaymentRequest) sanitize() {
	r.UserID = strings.TrimSpace(r.UserID)
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	if r.Currency == "" {
		r.Currency = domain.DefaultCurrency
	}
	r.PaymentMethod = strings.TrimSpace(r.PaymentMethod)
	r.SubscriptionPlan = strings.ToLower(strings.TrimSpace(r.SubscriptionPlan))
}

// PaymentWebhook is the gateway callback body. Event names outside the known
// set pass validation and are ignored by the payment service.
type PaymentWebhook struct {
	Event         string         `json:"event" validate:"required,max=100"`
	PaymentID     string         `json:"paymentId" validate:"required,max=64"`
	Status        string         `json:"status" validate:"omitempty,payment_status"`
	TransactionID string         `json:"transactionId" validate:"omitempty,max=64"`
	Amount        float64        `json:"amount" validate:"omitempty,gt=0"`
	Reason        string         `json:"reason" validate:"omitempty,max=500"`
	Data          map[string]any `json:"data"`
}

func (r *PaymentWebhook) sanitize() {
	r.Event = strings.TrimSpace(r.Event)
	r.PaymentID = strings.TrimSpace(r.PaymentID)
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
}

type UserUpdate struct {
	FirstName   *string       `json:"firstName" validate:"omitempty,min=1,max=50"`
	LastName    *string       `json:"lastName" validate:"omitempty,min=1,max=50"`
	Phone       *string       `json:"phone" validate:"omitempty,phone"`
	ProfileData *ProfileInput `json:"profileData"`
}

func (r *UserUpdate) sanitize() {
	trim := func(s *string) {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	trim(r.FirstName)
	trim(r.LastName)
	trim(r.Phone)
	r.ProfileData.sanitize()
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type VerifyPaymentRequest struct {
	PaymentID string `json:"paymentId" validate:"required,max=64"`
}

type RefundRequest struct {
	Amount *float64 `json:"amount" validate:"omitempty,gt=0"`
	Reason string   `json:"reason" validate:"omitempty,max=500"`
}

type UserSearch struct {
	Query            string `form:"q" json:"q" validate:"omitempty,max=100"`
	Role             string `form:"role" json:"role" validate:"omitempty,role"`
	PaymentStatus    string `form:"paymentStatus" json:"paymentStatus" validate:"omitempty,payment_status"`
	SubscriptionPlan string `form:"subscriptionPlan" json:"subscriptionPlan" validate:"omitempty,plan"`
	Active           *bool  `form:"active" json:"active"`
	Page             int    `form:"page" json:"page" validate:"omitempty,min=1"`
	Limit            int    `form:"limit" json:"limit" validate:"omitempty,min=1,max=100"`
}

func (r *UserSearch) sanitize() {
	r.Query = strings.TrimSpace(r.Query)
	if r.Page == 0 {
		r.Page = 1
	}
	if r.Limit == 0 {
		r.Limit = 20
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
