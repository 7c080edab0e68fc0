package domain

const (
	RoleStudent    = "student"
	RoleParent     = "parent"
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
)

// Roles lists every assignable role.
var Roles = []string{RoleStudent, RoleParent, RoleAdmin, RoleInstructor}

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
	PaymentStatusCancelled = "cancelled"
)

var PaymentStatuses = []string{
	PaymentStatusPending,
	PaymentStatusCompleted,
	PaymentStatusFailed,
	PaymentStatusRefunded,
	PaymentStatusCancelled,
}

const (
	PaymentMethodCard         = "card"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodPaypal       = "paypal"
	PaymentMethodCrypto       = "crypto"
	PaymentMethodMobileMoney  = "mobile_money"
)

var PaymentMethods = []string{
	PaymentMethodCard,
	PaymentMethodBankTransfer,
	PaymentMethodPaypal,
	PaymentMethodCrypto,
	PaymentMethodMobileMoney,
}

// Webhook event names sent by the payment gateway.
const (
	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"
	EventPaymentRefunded  = "payment.refunded"
)

const (
	DefaultCurrency = "GHS"

	PaymentIDPrefix     = "pay_"
	TransactionIDPrefix = "txn_"

	// PremiumFeaturePrefix marks features that need a completed payment on top of the role grant.
	PremiumFeaturePrefix = "premium_"
)

// Activity log actions.
const (
	ActionEnroll               = "enroll"
	ActionLogin                = "login"
	ActionPasswordResetRequest = "password_reset_requested"
	ActionPasswordResetConfirm = "password_reset_confirmed"
	ActionEmailVerified        = "email_verified"
	ActionProfileUpdated       = "profile_updated"
	ActionPaymentCreated       = "payment_created"
	ActionPaymentCompleted     = "payment_completed"
	ActionPaymentFailed        = "payment_failed"
	ActionPaymentRefunded      = "payment_refunded"
	ActionAccessGranted        = "access_granted"
	ActionAccessRevoked        = "access_revoked"
	ActionAccountDeleted       = "account_deleted"
)
