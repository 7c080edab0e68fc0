package service

import (
	"context"
	"testing"

	"codecamp/config"
	"codecamp/internal/auth"
	"codecamp/internal/domain"
	"codecamp/internal/identity"
	"codecamp/internal/logging"
	"codecamp/internal/models"
	"codecamp/internal/repository"
	"codecamp/internal/testutil"
	"codecamp/internal/validation"
	"codecamp/pkg/email"
	"codecamp/pkg/payment"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPassword = "Abcdef12"

type env struct {
	db       *gorm.DB
	store    *repository.Store
	idp      *identity.Local
	mailer   *testutil.Mailer
	gateway  *payment.StubGateway
	notify   *NotificationService
	activity *ActivityRecorder
	users    *UserService
	auth     *AuthService
	payments *PaymentService
	portal   *PortalService
}

// newEnv wires every service over a fresh database with a gateway that
// always succeeds immediately.
func newEnv(t *testing.T) *env {
	t.Helper()
	cfg := config.Default()
	db := testutil.NewDB(t)
	store := repository.NewStore(db)
	log := logging.Nop()

	templates, err := email.NewTemplates()
	require.NoError(t, err)
	mailer := &testutil.Mailer{}
	idp := identity.NewLocal(db, auth.NewIssuer(cfg.JWT), bcrypt.MinCost)
	gw := payment.NewStubGateway(1, 0, "", "http://localhost/pay")

	notify := NewNotificationService(mailer, templates, store.Notifications, cfg.App.Name, cfg.App.BaseURL, log)
	activity := NewActivityRecorder(store.Activity, log)
	users := NewUserService(store, idp, notify, activity, log)
	return &env{
		db:       db,
		store:    store,
		idp:      idp,
		mailer:   mailer,
		gateway:  gw,
		notify:   notify,
		activity: activity,
		users:    users,
		auth:     NewAuthService(users, idp, notify, activity, cfg.JWT.ResetExpiry, log),
		payments: NewPaymentService(store, users, gw, notify, activity, log),
		portal:   NewPortalService(store, users, activity, log),
	}
}

// useGateway rebuilds the payment service around gw.
func (e *env) useGateway(gw payment.Gateway) {
	e.payments = NewPaymentService(e.store, e.users, gw, e.notify, e.activity, logging.Nop())
}

func enrollment(email string) *validation.EnrollmentRequest {
	return &validation.EnrollmentRequest{
		Email:            email,
		Password:         testPassword,
		FirstName:        "Ama",
		LastName:         "Mensah",
		SubscriptionPlan: domain.PlanStandard,
	}
}

func (e *env) enroll(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := e.users.EnrollUser(context.Background(), enrollment(email))
	require.NoError(t, err)
	return u
}

func (e *env) pay(t *testing.T, userID string) *PaymentResult {
	t.Helper()
	res, err := e.payments.ProcessPayment(context.Background(), &validation.PaymentRequest{
		UserID:           userID,
		Amount:           800,
		Currency:         "GHS",
		PaymentMethod:    domain.PaymentMethodCard,
		SubscriptionPlan: domain.PlanStandard,
	})
	require.NoError(t, err)
	return res
}

func (e *env) reload(t *testing.T, id string) *models.User {
	t.Helper()
	u, err := e.users.MustGetUser(context.Background(), id)
	require.NoError(t, err)
	return u
}
