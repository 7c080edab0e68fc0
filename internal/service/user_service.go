package service

import (
	"context"
	"errors"
	"math"
	"time"

	"codecamp/internal/apperror"
	"codecamp/internal/domain"
	"codecamp/internal/identity"
	"codecamp/internal/models"
	"codecamp/internal/repository"
	"codecamp/internal/validation"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type UserService struct {
	store    *repository.Store
	idp      identity.Provider
	notify   *NotificationService
	activity *ActivityRecorder
	log      *zap.Logger
}

func NewUserService(store *repository.Store, idp identity.Provider, notify *NotificationService, activity *ActivityRecorder, log *zap.Logger) *UserService {
	return &UserService{store: store, idp: idp, notify: notify, activity: activity, log: log.Named("users")}
}

// UserPage is one page of a user listing.
type UserPage struct {
	Users      []models.User `json:"users"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"totalPages"`
}

// EnrollUser creates the identity account and the pending student profile.
// If the profile cannot be written the account is deleted again.
func (s *UserService) EnrollUser(ctx context.Context, req *validation.EnrollmentRequest) (*models.User, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	existing, err := s.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.UserAlreadyExists(req.Email)
	}

	acct, err := s.idp.SignUp(ctx, req.Email, req.Password)
	if errors.Is(err, identity.ErrEmailTaken) {
		return nil, apperror.UserAlreadyExists(req.Email)
	}
	if err != nil {
		return nil, apperror.ExternalService("identity provider", err)
	}

	u := &models.User{
		ID:               acct.ID,
		Email:            acct.Email,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Role:             domain.RoleStudent,
		PaymentStatus:    domain.PaymentStatusPending,
		SubscriptionPlan: req.SubscriptionPlan,
		IsActive:         true,
		EnrollmentDate:   time.Now().UTC(),
	}
	if req.Phone != "" {
		u.Phone = &req.Phone
	}
	u.ProfileData = datatypes.NewJSONType(mergeProfile(models.ProfileData{}, req.ProfileData))

	if err := s.store.Users.Create(ctx, u); err != nil {
		if derr := s.idp.DeleteAccount(ctx, acct.ID); derr != nil {
			s.log.Error("orphaned identity account after failed enrollment",
				zap.String("account_id", acct.ID), zap.Error(derr))
		}
		if isDuplicate(err) {
			return nil, apperror.UserAlreadyExists(req.Email)
		}
		return nil, dbError("Failed to create user profile", err)
	}
	s.activity.Record(ctx, u.ID, domain.ActionEnroll, "user", u.ID, map[string]any{"plan": u.SubscriptionPlan})

	token, err := s.idp.EmailConfirmationToken(ctx, u.ID)
	warn(s.log, "email confirmation token", err, zap.String("user_id", u.ID))
	warn(s.log, "welcome email", s.notify.SendWelcome(ctx, u, token), zap.String("user_id", u.ID))
	return u, nil
}

// GetUserByID returns nil, nil when no user has id.
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	u, err := s.store.Users.GetByID(ctx, id)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError("Failed to load user", err)
	}
	return u, nil
}

// GetUserByEmail returns nil, nil when no user has email.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.store.Users.GetByEmail(ctx, email)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError("Failed to load user", err)
	}
	return u, nil
}

// MustGetUser is GetUserByID with absence reported as UserNotFound.
func (s *UserService) MustGetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperror.UserNotFound(id)
	}
	return u, nil
}

func (s *UserService) UpdateUserProfile(ctx context.Context, id string, patch *validation.UserUpdate) (*models.User, error) {
	if err := validation.Validate(patch); err != nil {
		return nil, err
	}
	u, err := s.MustGetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = *patch.LastName
	}
	if patch.Phone != nil {
		if *patch.Phone == "" {
			u.Phone = nil
		} else {
			phone := *patch.Phone
			u.Phone = &phone
		}
	}
	if patch.ProfileData != nil {
		u.ProfileData = datatypes.NewJSONType(mergeProfile(u.ProfileData.Data(), patch.ProfileData))
	}
	if err := s.store.Users.Update(ctx, u); err != nil {
		return nil, dbError("Failed to update user profile", err)
	}
	s.activity.Record(ctx, u.ID, domain.ActionProfileUpdated, "user", u.ID, nil)
	return u, nil
}

func (s *UserService) UpdatePaymentStatus(ctx context.Context, id, status string) error {
	if !domain.IsPaymentStatus(status) {
		return apperror.Validation("", apperror.FieldError{Field: "paymentStatus", Rule: "oneof", Message: "paymentStatus is not a valid payment status"})
	}
	return s.updateFields(ctx, id, map[string]any{"payment_status": status})
}

func (s *UserService) UpdateSubscriptionPlan(ctx context.Context, id, plan string) error {
	if _, ok := domain.PlanByID(plan); !ok {
		return apperror.Validation("", apperror.FieldError{Field: "subscriptionPlan", Rule: "plan", Message: "subscriptionPlan is not a known plan"})
	}
	return s.updateFields(ctx, id, map[string]any{"subscription_plan": plan})
}

// UpdateLoginInfo increments the login counter and stamps the login time.
func (s *UserService) UpdateLoginInfo(ctx context.Context, id string) error {
	err := s.store.Users.RecordLogin(ctx, id, time.Now().UTC())
	if isNotFound(err) {
		return apperror.UserNotFound(id)
	}
	if err != nil {
		return dbError("Failed to record login", err)
	}
	return nil
}

func (s *UserService) VerifyEmail(ctx context.Context, id string) error {
	return s.updateFields(ctx, id, map[string]any{"email_verified": true})
}

func (s *UserService) SetActive(ctx context.Context, id string, active bool) error {
	return s.updateFields(ctx, id, map[string]any{"is_active": active})
}

// DeleteUser removes the identity account, then the profile and its payments.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.MustGetUser(ctx, id); err != nil {
		return err
	}
	err := s.idp.DeleteAccount(ctx, id)
	if err != nil && !errors.Is(err, identity.ErrAccountNotFound) {
		return apperror.ExternalService("identity provider", err)
	}
	// payments reference their owner, so they go with the profile; the
	// deletion entry keeps their ledger in the activity log
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		payments, err := tx.Payments.ListByUser(ctx, id, 0)
		if err != nil {
			return err
		}
		if err := tx.Activity.Create(ctx, newActivity(ctx, id, domain.ActionAccountDeleted, "user", id, deletedPayments(payments))); err != nil {
			return err
		}
		if err := tx.Payments.DeleteByUser(ctx, id); err != nil {
			return err
		}
		return tx.Users.Delete(ctx, id)
	})
	if err != nil {
		s.log.Error("profile left behind after identity deletion", zap.String("user_id", id), zap.Error(err))
		return dbError("Failed to delete user", err)
	}
	return nil
}

func (s *UserService) GetAllUsers(ctx context.Context, page, limit int) (*UserPage, error) {
	return s.search(ctx, repository.UserQuery{Page: page, Limit: limit})
}

// SearchUsers lists users matching every supplied filter.
func (s *UserService) SearchUsers(ctx context.Context, q *validation.UserSearch) (*UserPage, error) {
	if err := validation.Validate(q); err != nil {
		return nil, err
	}
	query := repository.UserQuery{Text: q.Query, Page: q.Page, Limit: q.Limit}
	add := func(field string, value any) {
		query.Filters = append(query.Filters, repository.Filter{Field: field, Value: value})
	}
	if q.Role != "" {
		add("role", q.Role)
	}
	if q.PaymentStatus != "" {
		add("paymentStatus", q.PaymentStatus)
	}
	if q.SubscriptionPlan != "" {
		add("subscriptionPlan", q.SubscriptionPlan)
	}
	if q.Active != nil {
		add("isActive", *q.Active)
	}
	return s.search(ctx, query)
}

func (s *UserService) search(ctx context.Context, q repository.UserQuery) (*UserPage, error) {
	users, total, err := s.store.Users.Search(ctx, q)
	if err != nil {
		return nil, dbError("Failed to list users", err)
	}
	_, limit := repository.Page(q.Page, q.Limit)
	page := q.Page
	if page < 1 {
		page = 1
	}
	return &UserPage{
		Users:      users,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// EnsureAdmin creates the bootstrap administrator when it does not exist yet.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	u, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u != nil {
		if u.Role == domain.RoleAdmin {
			return nil
		}
		return s.updateFields(ctx, u.ID, map[string]any{"role": domain.RoleAdmin})
	}

	acct, err := s.idp.SignUp(ctx, email, password)
	if errors.Is(err, identity.ErrEmailTaken) {
		sess, serr := s.idp.SignIn(ctx, email, password)
		if serr != nil {
			return apperror.ExternalService("identity provider", serr)
		}
		acct, err = sess.Account, nil
	}
	if err != nil {
		return apperror.ExternalService("identity provider", err)
	}
	admin := &models.User{
		ID:               acct.ID,
		Email:            acct.Email,
		FirstName:        "Admin",
		LastName:         "User",
		Role:             domain.RoleAdmin,
		PaymentStatus:    domain.PaymentStatusPending,
		SubscriptionPlan: domain.PlanPremium,
		IsActive:         true,
		EmailVerified:    true,
		EnrollmentDate:   time.Now().UTC(),
	}
	if err := s.store.Users.Create(ctx, admin); err != nil {
		return dbError("Failed to create admin", err)
	}
	s.log.Info("admin account created", zap.String("email", admin.Email))
	return nil
}

func (s *UserService) updateFields(ctx context.Context, id string, fields map[string]any) error {
	err := s.store.Users.UpdateFields(ctx, id, fields)
	if isNotFound(err) {
		return apperror.UserNotFound(id)
	}
	if err != nil {
		return dbError("Failed to update user", err)
	}
	return nil
}

// mergeProfile overlays the parts present in in onto base.
func mergeProfile(base models.ProfileData, in *validation.ProfileInput) models.ProfileData {
	if in == nil {
		return base
	}
	if in.DateOfBirth != "" {
		base.DateOfBirth = in.DateOfBirth
	}
	if a := in.Address; a != nil {
		base.Address = &models.Address{
			Street:     a.Street,
			City:       a.City,
			State:      a.State,
			PostalCode: a.PostalCode,
			Country:    a.Country,
		}
	}
	if ec := in.EmergencyContact; ec != nil {
		base.EmergencyContact = &models.EmergencyContact{
			Name:         ec.Name,
			Phone:        ec.Phone,
			Relationship: ec.Relationship,
		}
	}
	if p := in.Preferences; p != nil {
		prefs := models.Preferences{}
		if base.Preferences != nil {
			prefs = *base.Preferences
		}
		if p.LearningMode != "" {
			prefs.LearningMode = p.LearningMode
		}
		if p.PreferredSchedule != "" {
			prefs.PreferredSchedule = p.PreferredSchedule
		}
		if p.Newsletter != nil {
			prefs.Newsletter = *p.Newsletter
		}
		if p.Notifications != nil {
			prefs.Notifications = *p.Notifications
		}
		base.Preferences = &prefs
	}
	return base
}

func deletedPayments(payments []models.Payment) map[string]any {
	ledger := make([]map[string]any, 0, len(payments))
	for _, p := range payments {
		entry := map[string]any{
			"id":               p.ID,
			"transactionId":    p.TransactionID,
			"amount":           p.Amount,
			"currency":         p.Currency,
			"status":           p.Status,
			"subscriptionPlan": p.SubscriptionPlan,
			"paymentDate":      p.PaymentDate,
		}
		if p.RefundAmount != nil {
			entry["refundAmount"] = *p.RefundAmount
		}
		ledger = append(ledger, entry)
	}
	return map[string]any{"payments": ledger}
}
