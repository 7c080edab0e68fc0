package service

import (
	"context"
	"math"
	"slices"
	"strings"
	"time"

	"codecamp/internal/domain"
	"codecamp/internal/models"
	"codecamp/internal/repository"

	"go.uber.org/zap"
)

const (
	reasonDeactivated     = "Account is deactivated"
	reasonPaymentRequired = "Payment required"

	recentActivityLimit = 10
	recentPaymentsLimit = 5
)

// PortalAccess is derived on every request from the user's role, plan and
// payment status.
type PortalAccess struct {
	HasAccess          bool      `json:"hasAccess"`
	Reason             string    `json:"reason,omitempty"`
	Permissions        []string  `json:"permissions"`
	SubscriptionStatus string    `json:"subscriptionStatus"`
	Features           []string  `json:"features"`
	CheckedAt          time.Time `json:"checkedAt"`
}

// ComputeAccess is the access rule with no I/O.
func ComputeAccess(u *models.User, now time.Time) *PortalAccess {
	a := &PortalAccess{
		SubscriptionStatus: u.PaymentStatus,
		Permissions:        []string{},
		Features:           []string{},
		CheckedAt:          now,
	}
	switch {
	case !u.IsActive:
		a.Reason = reasonDeactivated
	case u.PaymentStatus != domain.PaymentStatusCompleted:
		a.Reason = reasonPaymentRequired
		a.Permissions = slices.Clone(domain.UnpaidPermissions)
		a.Features = slices.Clone(domain.UnpaidFeatures)
	default:
		a.HasAccess = true
		a.Permissions = domain.PermissionsFor(u.Role, u.SubscriptionPlan)
		a.Features = domain.FeaturesFor(u.SubscriptionPlan)
	}
	return a
}

type SubscriptionInfo struct {
	Plan          *domain.Plan `json:"plan,omitempty"`
	Status        string       `json:"status"`
	StartedAt     *time.Time   `json:"startedAt,omitempty"`
	ExpiresAt     *time.Time   `json:"expiresAt,omitempty"`
	DaysRemaining int          `json:"daysRemaining"`
}

type UsageStats struct {
	LoginCount   int        `json:"loginCount"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	DaysEnrolled int        `json:"daysEnrolled"`
	PaymentsMade int64      `json:"paymentsMade"`
	TotalSpent   float64    `json:"totalSpent"`
}

type Dashboard struct {
	User           *models.User         `json:"user"`
	Access         *PortalAccess        `json:"access"`
	RecentActivity []models.ActivityLog `json:"recentActivity"`
	Subscription   SubscriptionInfo     `json:"subscription"`
	Payments       []models.Payment     `json:"payments"`
	Stats          UsageStats           `json:"stats"`
}

type PortalAnalytics struct {
	TotalUsers         int64            `json:"totalUsers"`
	ActiveUsers        int64            `json:"activeUsers"`
	PaidUsers          int64            `json:"paidUsers"`
	UsersByRole        map[string]int64 `json:"usersByRole"`
	ConversionRate     float64          `json:"conversionRate"`
	TotalPayments      int64            `json:"totalPayments"`
	CompletedPayments  int64            `json:"completedPayments"`
	FailedPayments     int64            `json:"failedPayments"`
	RefundedPayments   int64            `json:"refundedPayments"`
	PaymentSuccessRate float64          `json:"paymentSuccessRate"`
	Revenue            float64          `json:"revenue"`
	GeneratedAt        time.Time        `json:"generatedAt"`
}

type PortalService struct {
	store    *repository.Store
	users    *UserService
	activity *ActivityRecorder
	log      *zap.Logger
	now      func() time.Time
}

func NewPortalService(store *repository.Store, users *UserService, activity *ActivityRecorder, log *zap.Logger) *PortalService {
	return &PortalService{store: store, users: users, activity: activity, log: log.Named("portal"), now: time.Now}
}

// CheckPortalAccess computes the user's access and appends it to the access log.
func (s *PortalService) CheckPortalAccess(ctx context.Context, userID string) (*PortalAccess, error) {
	u, err := s.users.MustGetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	access := ComputeAccess(u, s.now().UTC())
	s.activity.RecordAccess(ctx, u.ID, access)
	return access, nil
}

// GetDashboardData aggregates access, recent activity, subscription, payments and usage.
func (s *PortalService) GetDashboardData(ctx context.Context, userID string) (*Dashboard, error) {
	u, err := s.users.MustGetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	access := ComputeAccess(u, now)
	s.activity.RecordAccess(ctx, u.ID, access)

	activity, err := s.store.Activity.ListByUser(ctx, u.ID, recentActivityLimit)
	if err != nil {
		return nil, dbError("Failed to load activity", err)
	}
	payments, err := s.store.Payments.ListByUser(ctx, u.ID, recentPaymentsLimit)
	if err != nil {
		return nil, dbError("Failed to load payments", err)
	}
	totals, err := s.store.Payments.TotalsForUser(ctx, u.ID)
	if err != nil {
		return nil, dbError("Failed to load payment totals", err)
	}

	return &Dashboard{
		User:           u,
		Access:         access,
		RecentActivity: activity,
		Subscription:   subscriptionInfo(u, payments, now),
		Payments:       payments,
		Stats: UsageStats{
			LoginCount:   u.LoginCount,
			LastLoginAt:  u.LastLoginAt,
			DaysEnrolled: int(now.Sub(u.EnrollmentDate).Hours() / 24),
			PaymentsMade: totals.Count,
			TotalSpent:   totals.TotalSpent,
		},
	}, nil
}

// ValidateFeatureAccess reports whether the computed access includes feature.
func (s *PortalService) ValidateFeatureAccess(ctx context.Context, userID, feature string) (bool, error) {
	access, err := s.CheckPortalAccess(ctx, userID)
	if err != nil {
		return false, err
	}
	if strings.HasPrefix(feature, domain.PremiumFeaturePrefix) && !access.HasAccess {
		return false, nil
	}
	return slices.Contains(access.Features, feature) || slices.Contains(access.Permissions, feature), nil
}

func (s *PortalService) GetPortalAnalytics(ctx context.Context) (*PortalAnalytics, error) {
	st, err := s.store.Analytics.PortalStats(ctx)
	if err != nil {
		return nil, dbError("Failed to load analytics", err)
	}
	return &PortalAnalytics{
		TotalUsers:         st.TotalUsers,
		ActiveUsers:        st.ActiveUsers,
		PaidUsers:          st.PaidUsers,
		UsersByRole:        st.UsersByRole,
		ConversionRate:     percent(st.PaidUsers, st.TotalUsers),
		TotalPayments:      st.TotalPayments,
		CompletedPayments:  st.CompletedPayments,
		FailedPayments:     st.FailedPayments,
		RefundedPayments:   st.RefundedPayments,
		PaymentSuccessRate: percent(st.CompletedPayments, st.TotalPayments),
		Revenue:            st.Revenue,
		GeneratedAt:        s.now().UTC(),
	}, nil
}

// subscriptionInfo dates the subscription from the latest completed payment.
// payments must be newest first.
func subscriptionInfo(u *models.User, payments []models.Payment, now time.Time) SubscriptionInfo {
	info := SubscriptionInfo{Status: u.PaymentStatus}
	plan, ok := domain.PlanByID(u.SubscriptionPlan)
	if !ok {
		return info
	}
	info.Plan = &plan
	if !u.HasPaid() {
		return info
	}
	for _, p := range payments {
		if p.Status != domain.PaymentStatusCompleted {
			continue
		}
		started := p.PaymentDate
		expires := started.Add(plan.Duration)
		info.StartedAt = &started
		info.ExpiresAt = &expires
		if left := expires.Sub(now); left > 0 {
			info.DaysRemaining = int(math.Ceil(left.Hours() / 24))
		}
		break
	}
	return info
}

// percent rounds part/whole to two decimals; zero when whole is zero.
func percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*10000) / 100
}
