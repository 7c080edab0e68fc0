package domain

import (
	"sort"
	"time"
)

const (
	PlanBasic    = "basic"
	PlanStandard = "standard"
	PlanPremium  = "premium"
)

// Permissions every user gets while payment is outstanding.
var (
	UnpaidPermissions = []string{"view_basic"}
	UnpaidFeatures    = []string{"view_courses", "view_profile"}
)

// RolePermissions is shared by the auth and portal services.
var RolePermissions = map[string][]string{
	RoleStudent: {
		"view_courses",
		"submit_assignments",
		"view_progress",
		"join_live_sessions",
	},
	RoleParent: {
		"view_child_progress",
		"view_payments",
		"contact_instructors",
	},
	RoleInstructor: {
		"view_courses",
		"manage_courses",
		"grade_assignments",
		"view_students",
		"create_content",
	},
	RoleAdmin: {
		"view_courses",
		"manage_courses",
		"manage_users",
		"manage_payments",
		"view_analytics",
		"grade_assignments",
		"view_students",
	},
}

// PlanPermissions adds permissions unlocked by a paid subscription.
var PlanPermissions = map[string][]string{
	PlanBasic:    {"access_basic_content"},
	PlanStandard: {"access_basic_content", "access_intermediate_content", "join_live_sessions"},
	PlanPremium: {
		"access_basic_content",
		"access_intermediate_content",
		"access_advanced_content",
		"join_live_sessions",
		"book_mentorship",
	},
}

var PlanFeatures = map[string][]string{
	PlanBasic: {
		"view_courses",
		"view_profile",
		"basic_projects",
		"community_forum",
	},
	PlanStandard: {
		"view_courses",
		"view_profile",
		"basic_projects",
		"community_forum",
		"live_classes",
		"code_reviews",
	},
	PlanPremium: {
		"view_courses",
		"view_profile",
		"basic_projects",
		"community_forum",
		"live_classes",
		"code_reviews",
		"premium_projects",
		"premium_mentorship",
		"certificate",
	},
}

// Plan is a purchasable subscription.
type Plan struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Price       float64       `json:"price"`
	Currency    string        `json:"currency"`
	Duration    time.Duration `json:"-"`
	DurationDay int           `json:"durationDays"`
	Features    []string      `json:"features"`
}

var plans = []Plan{
	{
		ID:          PlanBasic,
		Name:        "Basic",
		Description: "Self-paced courses and community access",
		Price:       400,
		Currency:    DefaultCurrency,
		DurationDay: 90,
	},
	{
		ID:          PlanStandard,
		Name:        "Standard",
		Description: "Live classes and code reviews on top of Basic",
		Price:       800,
		Currency:    DefaultCurrency,
		DurationDay: 180,
	},
	{
		ID:          PlanPremium,
		Name:        "Premium",
		Description: "Full bootcamp with mentorship and certificate",
		Price:       1500,
		Currency:    DefaultCurrency,
		DurationDay: 365,
	},
}

// Plans returns the subscription catalog with features filled in.
func Plans() []Plan {
	out := make([]Plan, len(plans))
	for i, p := range plans {
		p.Duration = time.Duration(p.DurationDay) * 24 * time.Hour
		p.Features = append([]string(nil), PlanFeatures[p.ID]...)
		out[i] = p
	}
	return out
}

// PlanByID returns the catalog entry for id.
func PlanByID(id string) (Plan, bool) {
	for _, p := range Plans() {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

func PlanIDs() []string {
	ids := make([]string, len(plans))
	for i, p := range plans {
		ids[i] = p.ID
	}
	return ids
}

// PermissionsFor is the union of role and plan permissions, sorted.
func PermissionsFor(role, plan string) []string {
	return union(RolePermissions[role], PlanPermissions[plan])
}

// FeaturesFor returns the features unlocked by plan.
func FeaturesFor(plan string) []string {
	return union(PlanFeatures[plan])
}

func union(sets ...[]string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, set := range sets {
		for _, v := range set {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
