package domain

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryRoleHasPermissions(t *testing.T) {
	for _, r := range Roles {
		assert.NotEmpty(t, RolePermissions[r], r)
	}
}

func TestEveryPlanIncludesCourses(t *testing.T) {
	for _, id := range PlanIDs() {
		assert.Contains(t, FeaturesFor(id), "view_courses", id)
	}
}

func TestPermissionsForIsSortedUnion(t *testing.T) {
	perms := PermissionsFor(RoleStudent, PlanStandard)
	assert.True(t, sort.StringsAreSorted(perms))
	assert.Contains(t, perms, "submit_assignments")
	assert.Contains(t, perms, "access_intermediate_content")

	seen := map[string]bool{}
	for _, p := range perms {
		assert.False(t, seen[p], "duplicate %s", p)
		seen[p] = true
	}
}

func TestUnknownRoleAndPlanYieldEmpty(t *testing.T) {
	assert.Empty(t, PermissionsFor("ghost", "none"))
	assert.Empty(t, FeaturesFor("none"))
}

func TestPlanCatalog(t *testing.T) {
	p, ok := PlanByID(PlanStandard)
	require.True(t, ok)
	assert.Equal(t, 800.0, p.Price)
	assert.Equal(t, DefaultCurrency, p.Currency)
	assert.Equal(t, 180, p.DurationDay)
	assert.Equal(t, FeaturesFor(PlanStandard), sortedCopy(p.Features))

	_, ok = PlanByID("platinum")
	assert.False(t, ok)

	plans := Plans()
	plans[0].Features[0] = "mutated"
	assert.NotEqual(t, "mutated", Plans()[0].Features[0])
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
