package auth_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/neemfurnitech/procurement-api/internal/auth"
	"github.com/neemfurnitech/procurement-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserContextRoundTrip(t *testing.T) {
	user := &auth.UserContext{
		UserID:      uuid.New(),
		DisplayName: "Priya Nair",
		Email:       "priya@neemfurnitech.com",
		Roles:       []domain.UserRoleType{domain.RoleApprover},
	}

	ctx := auth.WithUserContext(context.Background(), user)

	got, ok := auth.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, user.UserID, got.UserID)
	assert.Equal(t, "Priya Nair", got.DisplayName)
}

func TestFromContextMissing(t *testing.T) {
	_, ok := auth.FromContext(context.Background())
	assert.False(t, ok)
}

func TestMustFromContextPanics(t *testing.T) {
	assert.Panics(t, func() {
		auth.MustFromContext(context.Background())
	})
}

func TestRoleChecks(t *testing.T) {
	tests := []struct {
		name       string
		roles      []domain.UserRoleType
		canApprove bool
		canManage  bool
		isAdmin    bool
	}{
		{"approver", []domain.UserRoleType{domain.RoleApprover}, true, false, false},
		{"procurement", []domain.UserRoleType{domain.RoleProcurement}, false, true, false},
		{"admin", []domain.UserRoleType{domain.RoleAdmin}, true, true, true},
		{"viewer", []domain.UserRoleType{domain.RoleViewer}, false, false, false},
		{"api service", []domain.UserRoleType{domain.RoleAPIService}, false, true, false},
		{"no roles", nil, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &auth.UserContext{Roles: tt.roles}
			assert.Equal(t, tt.canApprove, u.CanApprove())
			assert.Equal(t, tt.canManage, u.CanManageOrders())
			assert.Equal(t, tt.isAdmin, u.IsAdmin())
		})
	}
}

func TestGetDisplayNameInitials(t *testing.T) {
	tests := []struct {
		displayName string
		want        string
	}{
		{"Priya Nair", "PN"},
		{"priya", "P"},
		{"Anand Kumar Mehta", "AKM"},
		{"", ""},
	}

	for _, tt := range tests {
		u := &auth.UserContext{DisplayName: tt.displayName}
		assert.Equal(t, tt.want, u.GetDisplayNameInitials())
	}
}

func TestRolesAsStrings(t *testing.T) {
	u := &auth.UserContext{Roles: []domain.UserRoleType{domain.RoleAdmin, domain.RoleApprover}}
	assert.Equal(t, []string{"admin", "approver"}, u.RolesAsStrings())
}
