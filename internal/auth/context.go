package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/neemfurnitech/procurement-api/internal/domain"
)

// UserContext identifies the authenticated caller for the duration of
// a request.
type UserContext struct {
	UserID      uuid.UUID
	DisplayName string
	Email       string
	Roles       []domain.UserRoleType
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext stores the caller identity on the request context.
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext returns the caller identity set by the auth middleware.
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// MustFromContext is FromContext for handlers behind the auth
// middleware, where a missing identity is a programming error.
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// HasRole checks if user has a specific role
func (u *UserContext) HasRole(role domain.UserRoleType) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole checks if user has any of the specified roles
func (u *UserContext) HasAnyRole(roles ...domain.UserRoleType) bool {
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

// IsAdmin checks if user has the admin role
func (u *UserContext) IsAdmin() bool {
	return u.HasRole(domain.RoleAdmin)
}

// CanApprove checks if user may approve or reject purchase orders
func (u *UserContext) CanApprove() bool {
	return u.HasAnyRole(domain.RoleAdmin, domain.RoleApprover)
}

// CanManageOrders checks if user may create, edit and submit purchase orders
func (u *UserContext) CanManageOrders() bool {
	return u.HasAnyRole(domain.RoleAdmin, domain.RoleProcurement, domain.RoleAPIService)
}

// GetDisplayNameInitials returns initials from the display name, so
// "Priya Nair" becomes "PN".
func (u *UserContext) GetDisplayNameInitials() string {
	var b strings.Builder
	for _, part := range strings.Fields(u.DisplayName) {
		b.WriteString(strings.ToUpper(part[:1]))
	}
	return b.String()
}

// RolesAsStrings returns the roles as plain strings for logging.
func (u *UserContext) RolesAsStrings() []string {
	result := make([]string, len(u.Roles))
	for i, role := range u.Roles {
		result[i] = string(role)
	}
	return result
}
