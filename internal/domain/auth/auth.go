// Package auth resolves the calling actor from a bearer token and decides
// which back-office areas the actor may enter.
package auth

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Role is a user role stored in user_roles.
type Role string

const (
	RoleUser       Role = "user"
	RoleKasir      Role = "kasir"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleKasir, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Area is a group of screens gated by role.
type Area int

const (
	// AreaCashier is the point-of-sale screen and its history.
	AreaCashier Area = iota + 1
	// AreaBackOffice is catalog, coupon, order and settings management.
	AreaBackOffice
	// AreaUsers is user-role management.
	AreaUsers
)

var areaRoles = map[Area][]Role{
	AreaCashier:    {RoleAdmin, RoleKasir, RoleSuperAdmin},
	AreaBackOffice: {RoleAdmin, RoleSuperAdmin},
	AreaUsers:      {RoleSuperAdmin},
}

var (
	// ErrUnauthenticated is returned when no valid credentials are present.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the actor's role may not enter an area.
	ErrForbidden = errors.New("Anda tidak memiliki akses ke halaman ini")
	// ErrInvalidRole is returned when setting an unknown role.
	ErrInvalidRole = errors.New("invalid role")
)

// Actor is the authenticated caller. It is resolved once at the routing
// boundary and passed explicitly to services.
type Actor struct {
	UserID string
	Role   Role
}

// Can reports whether the actor may enter the area.
func (a Actor) Can(area Area) bool {
	for _, r := range areaRoles[area] {
		if a.Role == r {
			return true
		}
	}
	return false
}

// Require returns ErrForbidden unless the actor may enter the area.
func (a Actor) Require(area Area) error {
	if !a.Can(area) {
		return ErrForbidden
	}
	return nil
}

type actorKey struct{}

// WithActor stores the actor in ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// FromContext returns the actor stored by WithActor.
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}

// User is a registered account with its role and profile.
type User struct {
	ID        string
	Email     string
	FullName  string
	Phone     string
	Role      Role
	CreatedAt time.Time
}

// UserRepository provides role lookup and management.
type UserRepository interface {
	// RoleOf returns the user's role, or RoleUser when none is assigned.
	RoleOf(ctx context.Context, userID string) (Role, error)
	List(ctx context.Context) ([]User, error)
	SetRole(ctx context.Context, userID string, role Role) error
}
