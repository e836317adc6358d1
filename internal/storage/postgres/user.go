package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/mabel-naski/internal/domain/auth"
)

const (
	getRoleSQL = `SELECT role FROM user_roles WHERE user_id = $1`

	listUsersSQL = `SELECT u.user_id, COALESCE(p.email, ''), COALESCE(p.full_name, ''),
		COALESCE(p.phone, ''), COALESCE(r.role, 'user'), u.created_at
		FROM (
			SELECT user_id, created_at FROM profiles
			UNION
			SELECT user_id, created_at FROM user_roles WHERE user_id NOT IN (SELECT user_id FROM profiles)
		) u
		LEFT JOIN profiles p ON p.user_id = u.user_id
		LEFT JOIN user_roles r ON r.user_id = u.user_id
		ORDER BY u.created_at DESC`

	setRoleSQL = `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role`
)

var _ auth.UserRepository = (*UserRepository)(nil)

// UserRepository implements auth.UserRepository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// RoleOf returns the user's role, defaulting to auth.RoleUser.
func (r *UserRepository) RoleOf(ctx context.Context, userID string) (auth.Role, error) {
	var role string
	err := r.pool.QueryRow(ctx, getRoleSQL, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.RoleUser, nil
		}
		return "", fmt.Errorf("getting role of %q: %w", userID, err)
	}
	return auth.Role(role), nil
}

// List returns all known users with their profile and role.
func (r *UserRepository) List(ctx context.Context) ([]auth.User, error) {
	rows, err := r.pool.Query(ctx, listUsersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (auth.User, error) {
		var (
			u    auth.User
			role string
		)
		err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Phone, &role, &u.CreatedAt)
		u.Role = auth.Role(role)
		return u, err
	})
}

// SetRole assigns a role to the user.
func (r *UserRepository) SetRole(ctx context.Context, userID string, role auth.Role) error {
	if !role.Valid() {
		return auth.ErrInvalidRole
	}
	if _, err := r.pool.Exec(ctx, setRoleSQL, userID, string(role)); err != nil {
		return fmt.Errorf("setting role of %q: %w", userID, err)
	}
	return nil
}
