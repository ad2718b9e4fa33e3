package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"mservice.org/internal/auth"
)

// Row filters encode the access rules at query time: disabled roles and
// soft-deleted rows never reach Go code.

// FindUser fetches a live user row by id.
func (s *Store) FindUser(ctx context.Context, id int64) (auth.UserRecord, error) {
	const q = `
SELECT id, username, password, status, is_admin
FROM bl_users
WHERE id = $1 AND delete_time IS NULL`
	return s.scanUser(s.db.QueryRowContext(ctx, q, id))
}

// FindUserByUsername fetches a live user row by username.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (auth.UserRecord, error) {
	const q = `
SELECT id, username, password, status, is_admin
FROM bl_users
WHERE username = $1 AND delete_time IS NULL`
	return s.scanUser(s.db.QueryRowContext(ctx, q, username))
}

func (s *Store) scanUser(row *sql.Row) (auth.UserRecord, error) {
	var u auth.UserRecord
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Status, &u.IsAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.UserRecord{}, auth.ErrNotFound
	}
	if err != nil {
		return auth.UserRecord{}, fmt.Errorf("pg: scan user: %w", err)
	}
	return u, nil
}

// RolesForUser returns the user's enabled, live roles.
func (s *Store) RolesForUser(ctx context.Context, userID int64) ([]auth.RoleRecord, error) {
	const q = `
SELECT r.id, r.iden
FROM bl_roles r
JOIN bl_users_roles ur ON ur.role_id = r.id AND ur.delete_time IS NULL
WHERE ur.user_id = $1 AND r.status = 1 AND r.delete_time IS NULL
ORDER BY r.id`
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("pg: roles for user %d: %w", userID, err)
	}
	defer rows.Close()

	var out []auth.RoleRecord
	for rows.Next() {
		var r auth.RoleRecord
		if err := rows.Scan(&r.ID, &r.Iden); err != nil {
			return nil, fmt.Errorf("pg: scan role: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pg: roles for user %d: %w", userID, err)
	}
	return out, nil
}

// PermissionsForRoles returns the distinct live permissions granted through
// the given roles.
func (s *Store) PermissionsForRoles(ctx context.Context, roleIDs []int64) ([]auth.PermissionRecord, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	placeholders, args := inClause(roleIDs)
	q := `
SELECT DISTINCT p.id, p.iden
FROM bl_permissions p
JOIN bl_roles_permissions rp ON rp.permission_id = p.id AND rp.delete_time IS NULL
WHERE rp.role_id IN (` + placeholders + `) AND p.delete_time IS NULL
ORDER BY p.id`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("pg: permissions for roles: %w", err)
	}
	defer rows.Close()

	var out []auth.PermissionRecord
	for rows.Next() {
		var p auth.PermissionRecord
		if err := rows.Scan(&p.ID, &p.Iden); err != nil {
			return nil, fmt.Errorf("pg: scan permission: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pg: permissions for roles: %w", err)
	}
	return out, nil
}

// APIsForPermissions returns the distinct live api entries bound to the
// given permissions, whatever their status; status handling is the
// caller's concern.
func (s *Store) APIsForPermissions(ctx context.Context, permissionIDs []int64) ([]auth.APIRecord, error) {
	if len(permissionIDs) == 0 {
		return nil, nil
	}
	placeholders, args := inClause(permissionIDs)
	q := `
SELECT DISTINCT a.id, a.full_path, a.method, a.status
FROM bl_api a
JOIN bl_permission_api pa ON pa.api_id = a.id AND pa.delete_time IS NULL
WHERE pa.permission_id IN (` + placeholders + `) AND a.delete_time IS NULL
ORDER BY a.id`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("pg: apis for permissions: %w", err)
	}
	defer rows.Close()

	var out []auth.APIRecord
	for rows.Next() {
		var a auth.APIRecord
		if err := rows.Scan(&a.ID, &a.FullPath, &a.Method, &a.Status); err != nil {
			return nil, fmt.Errorf("pg: scan api: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pg: apis for permissions: %w", err)
	}
	return out, nil
}

func inClause(ids []int64) (string, []any) {
	parts := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		parts[i] = "$" + strconv.Itoa(i+1)
		args[i] = id
	}
	return strings.Join(parts, ", "), args
}
