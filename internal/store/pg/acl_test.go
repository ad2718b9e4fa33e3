package pg

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"mservice.org/internal/auth"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestFindUser(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, username, password, status, is_admin\s+FROM bl_users\s+WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "status", "is_admin"}).
			AddRow(int64(42), "editor", "$2a$10$hash", 1, false))

	u, err := store.FindUser(context.Background(), 42)
	if err != nil {
		t.Fatalf("FindUser: %v", err)
	}
	if u.ID != 42 || u.Username != "editor" || !u.Active() || u.IsAdmin {
		t.Fatalf("user = %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestFindUserNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM bl_users`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "status", "is_admin"}))

	_, err := store.FindUser(context.Background(), 99)
	if !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("err = %v, want auth.ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestFindUserByUsername(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM bl_users\s+WHERE username = \$1`).
		WithArgs("editor").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "status", "is_admin"}).
			AddRow(int64(42), "editor", "$2a$10$hash", 1, false))

	u, err := store.FindUserByUsername(context.Background(), "editor")
	if err != nil {
		t.Fatalf("FindUserByUsername: %v", err)
	}
	if u.ID != 42 {
		t.Fatalf("user = %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRolesForUser(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM bl_roles r\s+JOIN bl_users_roles ur`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "iden"}).
			AddRow(int64(10), "editor").
			AddRow(int64(11), "reviewer"))

	roles, err := store.RolesForUser(context.Background(), 42)
	if err != nil {
		t.Fatalf("RolesForUser: %v", err)
	}
	if len(roles) != 2 || roles[0].Iden != "editor" || roles[1].Iden != "reviewer" {
		t.Fatalf("roles = %+v", roles)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPermissionsForRoles(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM bl_permissions p\s+JOIN bl_roles_permissions rp`).
		WithArgs(int64(10), int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "iden"}).
			AddRow(int64(20), "content.manage"))

	perms, err := store.PermissionsForRoles(context.Background(), []int64{10, 11})
	if err != nil {
		t.Fatalf("PermissionsForRoles: %v", err)
	}
	if len(perms) != 1 || perms[0].Iden != "content.manage" {
		t.Fatalf("permissions = %+v", perms)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPermissionsForRolesEmptyInput(t *testing.T) {
	store, _ := newMockStore(t)
	perms, err := store.PermissionsForRoles(context.Background(), nil)
	if err != nil {
		t.Fatalf("PermissionsForRoles: %v", err)
	}
	if perms != nil {
		t.Fatalf("permissions = %+v, want nil without a query", perms)
	}
}

func TestAPIsForPermissions(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM bl_api a\s+JOIN bl_permission_api pa`).
		WithArgs(int64(20)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_path", "method", "status"}).
			AddRow(int64(30), "/api/v1/articles/*", "PUT", auth.APIStatusOpen).
			AddRow(int64(31), "/api/v1/legacy", "", auth.APIStatusClosed))

	apis, err := store.APIsForPermissions(context.Background(), []int64{20})
	if err != nil {
		t.Fatalf("APIsForPermissions: %v", err)
	}
	if len(apis) != 2 || apis[0].FullPath != "/api/v1/articles/*" || apis[1].Status != auth.APIStatusClosed {
		t.Fatalf("apis = %+v", apis)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestQueryErrorPropagates(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM bl_roles r`).
		WithArgs(int64(42)).
		WillReturnError(errors.New("connection reset"))

	if _, err := store.RolesForUser(context.Background(), 42); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
