package service

import (
	"testing"

	"github.com/habitkit/identity-service/internal/core/domain"
)

func TestPermissionService_AdminHasAll(t *testing.T) {
	svc := NewPermissionService()
	admin := &domain.User{ID: "a1", Role: domain.RoleAdmin}

	for _, p := range []domain.Permission{
		domain.PermissionDashboardLogin,
		domain.PermissionManageUsers,
		domain.PermissionManageContent,
	} {
		if !svc.HasPermission(admin, p) {
			t.Fatalf("admin should hold %s", p)
		}
	}
}

func TestPermissionService_EditorSubset(t *testing.T) {
	svc := NewPermissionService()
	editor := &domain.User{ID: "e1", Role: domain.RoleEditor}

	if !svc.HasPermission(editor, domain.PermissionDashboardLogin) {
		t.Fatalf("editor should hold dashboard login")
	}
	if !svc.HasPermission(editor, domain.PermissionManageContent) {
		t.Fatalf("editor should hold content management")
	}
	if svc.HasPermission(editor, domain.PermissionManageUsers) {
		t.Fatalf("editor should not hold user management")
	}
}

func TestPermissionService_UserDeniedDashboard(t *testing.T) {
	svc := NewPermissionService()
	user := &domain.User{ID: "u1", Role: domain.RoleUser}

	if svc.HasPermission(user, domain.PermissionDashboardLogin) {
		t.Fatalf("plain user should not hold dashboard login")
	}
}

func TestPermissionService_UnknownRoleDeniesEverything(t *testing.T) {
	svc := NewPermissionService()
	stranger := &domain.User{ID: "x1", Role: domain.Role("superuser")}

	for _, p := range []domain.Permission{
		domain.PermissionDashboardLogin,
		domain.PermissionManageUsers,
		domain.PermissionManageContent,
	} {
		if svc.HasPermission(stranger, p) {
			t.Fatalf("unknown role should deny %s", p)
		}
	}
}

func TestPermissionService_NilUserDenied(t *testing.T) {
	svc := NewPermissionService()
	if svc.HasPermission(nil, domain.PermissionDashboardLogin) {
		t.Fatalf("nil user should be denied")
	}
}
