package service

import "github.com/habitkit/identity-service/internal/core/domain"

// rolePermissions is the static role → permission-set table. A role absent
// from the table holds no permissions; there is no implicit admin bypass.
var rolePermissions = map[domain.Role]map[domain.Permission]struct{}{
	domain.RoleAdmin: {
		domain.PermissionDashboardLogin: {},
		domain.PermissionManageUsers:    {},
		domain.PermissionManageContent:  {},
	},
	domain.RoleEditor: {
		domain.PermissionDashboardLogin: {},
		domain.PermissionManageContent:  {},
	},
	domain.RoleUser: {},
}

// PermissionService answers permission checks from the static table. Pure
// and synchronous: no storage or network calls.
type PermissionService struct {
	table map[domain.Role]map[domain.Permission]struct{}
}

func NewPermissionService() *PermissionService {
	return &PermissionService{table: rolePermissions}
}

// HasPermission reports whether user's role grants permission. Unknown roles
// and nil users deny everything.
func (s *PermissionService) HasPermission(user *domain.User, permission domain.Permission) bool {
	if user == nil {
		return false
	}
	perms, ok := s.table[user.Role]
	if !ok {
		return false
	}
	_, ok = perms[permission]
	return ok
}
