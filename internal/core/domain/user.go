package domain

import "time"

// Role is the coarse authorization class of an account.
type Role string

const (
	RoleUser   Role = "user"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// Tier is the access/quota class of an account. Guests are upgraded to
// member when they convert to a permanent account.
type Tier string

const (
	TierGuest  Tier = "guest"
	TierMember Tier = "member"
)

// Permission names a single guarded capability.
type Permission string

const (
	PermissionDashboardLogin Permission = "dashboard:login"
	PermissionManageUsers    Permission = "users:manage"
	PermissionManageContent  Permission = "content:manage"
)

// User models an account identity. Exactly one non-anonymous account may
// hold a given email; anonymous accounts carry a synthesized placeholder
// email instead.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	IsAnonymous bool      `json:"is_anonymous"`
	Role        Role      `json:"role"`
	Tier        Tier      `json:"tier"`
	CreatedAt   time.Time `json:"created_at"`
}
