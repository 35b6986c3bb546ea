package model

import (
	"time"
)

// Role represents a user's role in the organization.
// The set is closed: the permission matrix and route tables are defined
// over exactly these five values.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleHR          Role = "hr"
	RoleLeadProject Role = "lead_project"
	RoleVolunteer   Role = "volunteer"
	RoleUnassigned  Role = "unassigned"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleHR, RoleLeadProject, RoleVolunteer, RoleUnassigned}

// Valid reports whether the role is one of the five known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHR, RoleLeadProject, RoleVolunteer, RoleUnassigned:
		return true
	}
	return false
}

// UserStatus represents the status of a user account
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusDeleted   UserStatus = "deleted"
)

// Valid reports whether the status is one of the four known values.
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusSuspended, UserStatusInactive, UserStatusDeleted:
		return true
	}
	return false
}

// User represents the core user entity
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	Role             Role       `json:"role"`
	Status           UserStatus `json:"status"`
	EmailVerified    bool       `json:"emailVerified"`
	TwoFactorEnabled bool       `json:"twoFactorEnabled"`
	SSOLinked        bool       `json:"ssoLinked"`
	SSOProvider      string     `json:"ssoProvider,omitempty"`
	Avatar           string     `json:"avatar,omitempty"`
	PasswordHash     string     `json:"passwordHash"` // argon2id encoded; stripped from anything user-facing
	CreatedAt        time.Time  `json:"createdAt"`
	LastLoginAt      *time.Time `json:"lastLoginAt,omitempty"`
}

// IsActive checks if the user account is active
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
