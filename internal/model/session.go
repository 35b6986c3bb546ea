package model

import "time"

// Session is the client-held record of who is currently logged in.
// At most one session exists in storage at a time; a newer login
// overwrites any prior session.
type Session struct {
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Avatar       string    `json:"avatar,omitempty"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}

// IsExpired reports whether the session's absolute expiry has passed.
// Expiry is only ever evaluated at read time; nothing proactively
// terminates a session.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
