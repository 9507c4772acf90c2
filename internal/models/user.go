package models

import "time"

// Identity is the authenticated user every cart and review call is scoped to
type Identity struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email,omitempty"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// IsZero reports whether no user is set
func (i Identity) IsZero() bool {
	return i.UserID == ""
}

// UserProfile is returned by GET /users/{id}
type UserProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LoginRequest is the body of POST /login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is returned by POST /login
type LoginResponse struct {
	Token string       `json:"token"`
	User  *UserProfile `json:"user,omitempty"`
}

// RegisterRequest is the body of POST /register
type RegisterRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// SessionView is the UI-facing session state
type SessionView struct {
	Authenticated bool         `json:"authenticated"`
	Identity      *Identity    `json:"identity,omitempty"`
	Profile       *UserProfile `json:"profile,omitempty"`
}
