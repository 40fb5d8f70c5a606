package models

import (
	"time"
)

type AuthRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  `json:"user"`
}

// SessionPayload is what the session store keeps for every issued token.
type SessionPayload struct {
	User         `json:"user"`
	RefreshToken string `json:"refresh-token"`
}

// User is an authenticated identity. Role is filled from user_roles only by
// the access gate; sign-in alone never grants it.
type User struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role,omitempty"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type PasswordReset struct {
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type Role string

const (
	Admin    Role = "admin"
	Customer Role = "user"
)

// ProfileForm updates the signed-in admin. An empty Password keeps the
// current one.
type ProfileForm struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
