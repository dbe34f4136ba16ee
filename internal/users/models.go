package users

import "time"

// User is an account record. The password hash never leaves the service.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RegisterRequest is the body for POST /users/register.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest is the body for POST /users/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned after a successful register or login.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// ForgotPasswordRequest is the body for POST /forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Profile is the public view of a user.
type Profile struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ErrorResponse is the error envelope for all users endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}
