package dto

import "time"

// UserRegisterRequest payload for new participants.
type UserRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserProfileRequest payload for profile completion.
type UserProfileRequest struct {
	Gender  string `json:"gender"`
	Zipcode string `json:"zipcode"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
