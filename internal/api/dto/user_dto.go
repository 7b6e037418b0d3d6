package dto

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// UserResponse is the identity the mobile client stores locally.
type UserResponse struct {
	ID      string `json:"_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// MessageResponse carries a human-readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}
