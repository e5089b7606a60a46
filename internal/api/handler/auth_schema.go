package handler

// --- Request / Response types ---

type initiateSignInRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Dashboard bool   `json:"dashboard"`
}

type completeSignInRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Code      string `json:"code" validate:"required,len=6,numeric"`
	Dashboard bool   `json:"dashboard"`
}

type initiateEmailUpdateRequest struct {
	NewEmail string `json:"new_email" validate:"required,email"`
}

type completeEmailUpdateRequest struct {
	NewEmail string `json:"new_email" validate:"required,email"`
	Code     string `json:"code" validate:"required,len=6,numeric"`
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user editor admin"`
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	IsAnonymous bool   `json:"is_anonymous"`
	Role        string `json:"role"`
	Tier        string `json:"tier"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}
