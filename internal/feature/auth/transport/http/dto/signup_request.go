package dto

// SignupReq represents the request body for the /signup endpoint.
type SignupReq struct {
	Login    string `json:"login" binding:"required,max=60"`
	Password string `json:"password" binding:"required,min=4"`
	Name     string `json:"name" binding:"max=120"`
	Email    string `json:"email" binding:"omitempty,email"`
}
