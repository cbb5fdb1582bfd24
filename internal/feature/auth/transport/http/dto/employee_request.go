package dto

import "crud_backend/internal/feature/auth/domain/entity"

// EmployeeReq is the body of POST /employees. A zero ID registers a new employee;
// an empty password keeps the current one.
type EmployeeReq struct {
	ID          uint                    `json:"id"`
	Login       string                  `json:"login" binding:"required,max=60"`
	Password    string                  `json:"password"`
	Name        string                  `json:"name" binding:"required,max=120"`
	Email       string                  `json:"email" binding:"omitempty,email"`
	CPF         string                  `json:"cpf" binding:"max=14"`
	Permissions []entity.PermissionCode `json:"permissions"`
}
