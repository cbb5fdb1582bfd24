package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"crud_backend/internal/feature/auth/domain/entity"
	"crud_backend/internal/feature/auth/transport/http/dto"
	"crud_backend/internal/feature/auth/usecase"
	jwtmw "crud_backend/internal/platform/jwt"
)

// EmployeeUsecase stores employees.
type EmployeeUsecase interface {
	Save(ctx context.Context, in usecase.EmployeeInput) (*entity.User, error)
}

// EmployeeHandler handles employee registration.
type EmployeeHandler struct {
	employees EmployeeUsecase
}

// NewEmployeeHandler creates an EmployeeHandler.
func NewEmployeeHandler(employees EmployeeUsecase) *EmployeeHandler {
	return &EmployeeHandler{employees: employees}
}

// Save handles POST /employees. It answers 201 for a new employee and 200 for an update.
func (h *EmployeeHandler) Save(c *gin.Context) {
	var req dto.EmployeeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.employees.Save(c.Request.Context(), usecase.EmployeeInput{
		ID:          req.ID,
		Login:       req.Login,
		Password:    req.Password,
		Name:        req.Name,
		Email:       req.Email,
		CPF:         req.CPF,
		Permissions: req.Permissions,
	})
	if err != nil {
		respond(c, err)
		return
	}
	slog.Info("employee saved", "id", user.ID, "login", user.Login, "by", jwtmw.Login(c))

	status := http.StatusOK
	if req.ID == 0 {
		status = http.StatusCreated
	}
	c.JSON(status, user)
}
