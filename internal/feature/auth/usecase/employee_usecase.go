package usecase

import (
	"context"
	"errors"
	"strings"

	"crud_backend/internal/feature/auth/domain/entity"
	"crud_backend/internal/shared/validation"
)

// EmployeeInput is the editable state of an employee. A zero ID creates one.
type EmployeeInput struct {
	ID          uint
	Login       string
	Password    string
	Name        string
	Email       string
	CPF         string
	Permissions []entity.PermissionCode
}

// employeeUsecase maintains users registered by an administrator.
type employeeUsecase struct {
	users UserRepository
}

// NewEmployeeUsecase creates an employeeUsecase.
func NewEmployeeUsecase(users UserRepository) *employeeUsecase {
	return &employeeUsecase{users: users}
}

// Save creates or updates an employee. Every employee keeps the USER
// permission and no two employees share a CPF.
func (u *employeeUsecase) Save(ctx context.Context, in EmployeeInput) (*entity.User, error) {
	in.Login = strings.TrimSpace(in.Login)
	in.Name = strings.TrimSpace(in.Name)
	in.CPF = strings.TrimSpace(in.CPF)
	if in.Login == "" {
		return nil, validation.Field("login", "login is required")
	}
	if in.Name == "" {
		return nil, validation.Field("name", "name is required")
	}

	if in.CPF != "" {
		other, err := u.users.FindByCPF(ctx, in.CPF)
		switch {
		case err == nil && other.ID != in.ID:
			return nil, validation.Field("cpf", "CPF already registered for "+other.Login)
		case err != nil && !errors.Is(err, ErrUserNotFound):
			return nil, err
		}
	}

	user := &entity.User{}
	if in.ID != 0 {
		existing, err := u.users.FindByID(ctx, in.ID)
		if err != nil {
			return nil, err
		}
		user = existing
	}

	switch {
	case in.Password != "":
		if err := validatePassword(in.Password); err != nil {
			return nil, err
		}
		hashed, err := hashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	case user.ID == 0:
		return nil, validation.Field("password", "password is required")
	}

	user.Login = in.Login
	user.Name = in.Name
	user.Email = strings.TrimSpace(in.Email)
	user.CPF = in.CPF
	user.Permissions = nil
	for _, code := range in.Permissions {
		if !code.Valid() {
			return nil, validation.Field("permissions", "unknown permission "+string(code))
		}
		user.Grant(code)
	}
	user.Grant(entity.PermissionUser)

	return u.users.Save(ctx, user)
}
