package di

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	authentity "crud_backend/internal/feature/auth/domain/entity"
	locentity "crud_backend/internal/feature/location/domain/entity"
	msgentity "crud_backend/internal/feature/messages/domain/entity"
	jwtmw "crud_backend/internal/platform/jwt"
	"crud_backend/internal/platform/report"
	"crud_backend/internal/platform/search"
	"crud_backend/internal/platform/viewscope"
	"crud_backend/internal/shared/crudview"
)

// Screens are the registration screens mounted by the router.
type Screens struct {
	Users    *crudview.Handler[authentity.User]
	States   *crudview.Handler[locentity.State]
	Cities   *crudview.Handler[locentity.City]
	Messages *crudview.Handler[msgentity.Message]
}

// LocationValidator normalizes states and cities before they are stored.
type LocationValidator interface {
	ValidateState(ctx context.Context, s *locentity.State) error
	ValidateCity(ctx context.Context, c *locentity.City) error
}

// ScreenDeps are the repositories and services behind the screens.
type ScreenDeps struct {
	Users    crudview.Repository[authentity.User]
	States   crudview.Repository[locentity.State]
	Cities   crudview.Repository[locentity.City]
	Messages crudview.Repository[msgentity.Message]

	Locations LocationValidator
	// StatesChanged runs after every state write, e.g. to drop cached options.
	StatesChanged func(ctx context.Context)

	Reports *report.Generator
	Scope   *viewscope.Scope
}

// NewScreens builds the screens. Views are owned by the authenticated user.
func NewScreens(d ScreenDeps) Screens {
	owner := jwtmw.Owner
	return Screens{
		Users: crudview.NewHandler(d.Users, d.Reports, d.Scope, owner, crudview.Config[authentity.User]{
			Name:        "employees",
			SoftDelete:  true,
			AllowDelete: true,
			Extra: func(*gin.Context) search.Condition {
				return search.Where("inactive = ?", false)
			},
			Report: &crudview.Report[authentity.User]{
				Template: report.Template{Name: "funcionarios", Title: "Employees", Columns: []string{"Code", "Login", "Name", "E-mail", "CPF"}},
				Row: func(u authentity.User) []string {
					return []string{id(u.ID), u.Login, u.Name, u.Email, u.CPF}
				},
			},
		}),
		States: crudview.NewHandler(d.States, d.Reports, d.Scope, owner, crudview.Config[locentity.State]{
			Name:        "states",
			AllowWrite:  true,
			AllowDelete: true,
			Validate:    d.Locations.ValidateState,
			AfterWrite:  d.StatesChanged,
			Report: &crudview.Report[locentity.State]{
				Template: report.Template{Name: "estados", Title: "States", Columns: []string{"Code", "Name", "Abbreviation"}},
				Row: func(s locentity.State) []string {
					return []string{id(s.ID), s.Name, s.Code}
				},
			},
		}),
		Cities: crudview.NewHandler(d.Cities, d.Reports, d.Scope, owner, crudview.Config[locentity.City]{
			Name:        "cities",
			AllowWrite:  true,
			AllowDelete: true,
			Validate:    d.Locations.ValidateCity,
			Report: &crudview.Report[locentity.City]{
				Template: report.Template{Name: "cidades", Title: "Cities", Columns: []string{"Code", "Name", "IBGE", "State"}},
				Row: func(c locentity.City) []string {
					return []string{id(c.ID), c.Name, c.Code, id(c.StateID)}
				},
			},
		}),
		Messages: crudview.NewHandler(d.Messages, d.Reports, d.Scope, owner, crudview.Config[msgentity.Message]{
			Name:  "messages",
			Extra: recipientIsCurrentUser,
			Report: &crudview.Report[msgentity.Message]{
				Template: report.Template{Name: "mensagens", Title: "Messages", Columns: []string{"Code", "Sent at", "From", "Subject", "Read"}},
				Row: func(m msgentity.Message) []string {
					read := "no"
					if m.Read {
						read = "yes"
					}
					return []string{id(m.ID), m.SentAt.Format(time.DateTime), id(m.SenderID), m.Subject, read}
				},
			},
		}),
	}
}

// recipientIsCurrentUser limits message screens to the caller's inbox.
func recipientIsCurrentUser(c *gin.Context) search.Condition {
	uid, _ := jwtmw.UserID(c)
	return search.Where("usr_destino = ?", uid)
}

func id(n uint) string {
	return strconv.FormatUint(uint64(n), 10)
}
