// Package router mounts every HTTP route of the service.
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"crud_backend/internal/app/di"
	"crud_backend/internal/feature/auth/domain/entity"
	authhandler "crud_backend/internal/feature/auth/transport/handler"
	locationhandler "crud_backend/internal/feature/location/transport/handler"
	messageshandler "crud_backend/internal/feature/messages/transport/handler"
	platformhandler "crud_backend/internal/platform/http/handler"
	"crud_backend/internal/platform/http/httperr"
	jwtmw "crud_backend/internal/platform/jwt"
	"crud_backend/internal/platform/persistence"
	"crud_backend/internal/platform/viewscope"
	"crud_backend/internal/shared/ratelimiter"
)

// AuthService is what the router needs from the auth usecase besides the handlers.
type AuthService interface {
	authhandler.SessionValidator
	authhandler.UserLoader
}

// Deps are the components the routes are served by.
type Deps struct {
	DB        *gorm.DB
	Health    *platformhandler.HealthHandler
	Auth      *authhandler.AuthHandler
	Employees *authhandler.EmployeeHandler
	Sessions  AuthService
	Locations *locationhandler.LocationHandler
	Messages  *messageshandler.MessageHandler
	Views     *viewscope.Handler
	Screens   di.Screens
	// LoginLimiter throttles the credential endpoints per client IP; nil disables it.
	LoginLimiter ratelimiter.Limiter
	CORSOrigins  []string
}

// NewRouter returns the engine with every route mounted.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", viewscope.HeaderViewID},
			ExposeHeaders:    []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", d.Health.Health)
	r.HEAD("/healthz", d.Health.Health)
	r.OPTIONS("/healthz", d.Health.Health)

	throttle := func(c *gin.Context) { c.Next() }
	if d.LoginLimiter != nil {
		throttle = ratelimiter.Middleware(d.LoginLimiter)
	}

	public := r.Group("/", persistence.UnitOfWork(d.DB, nil, httperr.Respond))
	{
		public.POST("/signup", d.Auth.Signup)
		public.POST("/login", throttle, d.Auth.Login)
		public.POST(authhandler.InvalidatePath, throttle, d.Auth.InvalidateWithCredentials)
	}

	auth := r.Group("/",
		jwtmw.AuthRequired(),
		authhandler.RequireActiveSession(d.Sessions),
		persistence.UnitOfWork(d.DB, jwtmw.UserID, httperr.Respond),
	)
	{
		auth.POST("/invalidar_session", d.Auth.InvalidateOwn)
		auth.POST("/logout", d.Auth.Logout)
		auth.GET("/me", d.Auth.Me)
		auth.GET("/users/lookup", d.Auth.Lookup)
		auth.GET("/permissions", d.Auth.Permissions)

		auth.POST("/views", d.Views.Open)
		auth.DELETE("/views/:id", d.Views.Close)

		admin := auth.Group("/admin", authhandler.RequirePermission(d.Sessions, entity.PermissionAdmin))
		admin.GET("/sessions", d.Auth.Sessions)
		admin.POST("/users/:login/invalidar_session", d.Auth.InvalidateUser)

		registry := authhandler.RequirePermission(d.Sessions, entity.PermissionAdmin, entity.PermissionRegistry)

		employees := auth.Group("/employees", registry)
		employees.POST("", d.Employees.Save)
		d.Screens.Users.Register(employees)

		states := auth.Group("/states")
		states.GET("/options", d.Locations.StateOptions)
		states.GET("/:id/cities", d.Locations.Cities)
		d.Screens.States.Register(states.Group("", registry))

		d.Screens.Cities.Register(auth.Group("/cities", registry))

		messages := auth.Group("/messages")
		messages.POST("", d.Messages.Send)
		messages.GET("/inbox", d.Messages.Inbox)
		messages.GET("/unread_count", d.Messages.UnreadCount)
		messages.POST("/:id/read", d.Messages.MarkRead)
		d.Screens.Messages.Register(messages)
	}

	return r
}
