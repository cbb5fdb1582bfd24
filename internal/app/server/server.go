// Package server assembles the application from its configuration and connections.
package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"crud_backend/internal/app/config"
	"crud_backend/internal/app/di"
	"crud_backend/internal/app/router"
	authadapters "crud_backend/internal/feature/auth/adapters"
	authentity "crud_backend/internal/feature/auth/domain/entity"
	authhandler "crud_backend/internal/feature/auth/transport/handler"
	authusecase "crud_backend/internal/feature/auth/usecase"
	locationadapters "crud_backend/internal/feature/location/adapters"
	locentity "crud_backend/internal/feature/location/domain/entity"
	locationhandler "crud_backend/internal/feature/location/transport/handler"
	locationusecase "crud_backend/internal/feature/location/usecase"
	messagesadapters "crud_backend/internal/feature/messages/adapters"
	msgentity "crud_backend/internal/feature/messages/domain/entity"
	messageshandler "crud_backend/internal/feature/messages/transport/handler"
	messagesusecase "crud_backend/internal/feature/messages/usecase"
	"crud_backend/internal/platform/cache"
	platformhandler "crud_backend/internal/platform/http/handler"
	jwtmw "crud_backend/internal/platform/jwt"
	"crud_backend/internal/platform/persistence"
	"crud_backend/internal/platform/report"
	"crud_backend/internal/platform/session"
	"crud_backend/internal/platform/viewscope"
	"crud_backend/internal/shared/ratelimiter"
)

// Models lists every table the application migrates.
func Models() []any {
	return []any{
		&authentity.User{},
		&authentity.Permission{},
		&authadapters.SessionModel{},
		&persistence.Revision{},
		&locentity.State{},
		&locentity.City{},
		&msgentity.Message{},
	}
}

// Server is the assembled application.
type Server struct {
	Router *gin.Engine

	scope    *viewscope.Scope
	sessions authusecase.SessionRepository
	limiter  *ratelimiter.RateLimiter
	cfg      config.Config
}

// New wires every component. rdb and archive may be nil.
func New(cfg config.Config, db *gorm.DB, rdb redis.Cmdable, archive report.Archive) (*Server, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	checks := map[string]platformhandler.Pinger{"database": sqlDB}
	if rdb != nil {
		checks["redis"] = platformhandler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	// auth
	users := authadapters.NewUserMySQL(db)
	sessions := di.NewSessionRepository(rdb, db)
	registry := session.NewRegistry()
	authUC := authusecase.NewAuthUsecase(users, sessions, jwtmw.NewGenerator(cfg.JWTSecret, cfg.JWTTTL), registry, authusecase.Options{
		SessionTTL:    cfg.SessionTTL,
		SingleSession: cfg.SingleSession,
	})
	employeeUC := authusecase.NewEmployeeUsecase(users)
	userGateway := authadapters.NewUserGateway(db)

	// location
	states := locationadapters.NewStateGorm(db)
	cities := locationadapters.NewCityGorm(db)
	stateOptions := cache.NewCachingStateRepository(rdb, cfg.StateCacheTTL, states, "states")
	locationUC := locationusecase.NewLocationUsecase(states, stateOptions, cities)

	// messages
	messages := messagesadapters.NewMessageGorm(db)
	messageUC := messagesusecase.NewMessageUsecase(messages, userGateway)

	scope := viewscope.New()
	limiter := ratelimiter.NewRateLimiter(cfg.LoginRateLimit, time.Minute)

	r := router.NewRouter(router.Deps{
		DB:        db,
		Health:    platformhandler.NewHealthHandler(checks),
		Auth:      authhandler.NewAuthHandler(authUC),
		Employees: authhandler.NewEmployeeHandler(employeeUC),
		Sessions:  authUC,
		Locations: locationhandler.NewLocationHandler(locationUC),
		Messages:  messageshandler.NewMessageHandler(messageUC),
		Views:     viewscope.NewHandler(scope, jwtmw.Owner),
		Screens: di.NewScreens(di.ScreenDeps{
			Users:         userGateway,
			States:        states,
			Cities:        cities,
			Messages:      messages,
			Locations:     locationUC,
			StatesChanged: stateOptions.Invalidate,
			Reports:       report.NewGenerator(archive),
			Scope:         scope,
		}),
		LoginLimiter: limiter,
		CORSOrigins:  cfg.CORSOrigins,
	})

	return &Server{Router: r, scope: scope, sessions: sessions, limiter: limiter, cfg: cfg}, nil
}

// RunJanitors expires idle views, expired sessions and stale rate limit
// windows until ctx is done.
func (s *Server) RunJanitors(ctx context.Context) {
	go s.scope.Run(ctx, time.Minute, s.cfg.ViewIdleTimeout)

	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.sessions.DeleteExpired(ctx)
			if err != nil {
				slog.Warn("failed to delete expired sessions", "error", err)
			} else if n > 0 {
				slog.Info("deleted expired sessions", "count", n)
			}
			s.limiter.Prune()
		}
	}
}
