// Command ingest loads states and cities from the IBGE localities API.
//
//	ingest            import every state
//	ingest PR SC      import only the listed states
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"crud_backend/internal/app/config"
	"crud_backend/internal/app/server"
	locationadapters "crud_backend/internal/feature/location/adapters"
	"crud_backend/internal/feature/location/usecase"
	"crud_backend/internal/platform/db"
	"crud_backend/internal/platform/externalapi/ibge"
	platformhttp "crud_backend/internal/platform/http"
	"crud_backend/internal/shared/ratelimiter"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(config.NewLogger(cfg, os.Stdout))

	gdb, err := db.OpenDB(db.LoadConfigFromEnv(), server.Models()...)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}

	icfg := ibge.LoadConfig()
	source := ibge.NewClient(icfg, platformhttp.NewHTTPClient(icfg.Timeout))
	// the public API tolerates a few calls per second
	throttle := ratelimiter.NewRateLimiter(5, time.Second)
	uc := usecase.NewImportUsecase(source, locationadapters.NewStateGorm(gdb), locationadapters.NewCityGorm(gdb), throttle)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	res, err := uc.ImportAll(ctx, os.Args[1:])
	if err != nil {
		slog.Error("import failed", "error", err)
		os.Exit(1)
	}
	slog.Info("import ok", "states", res.States, "cities", res.Cities, "failed", res.Failed)
}
