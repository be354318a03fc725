package routes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/okapi-vault/okapi_vault/internal/config"
	"github.com/okapi-vault/okapi_vault/internal/events"
	"github.com/okapi-vault/okapi_vault/internal/ledger"
	"github.com/okapi-vault/okapi_vault/internal/middleware"
	"github.com/okapi-vault/okapi_vault/internal/rates"
	"github.com/okapi-vault/okapi_vault/internal/token"
	"github.com/okapi-vault/okapi_vault/internal/vault"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
	// Clock overrides the ledger clock; nil means wall time.
	Clock ledger.Clock
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	var ledgerBackend ledger.Ledger
	if d.DB != nil {
		pg := ledger.NewPostgresLedger(d.DB, d.Clock)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := pg.EnsureSchema(ctx, d.Cfg.InitialRate); err != nil {
			return err
		}
		ledgerBackend = pg
	} else {
		ledgerBackend = ledger.NewInMemory(d.Cfg.InitialRate, d.Clock)
	}

	var notifier events.Notifier
	if d.Cache != nil {
		notifier = events.NewRedisNotifier(d.Cache, "")
	} else {
		notifier = events.NewLoggerNotifier(d.Logger)
	}

	rateSvc := rates.NewService(ledgerBackend, notifier)
	tokenSvc := token.NewService(ledgerBackend, notifier)
	vaultSvc, err := vault.NewService(ledgerBackend, nil, notifier)
	if err != nil {
		return err
	}

	rateHandler := rates.NewHandler(rateSvc)
	tokenHandler := token.NewHandler(tokenSvc)
	vaultHandler := vault.NewHandler(vaultSvc)

	api := app.Group("/api/v1")

	RegisterRateRoutes(api, rateHandler, middleware.OperatorAuth(d.Cfg.OperatorTokenHash))
	RegisterTokenRoutes(api, tokenHandler)
	RegisterVaultRoutes(api, vaultHandler, middleware.WithdrawRateLimit(d.Cache, d.Cfg.WithdrawPerMin))

	return nil
}
