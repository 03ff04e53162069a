package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/avelaine/storefront/internal/api"
	"github.com/avelaine/storefront/internal/domain/cart"
	"github.com/avelaine/storefront/internal/domain/catalog"
	"github.com/avelaine/storefront/internal/domain/promo"
	"github.com/avelaine/storefront/internal/kvstore"
	"github.com/avelaine/storefront/internal/seed"
	"github.com/avelaine/storefront/internal/storage/kvcatalog"
	"github.com/avelaine/storefront/internal/storage/postgres"
	"github.com/avelaine/storefront/internal/view"
	"github.com/avelaine/storefront/pkg/health"
	"github.com/avelaine/storefront/pkg/httpmiddleware"
)

const sessionSweepInterval = 5 * time.Minute

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("backend", cfg.Storage.Backend))

	healthSvc := health.New()

	store, pool, err := buildStore(ctx, cfg, healthSvc)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	promos, err := buildPromos(ctx, lg, cfg)
	if err != nil {
		return err
	}

	seedSrc := buildSeedSource(cfg)

	// Each session gets its own repository view and cart over the shared
	// store, mirroring one browser tab per session.
	sessions := api.NewSessionManager(func(confirm view.Confirmer, notify view.Notifier) *view.Controller {
		repo := catalog.NewRepository(store, seedSrc, lg.Named("catalog"))
		return view.NewController(repo, cart.NewLedger(), promos, confirm, notify, lg.Named("view"))
	})
	sessions.Sweep(ctx, sessionSweepInterval)

	h := api.NewHandler(sessions)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	healthSvc.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// buildStore constructs the configured catalog store. The returned pool is
// nil for non-postgres backends.
func buildStore(ctx context.Context, cfg *Config, healthSvc *health.Service) (catalog.Store, *pgxpool.Pool, error) {
	switch cfg.Storage.Backend {
	case BackendMemory:
		return kvcatalog.New(kvstore.NewMemory()), nil, nil

	case BackendFile:
		kv, err := kvstore.NewFile(cfg.Storage.Dir, cfg.Storage.Compress)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open file store")
		}
		return kvcatalog.New(kv), nil, nil

	case BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, errors.Wrap(err, "run migrations")
		}
		healthSvc.AddCheck("postgres", 5*time.Second, func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
		return postgres.NewStore(pool), pool, nil

	default:
		return nil, nil, errors.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// buildPromos loads the configured promo code files. With no files
// configured, only the named promotions are active.
func buildPromos(ctx context.Context, lg *zap.Logger, cfg *Config) (*promo.CodeSet, error) {
	if len(cfg.Promo.Files) == 0 {
		return promo.NewCodeSet(nil), nil
	}
	promos, err := promo.Load(ctx, cfg.Promo.Files...)
	if err != nil {
		return nil, errors.Wrap(err, "load promo codes")
	}
	lg.Info("Promo codes loaded",
		zap.Int("count", promos.Len()),
		zap.Strings("files", cfg.Promo.Files))
	return promos, nil
}

func buildSeedSource(cfg *Config) catalog.SeedSource {
	switch {
	case cfg.Seed.URL != "":
		return seed.NewHTTP(cfg.Seed.URL)
	case cfg.Seed.File != "":
		return seed.NewFile(cfg.Seed.File)
	default:
		return seed.Empty{}
	}
}
