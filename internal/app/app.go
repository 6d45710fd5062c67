package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/rs/zerolog"

	"smartbin-backend/internal/config"
	"smartbin-backend/internal/dashboard"
	"smartbin-backend/internal/database"
	"smartbin-backend/internal/errors"
	"smartbin-backend/internal/handlers"
	"smartbin-backend/internal/ingest"
	"smartbin-backend/internal/livestore"
	"smartbin-backend/internal/middleware"
	"smartbin-backend/internal/reconcile"
	"smartbin-backend/internal/relay"
	"smartbin-backend/internal/services"
	"smartbin-backend/internal/simulator"
	"smartbin-backend/internal/vehicle"
	"smartbin-backend/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger}
}

// SimulateOptions configure the simulate command.
type SimulateOptions struct {
	// Bridge also runs the telemetry relay in-process.
	Bridge bool
}

// closers runs cleanup functions in reverse order.
type closers []func()

func (c *closers) add(fn func()) { *c = append(*c, fn) }

func (c closers) close() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func (a *App) openStore(ctx context.Context, cl *closers) (*database.Store, error) {
	cfg := a.Config.Database

	a.Logger.Info().Str("driver", cfg.Driver).Msg("🔌 connecting to database")
	db, err := database.Connect(ctx, cfg, a.Logger)
	if err != nil {
		a.Logger.Error().Err(err).Msg("❌ database connection failed")
		return nil, err
	}
	cl.add(func() { db.Close() })

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return nil, err
		}
		a.Logger.Info().Msg("✅ database migrations completed")
	}

	store := database.NewStore(db, cfg.QueryTimeout)
	if cfg.Seed {
		if err := a.seed(ctx, store); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// openLive connects the configured live store. The firebase app is returned
// for reuse by the push notifier and is nil for other backends.
func (a *App) openLive(ctx context.Context, cl *closers) (livestore.Store, *firebase.App, error) {
	cfg := a.Config.Live
	log := a.Logger.With().Str("backend", cfg.Backend).Logger()

	var (
		store livestore.Store
		fb    *firebase.App
	)
	switch cfg.Backend {
	case "firebase":
		app, err := services.NewFirebaseApp(ctx, cfg.Firebase)
		if err != nil {
			return nil, nil, err
		}
		client, err := app.Database(ctx)
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrConnection, fmt.Errorf("firebase database client: %w", err))
		}
		store, fb = livestore.NewFirebase(client), app

	case "redis":
		client, err := livestore.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		cl.add(func() { client.Close() })
		store = livestore.NewRedis(client, cfg.Redis.TTL)

	case "memory":
		log.Warn().Msg("⚠️ in-memory live store: readings are lost on restart")
		store = livestore.NewMemory()

	default:
		return nil, nil, errors.Newf(errors.ErrInvalidConfig, "live.backend %q is not supported", cfg.Backend)
	}

	log.Info().Dur("timeout", cfg.Timeout).Msg("✅ live store ready")
	return livestore.WithTimeout(store, cfg.Timeout), fb, nil
}

func (a *App) newRelay(ctx context.Context, store *database.Store, live livestore.Store, fb *firebase.App) *relay.Relay {
	r := relay.New(store, live, store, relay.Options{
		Interval:     a.Config.Relay.Interval,
		Workers:      a.Config.Relay.Workers,
		StartupDelay: a.Config.Relay.StartupDelay,
	}, a.Logger)

	if a.Config.Notify.Enabled {
		if fb == nil {
			a.Logger.Warn().Msg("⚠️ notify.enabled requires the firebase live backend, push notifications disabled")
			return r
		}
		client, err := fb.Messaging(ctx)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("⚠️ failed to initialize FCM, push notifications disabled")
			return r
		}
		r.AddSink(services.NewAlertNotifier(client, a.Config.Notify.Topic, a.Logger))
		a.Logger.Info().Str("topic", a.Config.Notify.Topic).Msg("✅ Firebase Cloud Messaging initialized")
	}
	return r
}

// startIngest subscribes to device readings when MQTT is enabled.
func (a *App) startIngest(ctx context.Context, live livestore.Store, relayer ingest.Relayer, cl *closers) error {
	if !a.Config.MQTT.Enabled {
		return nil
	}
	client, err := ingest.NewClient(a.Config.MQTT, "ingest", a.Logger)
	if err != nil {
		return err
	}
	cl.add(func() { client.Disconnect(250) })

	sub := ingest.NewSubscriber(client, a.Config.MQTT.TopicPrefix, a.Config.MQTT.QoS, live, relayer, a.Logger)
	return sub.Start(ctx)
}

// runLoop starts fn in the background and tracks it in wg.
func (a *App) runLoop(ctx context.Context, wg *sync.WaitGroup, name string, fn func(context.Context) error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := fn(ctx); err != nil && !stderrors.Is(err, context.Canceled) {
			a.Logger.Error().Err(err).Str("loop", name).Msg("background loop stopped")
		}
	}()
}

// Serve runs the HTTP API with the relay and device ingestion alongside.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a.Logger.Info().Str("app", a.Config.App.Name).Str("env", a.Config.App.Environment).Msg("🚀 smartbin backend starting")

	var cl closers
	defer cl.close()

	store, err := a.openStore(ctx, &cl)
	if err != nil {
		return err
	}
	live, fb, err := a.openLive(ctx, &cl)
	if err != nil {
		return err
	}
	route, err := vehicle.NewRoute(a.Config.Vehicle)
	if err != nil {
		return err
	}

	var auth *middleware.Authenticator
	if a.Config.Auth.Enabled {
		auth = middleware.NewAuthenticator(a.Config.Auth.JWTSecret, a.Config.Auth.TokenTTL, a.Logger)
	} else {
		a.Logger.Warn().Msg("⚠️ auth disabled: mutating routes are open")
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	hub := websocket.NewHub(a.Logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()
	a.Logger.Info().Msg("✅ WebSocket hub started")

	rel := a.newRelay(ctx, store, live, fb)
	rel.AddSink(hub)
	if a.Config.Relay.Enabled {
		a.runLoop(ctx, &wg, "relay", rel.Run)
	}
	if err := a.startIngest(ctx, live, rel, &cl); err != nil {
		cancel()
		return err
	}

	router := handlers.NewRouter(handlers.Deps{
		Store:          store,
		Dashboard:      dashboard.NewService(store, live, store, nil, a.Logger),
		Reconciler:     reconcile.NewService(store, a.Config.Reconcile.CollectorID, a.Logger),
		Route:          route,
		Hub:            hub,
		Auth:           auth,
		AllowedOrigins: a.Config.Server.AllowedOrigins,
		Logger:         a.Logger,
	})

	server := &http.Server{
		Addr:         ":" + a.Config.Server.Port,
		Handler:      router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}

	httpErr := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", server.Addr).Msg("🌐 http server listening")
		if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-httpErr:
		cancel()
		return errors.Wrap(errors.ErrConnection, fmt.Errorf("http server: %w", err))
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	a.Logger.Info().Msg("👋 smartbin backend stopped")
	return nil
}

// RunRelay runs only the telemetry relay and device ingestion.
func (a *App) RunRelay(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cl closers
	defer cl.close()

	store, err := a.openStore(ctx, &cl)
	if err != nil {
		return err
	}
	live, fb, err := a.openLive(ctx, &cl)
	if err != nil {
		return err
	}

	rel := a.newRelay(ctx, store, live, fb)
	if err := a.startIngest(ctx, live, rel, &cl); err != nil {
		return err
	}

	err = rel.Run(ctx)
	if err != nil && !stderrors.Is(err, context.Canceled) {
		return err
	}
	a.Logger.Info().Msg("telemetry relay stopped")
	return nil
}

// Simulate drives the device simulator, optionally bridging readings into
// the durable store in-process.
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cl closers
	defer cl.close()

	store, err := a.openStore(ctx, &cl)
	if err != nil {
		return err
	}
	live, fb, err := a.openLive(ctx, &cl)
	if err != nil {
		return err
	}

	var simOpts []simulator.Option
	if a.Config.MQTT.Enabled {
		client, err := ingest.NewClient(a.Config.MQTT, "simulator", a.Logger)
		if err != nil {
			return err
		}
		cl.add(func() { client.Disconnect(250) })
		simOpts = append(simOpts, simulator.WithPublisher(ingest.NewPublisher(client, a.Config.MQTT.TopicPrefix, a.Config.MQTT.QoS)))
	}
	sim := simulator.New(a.Config.Simulator, store, live, a.Logger, simOpts...)

	var wg sync.WaitGroup
	if opts.Bridge {
		a.runLoop(ctx, &wg, "relay", a.newRelay(ctx, store, live, fb).Run)
	}

	err = sim.Run(ctx)
	cancel()
	wg.Wait()
	if err != nil && !stderrors.Is(err, context.Canceled) {
		return err
	}
	a.Logger.Info().Msg("device simulator stopped")
	return nil
}

// Migrate applies the schema and exits.
func (a *App) Migrate(ctx context.Context) error {
	db, err := database.Connect(ctx, a.Config.Database, a.Logger)
	if err != nil {
		return err
	}
	defer db.Close()

	a.Logger.Info().Msg("🔄 running database migrations")
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	a.Logger.Info().Msg("✅ database migrations completed")
	return nil
}

// Seed loads the demo bins and the operator account.
func (a *App) Seed(ctx context.Context) error {
	db, err := database.Connect(ctx, a.Config.Database, a.Logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	return a.seed(ctx, database.NewStore(db, a.Config.Database.QueryTimeout))
}

func (a *App) seed(ctx context.Context, store *database.Store) error {
	a.Logger.Info().Msg("🌱 seeding database with initial data")
	bins, err := database.DefaultSeedBins(time.Now())
	if err != nil {
		return err
	}
	if err := database.SeedBins(ctx, store, bins, a.Logger); err != nil {
		return err
	}

	if a.Config.Auth.OperatorPassword == "" {
		a.Logger.Warn().Msg("⚠️ auth.operator_password not set, skipping operator account")
		return nil
	}
	return database.SeedOperator(ctx, store, a.Config.Auth.OperatorUsername, a.Config.Auth.OperatorPassword, a.Logger)
}
