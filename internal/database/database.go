package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"smartbin-backend/internal/config"
	"smartbin-backend/internal/errors"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know about.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Connect opens and pings the durable store described by cfg.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*sqlx.DB, error) {
	log := logger.With().Str("component", "database").Str("driver", cfg.Driver).Logger()

	log.Info().
		Int("dsn_length", len(cfg.DSN)).
		Str("dsn_prefix", redact(cfg.DSN)).
		Msg("🔌 database connection attempt")

	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("❌ database open failed")
		return nil, errors.Wrap(errors.ErrConnection, fmt.Errorf("failed to open database: %w", err))
	}

	configurePool(db, cfg)

	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Error().Err(err).Str("error_type", fmt.Sprintf("%T", err)).Msg("❌ database ping failed")
		db.Close()
		return nil, errors.Wrap(errors.ErrConnection, fmt.Errorf("failed to ping database: %w", err))
	}

	log.Info().Msg("✅ database connection established")
	return db, nil
}

func configurePool(db *sqlx.DB, cfg config.DatabaseConfig) {
	if cfg.Driver == "sqlite" {
		// A single connection keeps an in-memory database alive and
		// serialises writers the way SQLite expects.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		return
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

func redact(dsn string) string {
	if i := strings.Index(dsn, "@"); i >= 0 {
		if j := strings.Index(dsn, "://"); j >= 0 && j < i {
			return dsn[:j+3] + "***" + dsn[i:min(len(dsn), i+30)]
		}
	}
	return dsn[:min(20, len(dsn))]
}

// Migrate creates the smart-bin tables and indexes when they are missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	serial := "BIGSERIAL PRIMARY KEY"
	if db.DriverName() == "sqlite" {
		serial = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	migrations := []string{
		// Registry of physical bins
		`CREATE TABLE IF NOT EXISTS dustbins (
			bin_id TEXT PRIMARY KEY,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			supervisor_name TEXT NOT NULL,
			location_name TEXT NOT NULL DEFAULT 'N/A',
			bin_type TEXT NOT NULL DEFAULT 'General',
			max_capacity_cm DOUBLE PRECISION NOT NULL CHECK (max_capacity_cm > 0),
			installation_date BIGINT NOT NULL,
			created_at BIGINT NOT NULL
		)`,

		// Append-only telemetry history, one row per bin per relay cycle
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS telemetry (
			id %s,
			bin_id TEXT NOT NULL,
			timestamp BIGINT NOT NULL,
			fill_level_cm DOUBLE PRECISION NOT NULL,
			fill_percentage INT NOT NULL CHECK (fill_percentage BETWEEN 0 AND 100),
			is_lid_locked BOOLEAN NOT NULL,
			alert_triggered BOOLEAN NOT NULL,
			delay_minutes INT NOT NULL DEFAULT 0,
			FOREIGN KEY (bin_id) REFERENCES dustbins(bin_id)
		)`, serial),

		// Append-only collection log
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS collection_log (
			seq %s,
			id TEXT NOT NULL UNIQUE,
			bin_id TEXT NOT NULL,
			collection_time BIGINT NOT NULL,
			alert_time BIGINT,
			time_to_collect_min INT NOT NULL,
			is_on_time BOOLEAN NOT NULL,
			reward_issued BOOLEAN NOT NULL,
			collector_id TEXT NOT NULL,
			FOREIGN KEY (bin_id) REFERENCES dustbins(bin_id)
		)`, serial),

		// Dashboard operators
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			name TEXT NOT NULL,
			role TEXT NOT NULL CHECK (role IN ('operator', 'admin')),
			created_at BIGINT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_telemetry_bin_timestamp ON telemetry(bin_id, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_telemetry_bin_fill ON telemetry(bin_id, fill_percentage)`,
		`CREATE INDEX IF NOT EXISTS idx_collection_log_bin_time ON collection_log(bin_id, collection_time)`,
		`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
	}

	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(errors.ErrQueryFailed, fmt.Errorf("migration %d failed: %w", i+1, err))
		}
	}
	return nil
}
