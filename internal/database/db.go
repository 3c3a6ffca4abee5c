package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/pressly/goose/v3"

	"wakie/go-backend/internal/models"
	"wakie/go-backend/pkg/log"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNoPreference is returned when a profile has no stored threshold yet.
var ErrNoPreference = errors.New("no stored threshold preference")

// Open connects to Postgres and applies pending migrations.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	log.Info(nil, "[database.Open] Postgres ready")
	return db, nil
}

func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(log.L())

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

const (
	queryLoadEarThreshold = `SELECT profile, ear_threshold, updated_at
		FROM threshold_preferences WHERE profile = $1`

	querySaveEarThreshold = `INSERT INTO threshold_preferences (profile, ear_threshold, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (profile) DO UPDATE
		SET ear_threshold = EXCLUDED.ear_threshold, updated_at = EXCLUDED.updated_at`
)

// ThresholdStore keeps the EAR threshold an operator last chose, keyed by
// profile. Nothing about detected states is written here.
type ThresholdStore struct {
	db *sql.DB
}

func NewThresholdStore(db *sql.DB) *ThresholdStore {
	return &ThresholdStore{db: db}
}

func (s *ThresholdStore) LoadEarThreshold(ctx context.Context, profile string) (models.ThresholdPreference, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var pref models.ThresholdPreference
	err := s.db.QueryRowContext(ctx, queryLoadEarThreshold, profile).
		Scan(&pref.Profile, &pref.EarThreshold, &pref.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ThresholdPreference{}, ErrNoPreference
	}
	if err != nil {
		return models.ThresholdPreference{}, fmt.Errorf("load threshold for %q: %w", profile, err)
	}
	return pref, nil
}

func (s *ThresholdStore) SaveEarThreshold(ctx context.Context, profile string, value float64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, querySaveEarThreshold, profile, value); err != nil {
		log.Error(log.Fields{"profile": profile, "error": err.Error()},
			"[database.ThresholdStore] failed to save threshold")
		return fmt.Errorf("save threshold for %q: %w", profile, err)
	}
	return nil
}

func (s *ThresholdStore) Close() error {
	return s.db.Close()
}
