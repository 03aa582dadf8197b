package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/etnz/forecast"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const createPlansTable = `
	CREATE TABLE IF NOT EXISTS forecast_plans (
		name       TEXT PRIMARY KEY,
		data       JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`

// PostgresStore stores plans in the forecast_plans table.
type PostgresStore struct {
	db  *sql.DB
	log *logrus.Logger
}

// NewPostgresStore connects to the database dsn and creates the plans table
// if needed.
func NewPostgresStore(ctx context.Context, dsn string, log *logrus.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &PostgresStore{db: db, log: log}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("connected to PostgreSQL")
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createPlansTable); err != nil {
		return fmt.Errorf("failed to create plans table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, name string) (*forecast.Plan, error) {
	var data string
	query := `SELECT data FROM forecast_plans WHERE name = $1`
	err := s.db.QueryRowContext(ctx, query, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find plan %q: %w", name, err)
	}
	return forecast.DecodePlan(strings.NewReader(data))
}

func (s *PostgresStore) Save(ctx context.Context, name string, p *forecast.Plan) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	data, err := p.MarshalJSON()
	if err != nil {
		return fmt.Errorf("could not encode plan %q: %w", name, err)
	}
	query := `
		INSERT INTO forecast_plans (name, data, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
	if _, err := s.db.ExecContext(ctx, query, name, string(data)); err != nil {
		return fmt.Errorf("failed to save plan %q: %w", name, err)
	}
	s.log.WithField("plan", name).Debug("plan saved")
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM forecast_plans WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete plan %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete plan %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM forecast_plans ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan plan name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close closes the database connection.
func (s *PostgresStore) Close(context.Context) error { return s.db.Close() }
