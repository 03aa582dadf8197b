// Package store persists plans by name.
//
// Plans are always stored as the versioned JSON document written by
// forecast.EncodePlan, whatever the backend.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/etnz/forecast"
	"github.com/etnz/forecast/config"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when loading or deleting a plan that does not exist.
var ErrNotFound = errors.New("plan not found")

// Store loads and saves named plans.
type Store interface {
	Load(ctx context.Context, name string) (*forecast.Plan, error)
	Save(ctx context.Context, name string, p *forecast.Plan) error
	Delete(ctx context.Context, name string) error
	// List returns the names of all stored plans, sorted.
	List(ctx context.Context) ([]string, error)
	Close(ctx context.Context) error
}

// Open returns the store configured by cfg.
func Open(ctx context.Context, cfg config.StoreConfig, log *logrus.Logger) (Store, error) {
	switch cfg.Driver {
	case config.DriverFile, "":
		return NewFileStore(cfg.Path)
	case config.DriverMongo:
		return NewMongoStore(ctx, cfg.URI, cfg.Database, cfg.Collection, log)
	case config.DriverPostgres:
		return NewPostgresStore(ctx, cfg.DSN, log)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// LoadOrDefault loads the plan name, or returns the default plan in currency
// if it does not exist yet.
func LoadOrDefault(ctx context.Context, s Store, name, currency string) (*forecast.Plan, error) {
	p, err := s.Load(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return forecast.DefaultPlanIn(currency), nil
	}
	return p, err
}

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// ValidateName checks that name can be used as a plan name in every store.
func ValidateName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid plan name %q: use letters, digits, '.', '_' or '-'", name)
	}
	return nil
}
