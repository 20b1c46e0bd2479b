package storage

import (
	"context"
	"errors"

	"github.com/prompt2production/needled-mobile-sub000/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Provider is the authoritative persistence used by the reference backend.
// Dates are local calendar days; the store never converts them.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings(ctx context.Context, userID string) (models.Settings, error)
	SaveSettings(ctx context.Context, settings models.Settings) error

	// Habit days. A day with no row reads back as all habits false.
	GetHabitDay(ctx context.Context, userID string, day models.LocalDate) (models.HabitDay, error)
	// GetHabitDays returns stored days in [from, to], oldest first.
	GetHabitDays(ctx context.Context, userID string, from, to models.LocalDate) ([]models.HabitDay, error)
	SetHabit(ctx context.Context, userID string, day models.LocalDate, habit models.Habit, value bool) (models.HabitDay, error)

	// Injections, newest first. A limit <= 0 returns every row.
	AddInjection(ctx context.Context, userID string, inj models.Injection) error
	GetInjections(ctx context.Context, userID string, limit int) ([]models.Injection, error)
	GetInjectionsBetween(ctx context.Context, userID string, from, to models.LocalDate) ([]models.Injection, error)

	// Weigh-ins, newest first. A limit <= 0 returns every row.
	AddWeighIn(ctx context.Context, userID string, w models.WeighIn) error
	GetWeighIns(ctx context.Context, userID string, limit int) ([]models.WeighIn, error)
	GetWeighInsBetween(ctx context.Context, userID string, from, to models.LocalDate) ([]models.WeighIn, error)
	GetFirstWeighIn(ctx context.Context, userID string) (models.WeighIn, error)

	// Utils
	GetConfigPath() string
}

// Migratable is implemented by stores with a versioned schema.
type Migratable interface {
	// Migrate applies pending migrations and reports how many ran.
	Migrate(logFn func(string)) (int, error)
	SchemaVersion() (current, latest int, err error)
}
