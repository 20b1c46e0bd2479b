// Package api defines the transport collaborator the tracker talks to and a
// JSON-over-HTTP implementation of it.
package api

import (
	"context"
	"time"

	"github.com/prompt2production/needled-mobile-sub000/internal/models"
)

// Client is the request/response surface of the backend. Implementations
// normalize failures into the internal/errors taxonomy.
type Client interface {
	TodayHabits(ctx context.Context, userID string, date models.LocalDate) (models.HabitDay, error)
	HabitRange(ctx context.Context, userID string, from, to models.LocalDate) ([]models.HabitDay, error)
	ToggleHabit(ctx context.Context, req ToggleHabitRequest) (models.HabitDay, error)

	InjectionStatus(ctx context.Context, userID string, today models.LocalDate) (models.InjectionStatus, error)
	Injections(ctx context.Context, userID string, limit int) ([]models.Injection, error)
	LogInjection(ctx context.Context, req LogInjectionRequest) (models.Injection, error)

	LatestWeighIn(ctx context.Context, userID string, today models.LocalDate) (models.WeighInLatest, error)
	WeighIns(ctx context.Context, userID string, limit int) ([]models.WeighIn, error)
	LogWeighIn(ctx context.Context, req LogWeighInRequest) (models.WeighIn, error)

	Month(ctx context.Context, userID string, year int, month time.Month) (models.MonthAggregate, error)
}

// ToggleHabitRequest sets one habit on one day. Date defaults to the
// server's today when nil.
type ToggleHabitRequest struct {
	UserID string            `json:"userId"`
	Habit  models.Habit      `json:"habit"`
	Value  bool              `json:"value"`
	Date   *models.LocalDate `json:"date,omitempty"`
}

type LogInjectionRequest struct {
	UserID       string            `json:"userId"`
	Site         models.Site       `json:"site"`
	Notes        *string           `json:"notes,omitempty"`
	Date         *models.LocalDate `json:"date,omitempty"`
	DosageMg     *float64          `json:"dosageMg,omitempty"`
	IsGoldenDose bool              `json:"isGoldenDose,omitempty"`
}

type LogWeighInRequest struct {
	UserID string            `json:"userId"`
	Weight float64           `json:"weight"`
	Date   *models.LocalDate `json:"date,omitempty"`
}

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
