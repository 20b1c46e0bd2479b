// Package service is the authoritative backend: it owns dose numbering,
// injection due-state and weigh-in deltas, and persists through a
// storage.Provider. It satisfies api.Client so the tracker can run against it
// in-process as well as over HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prompt2production/needled-mobile-sub000/internal/api"
	apperrors "github.com/prompt2production/needled-mobile-sub000/internal/errors"
	"github.com/prompt2production/needled-mobile-sub000/internal/injection"
	"github.com/prompt2production/needled-mobile-sub000/internal/logger"
	"github.com/prompt2production/needled-mobile-sub000/internal/models"
	"github.com/prompt2production/needled-mobile-sub000/internal/storage"
	"github.com/prompt2production/needled-mobile-sub000/internal/utils"
	"github.com/prompt2production/needled-mobile-sub000/internal/validation"
)

type Service struct {
	store    storage.Provider
	defaults models.Settings
	now      func() time.Time
}

type Option func(*Service)

// WithDefaults sets the settings used for users with no stored settings.
func WithDefaults(settings models.Settings) Option {
	return func(s *Service) { s.defaults = settings }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(store storage.Provider, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ api.Client = (*Service)(nil)

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperrors.Validation("userId", "user id is required")
	}
	return nil
}

// Settings returns the stored settings for userID, falling back to the
// service defaults.
func (s *Service) Settings(ctx context.Context, userID string) (models.Settings, error) {
	if err := requireUser(userID); err != nil {
		return models.Settings{}, err
	}
	settings, err := s.store.GetSettings(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		settings = s.defaults
		settings.UserID = userID
		return settings, nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

func (s *Service) SaveSettings(ctx context.Context, settings models.Settings) error {
	if err := requireUser(settings.UserID); err != nil {
		return err
	}
	result := validation.New(models.LocalDate{}, settings.TrackGoldenDose).ValidateSettings(settings)
	if err := result.Err(); err != nil {
		return err
	}
	if _, _, err := injection.ConfigFor(settings); err != nil {
		return err
	}
	return s.store.SaveSettings(ctx, settings)
}

// userContext bundles what every request needs to know about a user.
type userContext struct {
	settings models.Settings
	cfg      injection.Config
	today    models.LocalDate
}

func (s *Service) user(ctx context.Context, userID string) (userContext, error) {
	settings, err := s.Settings(ctx, userID)
	if err != nil {
		return userContext{}, err
	}
	loc, err := utils.LoadLocation(settings.Timezone)
	if err != nil {
		return userContext{}, err
	}
	cfg, _, err := injection.ConfigFor(settings)
	if err != nil {
		return userContext{}, err
	}
	return userContext{
		settings: settings,
		cfg:      cfg,
		today:    utils.TodayIn(loc, s.now()),
	}, nil
}

func orToday(date models.LocalDate, today models.LocalDate) models.LocalDate {
	if date.IsZero() {
		return today
	}
	return date
}

func (s *Service) TodayHabits(ctx context.Context, userID string, date models.LocalDate) (models.HabitDay, error) {
	uc, err := s.user(ctx, userID)
	if err != nil {
		return models.HabitDay{}, err
	}
	return s.store.GetHabitDay(ctx, userID, orToday(date, uc.today))
}

func (s *Service) HabitRange(ctx context.Context, userID string, from, to models.LocalDate) ([]models.HabitDay, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if from.IsZero() || to.IsZero() {
		return nil, apperrors.Validation("startDate", "start and end dates are required")
	}
	if to.Before(from) {
		return nil, apperrors.Validation("endDate", "end date %s is before start date %s", to, from)
	}
	return s.store.GetHabitDays(ctx, userID, from, to)
}

func (s *Service) ToggleHabit(ctx context.Context, req api.ToggleHabitRequest) (models.HabitDay, error) {
	uc, err := s.user(ctx, req.UserID)
	if err != nil {
		return models.HabitDay{}, err
	}
	result := validation.New(uc.today, uc.cfg.TrackGoldenDose).ValidateToggle(req)
	if err := result.Err(); err != nil {
		return models.HabitDay{}, err
	}
	day := uc.today
	if req.Date != nil {
		day = orToday(*req.Date, uc.today)
	}
	return s.store.SetHabit(ctx, req.UserID, day, req.Habit, req.Value)
}

func (s *Service) InjectionStatus(ctx context.Context, userID string, today models.LocalDate) (models.InjectionStatus, error) {
	uc, err := s.user(ctx, userID)
	if err != nil {
		return models.InjectionStatus{}, err
	}
	history, err := s.store.GetInjections(ctx, userID, 0)
	if err != nil {
		return models.InjectionStatus{}, err
	}
	return injection.Compute(history, orToday(today, uc.today), uc.cfg), nil
}

func (s *Service) Injections(ctx context.Context, userID string, limit int) ([]models.Injection, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.store.GetInjections(ctx, userID, limit)
}

// LogInjection assigns the dose number from the stored history, so clients
// never decide it.
func (s *Service) LogInjection(ctx context.Context, req api.LogInjectionRequest) (models.Injection, error) {
	uc, err := s.user(ctx, req.UserID)
	if err != nil {
		return models.Injection{}, err
	}
	result := validation.New(uc.today, uc.cfg.TrackGoldenDose).ValidateInjection(req)
	if err := result.Err(); err != nil {
		return models.Injection{}, err
	}

	day := uc.today
	if req.Date != nil {
		day = orToday(*req.Date, uc.today)
	}
	history, err := s.store.GetInjections(ctx, req.UserID, 0)
	if err != nil {
		return models.Injection{}, err
	}
	status := injection.Compute(history, day, uc.cfg)

	dosage := req.DosageMg
	if dosage == nil {
		dosage = uc.settings.DosageMg
	}
	inj := models.Injection{
		ID:           uuid.NewString(),
		Date:         day,
		Site:         req.Site,
		DoseNumber:   injection.DoseNumberFor(status, req.IsGoldenDose, uc.cfg),
		DosageMg:     dosage,
		Notes:        req.Notes,
		IsGoldenDose: req.IsGoldenDose,
	}
	if err := s.store.AddInjection(ctx, req.UserID, inj); err != nil {
		return models.Injection{}, err
	}
	logger.Debug("Injection logged", "user", req.UserID, "date", inj.Date, "site", inj.Site, "dose", inj.DoseNumber)
	return inj, nil
}

func (s *Service) WeighIns(ctx context.Context, userID string, limit int) ([]models.WeighIn, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.store.GetWeighIns(ctx, userID, limit)
}

func (s *Service) LogWeighIn(ctx context.Context, req api.LogWeighInRequest) (models.WeighIn, error) {
	uc, err := s.user(ctx, req.UserID)
	if err != nil {
		return models.WeighIn{}, err
	}
	result := validation.New(uc.today, uc.cfg.TrackGoldenDose).ValidateWeighIn(req)
	if err := result.Err(); err != nil {
		return models.WeighIn{}, err
	}
	day := uc.today
	if req.Date != nil {
		day = orToday(*req.Date, uc.today)
	}
	w := models.WeighIn{ID: uuid.NewString(), Date: day, Weight: req.Weight}
	if err := s.store.AddWeighIn(ctx, req.UserID, w); err != nil {
		return models.WeighIn{}, err
	}
	return w, nil
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// LatestWeighIn reports the newest reading with its change since the
// previous reading and since the first one. A user may weigh in once per
// Monday-started week.
func (s *Service) LatestWeighIn(ctx context.Context, userID string, today models.LocalDate) (models.WeighInLatest, error) {
	uc, err := s.user(ctx, userID)
	if err != nil {
		return models.WeighInLatest{}, err
	}
	today = orToday(today, uc.today)

	recent, err := s.store.GetWeighIns(ctx, userID, 2)
	if err != nil {
		return models.WeighInLatest{}, err
	}
	if len(recent) == 0 {
		return models.WeighInLatest{CanWeighIn: true}, nil
	}

	latest := recent[0]
	out := models.WeighInLatest{WeighIn: &latest}
	if len(recent) > 1 {
		week := roundTenth(latest.Weight - recent[1].Weight)
		out.WeekChange = &week

		first, err := s.store.GetFirstWeighIn(ctx, userID)
		if err != nil {
			return models.WeighInLatest{}, err
		}
		total := roundTenth(latest.Weight - first.Weight)
		out.TotalChange = &total
	}
	out.HasWeighedThisWeek = !latest.Date.Before(today.StartOfWeek())
	out.CanWeighIn = !out.HasWeighedThisWeek
	return out, nil
}

func (s *Service) Month(ctx context.Context, userID string, year int, month time.Month) (models.MonthAggregate, error) {
	if err := requireUser(userID); err != nil {
		return models.MonthAggregate{}, err
	}
	if month < time.January || month > time.December {
		return models.MonthAggregate{}, apperrors.Validation("month", "month must be between 1 and 12")
	}
	from, to := models.MonthBounds(year, month)

	agg := models.MonthAggregate{Year: year, Month: month}
	var err error
	if agg.Habits, err = s.store.GetHabitDays(ctx, userID, from, to); err != nil {
		return models.MonthAggregate{}, err
	}
	if agg.WeighIns, err = s.store.GetWeighInsBetween(ctx, userID, from, to); err != nil {
		return models.MonthAggregate{}, err
	}
	if agg.Injections, err = s.store.GetInjectionsBetween(ctx, userID, from, to); err != nil {
		return models.MonthAggregate{}, err
	}
	return agg, nil
}
