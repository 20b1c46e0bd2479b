package tracker

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/prompt2production/needled-mobile-sub000/internal/cache"
	"github.com/prompt2production/needled-mobile-sub000/internal/constants"
	"github.com/prompt2production/needled-mobile-sub000/internal/models"
	"github.com/prompt2production/needled-mobile-sub000/internal/streak"
)

// maxScanMonths bounds the unbounded streak scan.
const maxScanMonths = 120

// query reads key through the cache. On a failed read the previously cached
// value, if any, is returned alongside the error.
func query[T any](ctx context.Context, t *Tracker, key cache.Key, load func(ctx context.Context) (T, error)) (T, error) {
	entry, err := t.store.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
	v, _ := cache.Value[T](entry)
	return v, err
}

// Day returns the habit record for date. Days with no record come back with
// every habit false.
func (t *Tracker) Day(ctx context.Context, date models.LocalDate) (models.HabitDay, error) {
	user := t.settings.UserID
	day, err := query(ctx, t, cache.TodayKey(user, date), func(ctx context.Context) (models.HabitDay, error) {
		return t.client.TodayHabits(ctx, user, date)
	})
	if day.Date.IsZero() {
		day.Date = date
	}
	return day, err
}

func (t *Tracker) TodayHabits(ctx context.Context) (models.HabitDay, error) {
	return t.Day(ctx, t.Today())
}

// HabitRange returns the records in [from, to] ordered by date.
func (t *Tracker) HabitRange(ctx context.Context, from, to models.LocalDate) ([]models.HabitDay, error) {
	user := t.settings.UserID
	return query(ctx, t, cache.RangeKey(user, from, to), func(ctx context.Context) ([]models.HabitDay, error) {
		days, err := t.client.HabitRange(ctx, user, from, to)
		if err != nil {
			return nil, err
		}
		sortHabitDays(days)
		return days, nil
	})
}

// WeekHabits returns the seven days ending today.
func (t *Tracker) WeekHabits(ctx context.Context) ([]models.HabitDay, error) {
	today := t.Today()
	return t.HabitRange(ctx, today.AddDays(-6), today)
}

func (t *Tracker) InjectionStatus(ctx context.Context) (models.InjectionStatus, error) {
	user := t.settings.UserID
	today := t.Today()
	return query(ctx, t, cache.InjectionStatusKey(user), func(ctx context.Context) (models.InjectionStatus, error) {
		return t.client.InjectionStatus(ctx, user, today)
	})
}

// InjectionHistory returns up to limit injections, newest first.
func (t *Tracker) InjectionHistory(ctx context.Context, limit int) ([]models.Injection, error) {
	if limit <= 0 {
		limit = constants.DefaultInjectionHistoryLimit
	}
	user := t.settings.UserID
	return query(ctx, t, cache.InjectionHistoryKey(user, limit), func(ctx context.Context) ([]models.Injection, error) {
		history, err := t.client.Injections(ctx, user, limit)
		if err != nil {
			return nil, err
		}
		sortInjections(history)
		return history, nil
	})
}

func (t *Tracker) LatestWeighIn(ctx context.Context) (models.WeighInLatest, error) {
	user := t.settings.UserID
	today := t.Today()
	return query(ctx, t, cache.WeighInLatestKey(user), func(ctx context.Context) (models.WeighInLatest, error) {
		return t.client.LatestWeighIn(ctx, user, today)
	})
}

// WeighInHistory returns up to limit weigh-ins, newest first.
func (t *Tracker) WeighInHistory(ctx context.Context, limit int) ([]models.WeighIn, error) {
	if limit <= 0 {
		limit = constants.DefaultWeighInHistoryLimit
	}
	user := t.settings.UserID
	return query(ctx, t, cache.WeighInHistoryKey(user, limit), func(ctx context.Context) ([]models.WeighIn, error) {
		history, err := t.client.WeighIns(ctx, user, limit)
		if err != nil {
			return nil, err
		}
		sortWeighIns(history)
		return history, nil
	})
}

// Month returns every record in the given calendar month.
func (t *Tracker) Month(ctx context.Context, year int, month time.Month) (models.MonthAggregate, error) {
	user := t.settings.UserID
	return query(ctx, t, cache.CalendarKey(user, year, month), func(ctx context.Context) (models.MonthAggregate, error) {
		agg, err := t.client.Month(ctx, user, year, month)
		if err != nil {
			return models.MonthAggregate{}, err
		}
		sortHabitDays(agg.Habits)
		sortInjections(agg.Injections)
		sortWeighIns(agg.WeighIns)
		return agg, nil
	})
}

// StreakReport is the streak summary plus the habit records it was computed from.
type StreakReport struct {
	models.StreakData
	Today models.LocalDate
	Days  map[models.LocalDate]models.HabitDay
}

// Streak computes streaks over the last lookbackDays days ending today.
// A lookback of zero scans month by month back to the first month with no
// records at all.
func (t *Tracker) Streak(ctx context.Context, lookbackDays int) (StreakReport, error) {
	today := t.Today()
	var days []models.HabitDay
	if lookbackDays > 0 {
		var err error
		days, err = t.HabitRange(ctx, today.AddDays(-(lookbackDays - 1)), today)
		if err != nil {
			return StreakReport{}, err
		}
	} else {
		year, month := today.Year, today.Month
		for i := 0; i < maxScanMonths; i++ {
			agg, err := t.Month(ctx, year, month)
			if err != nil {
				return StreakReport{}, err
			}
			if len(agg.Habits) == 0 && i > 0 {
				break
			}
			days = append(days, agg.Habits...)
			month--
			if month < time.January {
				month = time.December
				year--
			}
		}
	}

	byDate := streak.Normalize(days)
	data := streak.ComputeMap(byDate, streak.Options{Today: today, LookbackDays: lookbackDays})
	return StreakReport{StreakData: data, Today: today, Days: byDate}, nil
}

// Dashboard is the home-screen summary.
type Dashboard struct {
	Today     models.HabitDay
	Week      []models.HabitDay
	Streak    StreakReport
	Injection models.InjectionStatus
	WeighIn   models.WeighInLatest
}

// Dashboard loads every home-screen view concurrently.
func (t *Tracker) Dashboard(ctx context.Context, lookbackDays int) (Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Today, err = t.TodayHabits(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.Week, err = t.WeekHabits(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.Streak, err = t.Streak(gctx, lookbackDays)
		return err
	})
	g.Go(func() error {
		var err error
		d.Injection, err = t.InjectionStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.WeighIn, err = t.LatestWeighIn(gctx)
		return err
	})
	err := g.Wait()
	return d, err
}

func sortHabitDays(days []models.HabitDay) {
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
}

func sortInjections(history []models.Injection) {
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Date.After(history[j].Date)
	})
}

func sortWeighIns(history []models.WeighIn) {
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Date.After(history[j].Date)
	})
}
