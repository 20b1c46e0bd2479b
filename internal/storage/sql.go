package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prompt2production/needled-mobile-sub000/internal/constants"
	"github.com/prompt2production/needled-mobile-sub000/internal/migration"
	"github.com/prompt2production/needled-mobile-sub000/internal/models"
)

// SQLStore holds the queries shared by the SQLite and PostgreSQL backends.
// Queries are written with ? placeholders and rebound for the driver.
type SQLStore struct {
	DB     *sql.DB
	Driver migration.Driver
}

func (s *SQLStore) q(query string) string {
	return s.Driver.Rebind(query)
}

// createdAtLayout is fixed width so that created_at sorts as text.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

var (
	stampMu   sync.Mutex
	lastStamp time.Time
)

// now returns a created_at value strictly after the previous one issued by
// this process, so same-day rows keep insertion order on coarse clocks.
func now() string {
	stampMu.Lock()
	defer stampMu.Unlock()
	t := time.Now().UTC()
	if !t.After(lastStamp) {
		t = lastStamp.Add(time.Nanosecond)
	}
	lastStamp = t
	return t.Format(createdAtLayout)
}

func parseDay(raw string) (models.LocalDate, error) {
	d, err := models.ParseDate(raw)
	if err != nil {
		return models.LocalDate{}, fmt.Errorf("failed to parse stored day: %w", err)
	}
	return d, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Float64
	return &f
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	s := n.String
	return &s
}

func (s *SQLStore) GetSettings(ctx context.Context, userID string) (models.Settings, error) {
	row := s.DB.QueryRowContext(ctx, s.q(`
		SELECT timezone, medication, dosage_mg, pen_strength_mg, dose_amount_mg, track_golden_dose
		FROM user_settings WHERE user_id = ?`), userID)

	settings := models.Settings{UserID: userID}
	var medication string
	var dosage, penStrength, doseAmount sql.NullFloat64
	err := row.Scan(&settings.Timezone, &medication, &dosage, &penStrength, &doseAmount, &settings.TrackGoldenDose)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Settings{}, ErrNotFound
	}
	if err != nil {
		return models.Settings{}, err
	}

	if settings.Medication, err = models.ParseMedication(medication); err != nil {
		return models.Settings{}, err
	}
	settings.DosageMg = floatPtr(dosage)
	if penStrength.Valid && doseAmount.Valid {
		settings.Microdose = &models.Microdose{PenStrengthMg: penStrength.Float64, DoseAmountMg: doseAmount.Float64}
	}
	return settings, nil
}

func (s *SQLStore) SaveSettings(ctx context.Context, settings models.Settings) error {
	if settings.Timezone == "" {
		settings.Timezone = constants.DefaultTimezone
	}
	var penStrength, doseAmount sql.NullFloat64
	if md := settings.Microdose; md != nil {
		penStrength = sql.NullFloat64{Float64: md.PenStrengthMg, Valid: true}
		doseAmount = sql.NullFloat64{Float64: md.DoseAmountMg, Valid: true}
	}
	_, err := s.DB.ExecContext(ctx, s.q(`
		INSERT INTO user_settings (user_id, timezone, medication, dosage_mg, pen_strength_mg, dose_amount_mg, track_golden_dose, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			timezone = excluded.timezone,
			medication = excluded.medication,
			dosage_mg = excluded.dosage_mg,
			pen_strength_mg = excluded.pen_strength_mg,
			dose_amount_mg = excluded.dose_amount_mg,
			track_golden_dose = excluded.track_golden_dose,
			updated_at = excluded.updated_at`),
		settings.UserID, settings.Timezone, settings.Medication.String(), nullFloat(settings.DosageMg),
		penStrength, doseAmount, settings.TrackGoldenDose, now())
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (s *SQLStore) GetHabitDay(ctx context.Context, userID string, day models.LocalDate) (models.HabitDay, error) {
	row := s.DB.QueryRowContext(ctx, s.q(`
		SELECT water, nutrition, exercise FROM habit_days
		WHERE user_id = ? AND day = ?`), userID, day.String())

	hd := models.HabitDay{Date: day}
	err := row.Scan(&hd.Water, &hd.Nutrition, &hd.Exercise)
	if errors.Is(err, sql.ErrNoRows) {
		return hd, nil
	}
	if err != nil {
		return models.HabitDay{}, err
	}
	return hd, nil
}

func (s *SQLStore) GetHabitDays(ctx context.Context, userID string, from, to models.LocalDate) ([]models.HabitDay, error) {
	rows, err := s.DB.QueryContext(ctx, s.q(`
		SELECT day, water, nutrition, exercise FROM habit_days
		WHERE user_id = ? AND day >= ? AND day <= ?
		ORDER BY day`), userID, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := []models.HabitDay{}
	for rows.Next() {
		var raw string
		var hd models.HabitDay
		if err := rows.Scan(&raw, &hd.Water, &hd.Nutrition, &hd.Exercise); err != nil {
			return nil, err
		}
		if hd.Date, err = parseDay(raw); err != nil {
			return nil, err
		}
		days = append(days, hd)
	}
	return days, rows.Err()
}

func habitColumn(h models.Habit) (string, error) {
	switch h {
	case models.HabitWater:
		return "water", nil
	case models.HabitNutrition:
		return "nutrition", nil
	case models.HabitExercise:
		return "exercise", nil
	default:
		return "", fmt.Errorf("unknown habit %d", int(h))
	}
}

func (s *SQLStore) SetHabit(ctx context.Context, userID string, day models.LocalDate, habit models.Habit, value bool) (models.HabitDay, error) {
	col, err := habitColumn(habit)
	if err != nil {
		return models.HabitDay{}, err
	}
	hd := models.HabitDay{Date: day}.With(habit, value)
	_, err = s.DB.ExecContext(ctx, s.q(`
		INSERT INTO habit_days (user_id, day, water, nutrition, exercise, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, day) DO UPDATE SET `+col+` = excluded.`+col+`, updated_at = excluded.updated_at`),
		userID, day.String(), hd.Water, hd.Nutrition, hd.Exercise, now())
	if err != nil {
		return models.HabitDay{}, fmt.Errorf("failed to set habit: %w", err)
	}
	return s.GetHabitDay(ctx, userID, day)
}

const injectionColumns = `id, day, site, dose_number, dosage_mg, notes, is_golden_dose`

func scanInjections(rows *sql.Rows) ([]models.Injection, error) {
	defer rows.Close()
	out := []models.Injection{}
	for rows.Next() {
		var inj models.Injection
		var day, site string
		var dosage sql.NullFloat64
		var notes sql.NullString
		if err := rows.Scan(&inj.ID, &day, &site, &inj.DoseNumber, &dosage, &notes, &inj.IsGoldenDose); err != nil {
			return nil, err
		}
		var err error
		if inj.Date, err = parseDay(day); err != nil {
			return nil, err
		}
		if inj.Site, err = models.ParseSite(site); err != nil {
			return nil, err
		}
		inj.DosageMg = floatPtr(dosage)
		inj.Notes = stringPtr(notes)
		out = append(out, inj)
	}
	return out, rows.Err()
}

func (s *SQLStore) AddInjection(ctx context.Context, userID string, inj models.Injection) error {
	_, err := s.DB.ExecContext(ctx, s.q(`
		INSERT INTO injections (id, user_id, day, site, dose_number, dosage_mg, notes, is_golden_dose, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		inj.ID, userID, inj.Date.String(), inj.Site.String(), inj.DoseNumber,
		nullFloat(inj.DosageMg), nullString(inj.Notes), inj.IsGoldenDose, now())
	if err != nil {
		return fmt.Errorf("failed to add injection: %w", err)
	}
	return nil
}

func (s *SQLStore) GetInjections(ctx context.Context, userID string, limit int) ([]models.Injection, error) {
	query := `SELECT ` + injectionColumns + ` FROM injections WHERE user_id = ? ORDER BY day DESC, created_at DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.DB.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	return scanInjections(rows)
}

func (s *SQLStore) GetInjectionsBetween(ctx context.Context, userID string, from, to models.LocalDate) ([]models.Injection, error) {
	rows, err := s.DB.QueryContext(ctx, s.q(`SELECT `+injectionColumns+` FROM injections
		WHERE user_id = ? AND day >= ? AND day <= ?
		ORDER BY day DESC, created_at DESC`), userID, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	return scanInjections(rows)
}

func scanWeighIns(rows *sql.Rows) ([]models.WeighIn, error) {
	defer rows.Close()
	out := []models.WeighIn{}
	for rows.Next() {
		var w models.WeighIn
		var day string
		if err := rows.Scan(&w.ID, &day, &w.Weight); err != nil {
			return nil, err
		}
		var err error
		if w.Date, err = parseDay(day); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *SQLStore) AddWeighIn(ctx context.Context, userID string, w models.WeighIn) error {
	_, err := s.DB.ExecContext(ctx, s.q(`
		INSERT INTO weigh_ins (id, user_id, day, weight, created_at)
		VALUES (?, ?, ?, ?, ?)`),
		w.ID, userID, w.Date.String(), w.Weight, now())
	if err != nil {
		return fmt.Errorf("failed to add weigh-in: %w", err)
	}
	return nil
}

func (s *SQLStore) GetWeighIns(ctx context.Context, userID string, limit int) ([]models.WeighIn, error) {
	query := `SELECT id, day, weight FROM weigh_ins WHERE user_id = ? ORDER BY day DESC, created_at DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.DB.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	return scanWeighIns(rows)
}

func (s *SQLStore) GetWeighInsBetween(ctx context.Context, userID string, from, to models.LocalDate) ([]models.WeighIn, error) {
	rows, err := s.DB.QueryContext(ctx, s.q(`SELECT id, day, weight FROM weigh_ins
		WHERE user_id = ? AND day >= ? AND day <= ?
		ORDER BY day DESC, created_at DESC`), userID, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	return scanWeighIns(rows)
}

func (s *SQLStore) GetFirstWeighIn(ctx context.Context, userID string) (models.WeighIn, error) {
	rows, err := s.DB.QueryContext(ctx, s.q(`SELECT id, day, weight FROM weigh_ins
		WHERE user_id = ? ORDER BY day ASC, created_at ASC LIMIT 1`), userID)
	if err != nil {
		return models.WeighIn{}, err
	}
	out, err := scanWeighIns(rows)
	if err != nil {
		return models.WeighIn{}, err
	}
	if len(out) == 0 {
		return models.WeighIn{}, ErrNotFound
	}
	return out[0], nil
}
