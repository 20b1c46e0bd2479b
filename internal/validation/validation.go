package validation

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/prompt2production/needled-mobile-sub000/internal/api"
	"github.com/prompt2production/needled-mobile-sub000/internal/constants"
	apperrors "github.com/prompt2production/needled-mobile-sub000/internal/errors"
	"github.com/prompt2production/needled-mobile-sub000/internal/models"
	"github.com/prompt2production/needled-mobile-sub000/internal/utils"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictMissingUser      ConflictType = "missing_user"
	ConflictFutureDate       ConflictType = "future_date"
	ConflictInvalidSite      ConflictType = "invalid_site"
	ConflictInvalidHabit     ConflictType = "invalid_habit"
	ConflictWeightOutOfRange ConflictType = "weight_out_of_range"
	ConflictInvalidDosage    ConflictType = "invalid_dosage"
	ConflictNotesTooLong     ConflictType = "notes_too_long"
	ConflictGoldenDisabled   ConflictType = "golden_dose_disabled"
	ConflictInvalidTimezone  ConflictType = "invalid_timezone"
	ConflictInvalidMicrodose ConflictType = "invalid_microdose"
)

// MaxNotesLength bounds free-text injection notes.
const MaxNotesLength = 500

// Conflict represents one rejected field of a payload
type Conflict struct {
	Type        ConflictType
	Field       string
	Description string
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", conflict.Description)
	}
	return b.String()
}

// Err returns the first conflict as a ValidationError, or nil.
func (vr *ValidationResult) Err() error {
	if !vr.HasConflicts() {
		return nil
	}
	c := vr.Conflicts[0]
	return &apperrors.ValidationError{Field: c.Field, Message: c.Description}
}

func (vr *ValidationResult) add(t ConflictType, field, format string, args ...interface{}) {
	vr.Conflicts = append(vr.Conflicts, Conflict{
		Type:        t,
		Field:       field,
		Description: fmt.Sprintf(format, args...),
	})
}

// Validator checks write payloads before they are applied or stored.
// Today is the user's local calendar day; dates after it are rejected.
type Validator struct {
	Today           models.LocalDate
	TrackGoldenDose bool
}

// New creates a new Validator
func New(today models.LocalDate, trackGoldenDose bool) *Validator {
	return &Validator{Today: today, TrackGoldenDose: trackGoldenDose}
}

func (v *Validator) checkUser(result *ValidationResult, userID string) {
	if strings.TrimSpace(userID) == "" {
		result.add(ConflictMissingUser, "userId", "user id is required")
	}
}

func (v *Validator) checkDate(result *ValidationResult, date *models.LocalDate) {
	if date == nil || date.IsZero() || v.Today.IsZero() {
		return
	}
	if date.After(v.Today) {
		result.add(ConflictFutureDate, "date", "date %s is in the future (today is %s)", date, v.Today)
	}
}

// ValidateToggle checks a habit toggle.
func (v *Validator) ValidateToggle(req api.ToggleHabitRequest) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}
	v.checkUser(&result, req.UserID)
	if !req.Habit.Valid() {
		result.add(ConflictInvalidHabit, "habit", "habit is required (water, nutrition or exercise)")
	}
	v.checkDate(&result, req.Date)
	return result
}

// ValidateInjection checks an injection log.
func (v *Validator) ValidateInjection(req api.LogInjectionRequest) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}
	v.checkUser(&result, req.UserID)
	if !req.Site.Valid() {
		result.add(ConflictInvalidSite, "site", "injection site is required")
	}
	v.checkDate(&result, req.Date)
	if req.DosageMg != nil {
		if d := *req.DosageMg; math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
			result.add(ConflictInvalidDosage, "dosageMg", "dosage must be a positive number of mg")
		}
	}
	if req.Notes != nil && len(*req.Notes) > MaxNotesLength {
		result.add(ConflictNotesTooLong, "notes", "notes must be at most %d characters", MaxNotesLength)
	}
	if req.IsGoldenDose && !v.TrackGoldenDose {
		result.add(ConflictGoldenDisabled, "isGoldenDose", "golden dose tracking is not enabled")
	}
	return result
}

// ValidateWeighIn checks a weigh-in log.
func (v *Validator) ValidateWeighIn(req api.LogWeighInRequest) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}
	v.checkUser(&result, req.UserID)
	w := req.Weight
	if math.IsNaN(w) || w < constants.MinWeight || w > constants.MaxWeight {
		result.add(ConflictWeightOutOfRange, "weight", "weight must be between %g and %g", float64(constants.MinWeight), float64(constants.MaxWeight))
	}
	v.checkDate(&result, req.Date)
	return result
}

// ValidateSettings checks a user's treatment configuration.
func (v *Validator) ValidateSettings(settings models.Settings) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}
	if settings.Timezone != "" && !utils.ValidateTimezone(settings.Timezone) {
		result.add(ConflictInvalidTimezone, "timezone", "unknown timezone %q", settings.Timezone)
	}
	if settings.DosageMg != nil && *settings.DosageMg <= 0 {
		result.add(ConflictInvalidDosage, "dosageMg", "dosage must be a positive number of mg")
	}
	if md := settings.Microdose; md != nil {
		if md.PenStrengthMg <= 0 || md.DoseAmountMg <= 0 {
			result.add(ConflictInvalidMicrodose, "microdose", "pen strength and dose amount must be positive")
		} else if md.DoseAmountMg > md.PenStrengthMg {
			result.add(ConflictInvalidMicrodose, "microdose", "dose amount %.2f mg exceeds pen strength %.2f mg", md.DoseAmountMg, md.PenStrengthMg)
		}
	}
	return result
}

// SortConflicts orders conflicts by field for stable reporting.
func SortConflicts(conflicts []Conflict) {
	sort.SliceStable(conflicts, func(i, j int) bool {
		return conflicts[i].Field < conflicts[j].Field
	})
}
