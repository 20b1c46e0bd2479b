// Package dose does pen-strength and dose-amount arithmetic for microdose mode.
package dose

import (
	"fmt"
	"math"

	"github.com/prompt2production/needled-mobile-sub000/internal/constants"
	apperrors "github.com/prompt2production/needled-mobile-sub000/internal/errors"
	"github.com/prompt2production/needled-mobile-sub000/internal/models"
)

// Split is how a pen divides into whole doses.
type Split struct {
	PenStrengthMg float64
	DoseAmountMg  float64
	Doses         int
	RemainderMg   float64
}

// HasLeftover reports medication left in the pen after the last whole dose.
// It is advisory, never an error.
func (s Split) HasLeftover() bool {
	return s.RemainderMg > 0
}

// Calculate divides penStrengthMg into doses of doseAmountMg. Dosages are
// real numbers (e.g. 2.5 mg steps), so both the quotient and the remainder
// are taken with a small tolerance.
func Calculate(penStrengthMg, doseAmountMg float64) (Split, error) {
	if penStrengthMg <= 0 || math.IsNaN(penStrengthMg) || math.IsInf(penStrengthMg, 0) {
		return Split{}, apperrors.Validation("pen strength", "must be a positive number of mg, got %v", penStrengthMg)
	}
	if doseAmountMg <= 0 || math.IsNaN(doseAmountMg) || math.IsInf(doseAmountMg, 0) {
		return Split{}, apperrors.Validation("dose amount", "must be a positive number of mg, got %v", doseAmountMg)
	}

	doses := math.Floor(penStrengthMg/doseAmountMg + constants.DoseEpsilon)
	remainder := penStrengthMg - doses*doseAmountMg
	if math.Abs(remainder) < constants.DoseEpsilon {
		remainder = 0
	}

	return Split{
		PenStrengthMg: penStrengthMg,
		DoseAmountMg:  doseAmountMg,
		Doses:         int(doses),
		RemainderMg:   round(remainder),
	}, nil
}

// DosesPerPen is floor(penStrengthMg / doseAmountMg).
func DosesPerPen(penStrengthMg, doseAmountMg float64) (int, error) {
	s, err := Calculate(penStrengthMg, doseAmountMg)
	return s.Doses, err
}

// Remainder is penStrengthMg mod doseAmountMg.
func Remainder(penStrengthMg, doseAmountMg float64) (float64, error) {
	s, err := Calculate(penStrengthMg, doseAmountMg)
	return s.RemainderMg, err
}

func round(mg float64) float64 {
	return math.Round(mg*1e6) / 1e6
}

// Mode distinguishes preset pens from user-defined microdosing.
type Mode string

const (
	ModeStandard  Mode = "standard"
	ModeMicrodose Mode = "microdose"
)

// Plan is the resolved pen configuration for a user.
type Plan struct {
	Mode        Mode
	DosesPerPen int
	// Split is set only in microdose mode.
	Split *Split
}

// Resolve picks the doses-per-pen value for settings. Standard mode reads it
// from the medication catalog; microdose mode computes it.
func Resolve(settings models.Settings) (Plan, error) {
	if settings.Microdose == nil {
		return Plan{Mode: ModeStandard, DosesPerPen: settings.Medication.DosesPerPen()}, nil
	}

	split, err := Calculate(settings.Microdose.PenStrengthMg, settings.Microdose.DoseAmountMg)
	if err != nil {
		return Plan{}, err
	}
	if split.Doses == 0 {
		return Plan{}, apperrors.Validation("dose amount", "%.2f mg is larger than the %.2f mg pen", split.DoseAmountMg, split.PenStrengthMg)
	}
	return Plan{Mode: ModeMicrodose, DosesPerPen: split.Doses, Split: &split}, nil
}

// Advisory describes leftover medication, or returns "" when there is none.
func (p Plan) Advisory() string {
	if p.Split == nil || !p.Split.HasLeftover() {
		return ""
	}
	return fmt.Sprintf("%.2f mg will be left in the pen after %d doses of %.2f mg",
		p.Split.RemainderMg, p.Split.Doses, p.Split.DoseAmountMg)
}
