package models

import (
	"fmt"
	"strings"

	"github.com/prompt2production/needled-mobile-sub000/internal/constants"
)

// Medication is the prescribed pen product.
type Medication int

const (
	MedicationOzempic Medication = iota
	MedicationWegovy
	MedicationMounjaro
	MedicationZepbound
)

var AllMedications = []Medication{
	MedicationOzempic,
	MedicationWegovy,
	MedicationMounjaro,
	MedicationZepbound,
}

func (m Medication) String() string {
	switch m {
	case MedicationOzempic:
		return "OZEMPIC"
	case MedicationWegovy:
		return "WEGOVY"
	case MedicationMounjaro:
		return "MOUNJARO"
	case MedicationZepbound:
		return "ZEPBOUND"
	default:
		return fmt.Sprintf("MEDICATION(%d)", int(m))
	}
}

// DosesPerPen is the number of regular doses a standard pen delivers.
func (m Medication) DosesPerPen() int {
	switch m {
	case MedicationOzempic, MedicationWegovy, MedicationMounjaro, MedicationZepbound:
		return constants.DefaultDosesPerPen
	default:
		return 0
	}
}

// Strengths lists the standard per-dose amounts in mg.
func (m Medication) Strengths() []float64 {
	switch m {
	case MedicationOzempic:
		return []float64{0.25, 0.5, 1, 2}
	case MedicationWegovy:
		return []float64{0.25, 0.5, 1, 1.7, 2.4}
	case MedicationMounjaro, MedicationZepbound:
		return []float64{2.5, 5, 7.5, 10, 12.5, 15}
	default:
		return nil
	}
}

func ParseMedication(s string) (Medication, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	for _, m := range AllMedications {
		if m.String() == norm {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown medication %q", s)
}

func (m Medication) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Medication) UnmarshalText(text []byte) error {
	parsed, err := ParseMedication(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Microdose holds user-defined pen strength and dose amount.
type Microdose struct {
	PenStrengthMg float64 `json:"pen_strength_mg"`
	DoseAmountMg  float64 `json:"dose_amount_mg"`
}

// Settings is the per-user treatment configuration passed into the core
// explicitly rather than read from ambient session state.
type Settings struct {
	UserID          string     `json:"user_id"`
	Timezone        string     `json:"timezone"` // IANA timezone name or "Local"
	Medication      Medication `json:"medication"`
	DosageMg        *float64   `json:"dosage_mg,omitempty"` // current prescribed dose
	Microdose       *Microdose `json:"microdose,omitempty"` // nil means standard mode
	TrackGoldenDose bool       `json:"track_golden_dose"`
}
