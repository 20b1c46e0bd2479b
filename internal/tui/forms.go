package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/prompt2production/needled-mobile-sub000/internal/constants"
	"github.com/prompt2production/needled-mobile-sub000/internal/models"
)

type InjectionFormModel struct {
	Site   models.Site
	Notes  string
	Golden bool
}

type WeighInFormModel struct {
	Weight string
}

// NewInjectionForm asks for the site and notes. The golden dose question is
// only shown when one is available.
func NewInjectionForm(fm *InjectionFormModel, goldenAvailable bool) *huh.Form {
	options := make([]huh.Option[models.Site], 0, len(models.AllSites))
	for _, s := range models.AllSites {
		options = append(options, huh.NewOption(s.Label(), s))
	}
	fields := []huh.Field{
		huh.NewSelect[models.Site]().
			Title("Injection site").
			Options(options...).
			Value(&fm.Site),
		huh.NewInput().
			Title("Notes").
			Placeholder("optional").
			Value(&fm.Notes),
	}
	if goldenAvailable {
		fields = append(fields, huh.NewConfirm().
			Title("Is this the golden dose?").
			Value(&fm.Golden))
	}
	return huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeDracula())
}

func parseWeight(s string) (float64, error) {
	w, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("enter a number in kg")
	}
	if w < constants.MinWeight || w > constants.MaxWeight {
		return 0, fmt.Errorf("weight must be between %.0f and %.0f kg", constants.MinWeight, constants.MaxWeight)
	}
	return w, nil
}

func NewWeighInForm(fm *WeighInFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Weight (kg)").
				Value(&fm.Weight).
				Validate(func(s string) error {
					_, err := parseWeight(s)
					return err
				}),
		),
	).WithTheme(huh.ThemeDracula())
}
