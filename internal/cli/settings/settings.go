package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/prompt2production/needled-mobile-sub000/internal/cli"
	"github.com/prompt2production/needled-mobile-sub000/internal/dose"
	"github.com/prompt2production/needled-mobile-sub000/internal/models"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Timezone    *string  `help:"IANA timezone that decides the local day."`
	Medication  *string  `help:"Medication (OZEMPIC, WEGOVY, MOUNJARO, ZEPBOUND)."`
	Dosage      *float64 `help:"Prescribed dose in mg."`
	PenStrength *float64 `help:"Microdose pen strength in mg. Requires --dose-amount unless already set."`
	DoseAmount  *float64 `help:"Microdose dose amount in mg. Requires --pen-strength unless already set."`
	Standard    bool     `help:"Switch back to the preset pen for the medication."`
	TrackGolden *bool    `help:"Track the extra golden dose in a full pen."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	settings, err := ctx.Settings(bg)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if c.List {
		printSettings(ctx, settings)
		return nil
	}

	updated, err := c.apply(&settings)
	if err != nil {
		return err
	}
	if !updated {
		ctx.Printf("No changes specified. Use --list to view settings or flags to update them.\n")
		return nil
	}
	if ctx.Service == nil {
		return errors.New("settings can only be saved to a database backend; use flags or NEEDLED_* variables with an API backend")
	}
	if err := ctx.Service.SaveSettings(bg, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	ctx.Printf("Settings updated successfully.\n")
	if plan, err := dose.Resolve(settings); err == nil && plan.Advisory() != "" {
		ctx.Printf("⚠ %s\n", plan.Advisory())
	}
	return nil
}

func (c *SettingsCmd) apply(settings *models.Settings) (bool, error) {
	updated := false
	if c.Timezone != nil {
		settings.Timezone = *c.Timezone
		updated = true
	}
	if c.Medication != nil {
		med, err := models.ParseMedication(*c.Medication)
		if err != nil {
			return false, err
		}
		settings.Medication = med
		updated = true
	}
	if c.Dosage != nil {
		settings.DosageMg = c.Dosage
		updated = true
	}
	if c.Standard {
		if c.PenStrength != nil || c.DoseAmount != nil {
			return false, errors.New("--standard cannot be combined with --pen-strength or --dose-amount")
		}
		settings.Microdose = nil
		updated = true
	}
	if c.PenStrength != nil || c.DoseAmount != nil {
		md := models.Microdose{}
		if settings.Microdose != nil {
			md = *settings.Microdose
		}
		if c.PenStrength != nil {
			md.PenStrengthMg = *c.PenStrength
		}
		if c.DoseAmount != nil {
			md.DoseAmountMg = *c.DoseAmount
		}
		if md.PenStrengthMg == 0 || md.DoseAmountMg == 0 {
			return false, errors.New("microdose mode needs both --pen-strength and --dose-amount")
		}
		settings.Microdose = &md
		updated = true
	}
	if c.TrackGolden != nil {
		settings.TrackGoldenDose = *c.TrackGolden
		updated = true
	}
	return updated, nil
}

func printSettings(ctx *cli.Context, s models.Settings) {
	ctx.Printf("Current Settings:\n")
	ctx.Printf("  User:              %s\n", s.UserID)
	ctx.Printf("  Timezone:          %s\n", s.Timezone)
	ctx.Printf("  Medication:        %s\n", s.Medication)
	if s.DosageMg != nil {
		ctx.Printf("  Dosage:            %g mg\n", *s.DosageMg)
	} else {
		ctx.Printf("  Dosage:            not set\n")
	}
	ctx.Printf("  Track golden dose: %v\n", s.TrackGoldenDose)

	plan, err := dose.Resolve(s)
	if err != nil {
		ctx.Printf("\nPen: invalid (%v)\n", err)
		return
	}
	ctx.Printf("\nPen:\n")
	ctx.Printf("  Mode:              %s\n", plan.Mode)
	ctx.Printf("  Doses per pen:     %d\n", plan.DosesPerPen)
	if s.Microdose != nil {
		ctx.Printf("  Pen strength:      %g mg\n", s.Microdose.PenStrengthMg)
		ctx.Printf("  Dose amount:       %g mg\n", s.Microdose.DoseAmountMg)
	}
	if advisory := plan.Advisory(); advisory != "" {
		ctx.Printf("  ⚠ %s\n", advisory)
	}
}

// DoseCmd previews how a pen divides without saving anything.
type DoseCmd struct {
	PenStrength float64 `arg:"" help:"Pen strength in mg."`
	DoseAmount  float64 `arg:"" help:"Dose amount in mg."`
}

func (c *DoseCmd) Run(ctx *cli.Context) error {
	split, err := dose.Calculate(c.PenStrength, c.DoseAmount)
	if err != nil {
		return err
	}
	if split.Doses == 0 {
		return fmt.Errorf("a %g mg dose is larger than the %g mg pen", c.DoseAmount, c.PenStrength)
	}
	ctx.Printf("%g mg pen / %g mg dose = %d doses\n", split.PenStrengthMg, split.DoseAmountMg, split.Doses)
	if split.HasLeftover() {
		ctx.Printf("⚠ %g mg will be left in the pen\n", split.RemainderMg)
	}
	return nil
}
