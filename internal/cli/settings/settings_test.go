package settings

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prompt2production/needled-mobile-sub000/internal/cli"
	"github.com/prompt2production/needled-mobile-sub000/internal/models"
)

func setupTestContext(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	ctx, err := cli.NewContext(cli.Globals{
		Backend:    filepath.Join(t.TempDir(), "test.db"),
		User:       "u1",
		Timezone:   "UTC",
		Medication: "WEGOVY",
	})
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}
	if err := ctx.Store.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := ctx.UseStore(); err != nil {
		t.Fatalf("UseStore() error = %v", err)
	}
	var out bytes.Buffer
	ctx.Out = &out
	t.Cleanup(func() { ctx.Close() })
	return ctx, &out
}

func ptr[T any](v T) *T { return &v }

func TestSettingsList(t *testing.T) {
	ctx, out := setupTestContext(t)
	if err := (&SettingsCmd{List: true}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, want := range []string{"User:              u1", "Medication:        WEGOVY", "Doses per pen:     4"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestSettingsUpdate(t *testing.T) {
	ctx, out := setupTestContext(t)

	cmd := &SettingsCmd{
		Medication:  ptr("mounjaro"),
		PenStrength: ptr(10.0),
		DoseAmount:  ptr(3.0),
		TrackGolden: ptr(true),
	}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !strings.Contains(out.String(), "Settings updated successfully.") {
		t.Errorf("output = %q", out.String())
	}

	got, err := ctx.Service.Settings(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if got.Medication != models.MedicationMounjaro || !got.TrackGoldenDose {
		t.Errorf("settings = %+v", got)
	}
	if got.Microdose == nil || got.Microdose.PenStrengthMg != 10 || got.Microdose.DoseAmountMg != 3 {
		t.Errorf("Microdose = %+v", got.Microdose)
	}

	if err := (&SettingsCmd{Standard: true}).Run(ctx); err != nil {
		t.Fatalf("--standard failed: %v", err)
	}
	got, err = ctx.Service.Settings(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if got.Microdose != nil {
		t.Errorf("--standard should clear microdose, got %+v", got.Microdose)
	}
}

func TestSettingsRejectsBadInput(t *testing.T) {
	ctx, _ := setupTestContext(t)

	tests := []struct {
		name string
		cmd  SettingsCmd
	}{
		{"unknown medication", SettingsCmd{Medication: ptr("aspirin")}},
		{"half a microdose", SettingsCmd{PenStrength: ptr(10.0)}},
		{"standard with microdose", SettingsCmd{Standard: true, DoseAmount: ptr(1.0)}},
		{"bad timezone", SettingsCmd{Timezone: ptr("Mars/Olympus")}},
		{"dose above pen", SettingsCmd{PenStrength: ptr(2.0), DoseAmount: ptr(5.0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cmd.Run(ctx); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSettingsNoChanges(t *testing.T) {
	ctx, out := setupTestContext(t)
	if err := (&SettingsCmd{}).Run(ctx); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(out.String(), "No changes specified") {
		t.Errorf("output = %q", out.String())
	}
}

func TestDoseCmd(t *testing.T) {
	tests := []struct {
		name     string
		cmd      DoseCmd
		want     string
		leftover bool
		wantErr  bool
	}{
		{"even split", DoseCmd{PenStrength: 10, DoseAmount: 5}, "= 2 doses", false, false},
		{"leftover", DoseCmd{PenStrength: 10, DoseAmount: 3}, "= 3 doses", true, false},
		{"dose larger than pen", DoseCmd{PenStrength: 2, DoseAmount: 5}, "", false, true},
		{"zero dose", DoseCmd{PenStrength: 10, DoseAmount: 0}, "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			ctx := &cli.Context{Out: &out}
			err := tt.cmd.Run(ctx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
			if got := strings.Contains(out.String(), "left in the pen"); got != tt.leftover {
				t.Errorf("leftover warning = %v, want %v", got, tt.leftover)
			}
		})
	}
}
