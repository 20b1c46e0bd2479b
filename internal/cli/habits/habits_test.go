package habits

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prompt2production/needled-mobile-sub000/internal/cli"
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

func TestHabitToggleFlipsAndSets(t *testing.T) {
	ctx, out := setupTestContext(t)

	if err := (&HabitToggleCmd{Habit: "water"}).Run(ctx); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !strings.Contains(out.String(), "[x] water") || !strings.Contains(out.String(), "33% complete") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	if err := (&HabitToggleCmd{Habit: "water"}).Run(ctx); err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if !strings.Contains(out.String(), "[ ] water") {
		t.Errorf("second toggle should flip back, output = %q", out.String())
	}

	out.Reset()
	off := false
	if err := (&HabitToggleCmd{Habit: "exercise", Value: &off}).Run(ctx); err != nil {
		t.Fatalf("explicit toggle failed: %v", err)
	}
	if !strings.Contains(out.String(), "[ ] exercise") {
		t.Errorf("output = %q", out.String())
	}
}

func TestHabitToggleRejectsBadInput(t *testing.T) {
	ctx, _ := setupTestContext(t)

	tests := []struct {
		name string
		cmd  HabitToggleCmd
	}{
		{"unknown habit", HabitToggleCmd{Habit: "sleep"}},
		{"bad date", HabitToggleCmd{Habit: "water", Date: "01/10/2024"}},
		{"future date", HabitToggleCmd{Habit: "water", Date: "2999-01-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cmd.Run(ctx); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestHabitToday(t *testing.T) {
	ctx, out := setupTestContext(t)
	for _, h := range []string{"water", "nutrition", "exercise"} {
		if err := (&HabitToggleCmd{Habit: h}).Run(ctx); err != nil {
			t.Fatalf("toggle %s failed: %v", h, err)
		}
	}
	out.Reset()

	if err := (&HabitTodayCmd{}).Run(ctx); err != nil {
		t.Fatalf("today failed: %v", err)
	}
	if !strings.Contains(out.String(), "3/3 recorded (100%)") {
		t.Errorf("output = %q", out.String())
	}
}

func TestHabitLog(t *testing.T) {
	ctx, out := setupTestContext(t)
	if err := (&HabitToggleCmd{Habit: "nutrition"}).Run(ctx); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	out.Reset()

	if err := (&HabitLogCmd{Days: 7}).Run(ctx); err != nil {
		t.Fatalf("log failed: %v", err)
	}
	lines := strings.Split(out.String(), "\n")
	var nutrition string
	for _, l := range lines {
		if strings.HasPrefix(l, "nutrition") {
			nutrition = l
		}
	}
	if !strings.HasSuffix(strings.TrimSpace(nutrition), "x") {
		t.Errorf("nutrition row = %q, want today marked", nutrition)
	}
	if !strings.Contains(out.String(), "streak") {
		t.Errorf("output missing streak row:\n%s", out.String())
	}

	if err := (&HabitLogCmd{Days: 0}).Run(ctx); err == nil {
		t.Error("expected error for --days 0")
	}
}

func TestHabitStreak(t *testing.T) {
	ctx, out := setupTestContext(t)
	for _, h := range []string{"water", "nutrition", "exercise"} {
		if err := (&HabitToggleCmd{Habit: h}).Run(ctx); err != nil {
			t.Fatalf("toggle %s failed: %v", h, err)
		}
	}
	out.Reset()

	if err := (&HabitStreakCmd{Lookback: 30, Show: 7}).Run(ctx); err != nil {
		t.Fatalf("streak failed: %v", err)
	}
	if !strings.Contains(out.String(), "current, 1 best") {
		t.Errorf("output = %q", out.String())
	}

	if err := (&HabitStreakCmd{Lookback: -1, Show: 7}).Run(ctx); err == nil {
		t.Error("expected error for negative lookback")
	}
}
