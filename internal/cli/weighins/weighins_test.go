package weighins

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

func TestWeighInLogAndLatest(t *testing.T) {
	ctx, out := setupTestContext(t)

	if err := (&WeighInLatestCmd{}).Run(ctx); err != nil {
		t.Fatalf("latest failed: %v", err)
	}
	if !strings.Contains(out.String(), "No weigh-ins yet.") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	if err := (&WeighInLogCmd{Weight: 95.25}).Run(ctx); err != nil {
		t.Fatalf("log failed: %v", err)
	}
	if !strings.Contains(out.String(), "Logged 95.2 kg") && !strings.Contains(out.String(), "Logged 95.3 kg") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	if err := (&WeighInLatestCmd{}).Run(ctx); err != nil {
		t.Fatalf("latest failed: %v", err)
	}
	for _, want := range []string{"This week:", "Already weighed in this week."} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestWeighInLogRejectsBadInput(t *testing.T) {
	ctx, _ := setupTestContext(t)

	tests := []struct {
		name string
		cmd  WeighInLogCmd
	}{
		{"too light", WeighInLogCmd{Weight: 5}},
		{"too heavy", WeighInLogCmd{Weight: 1000}},
		{"bad date", WeighInLogCmd{Weight: 80, Date: "2024/01/01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cmd.Run(ctx); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWeighInHistoryDeltas(t *testing.T) {
	ctx, out := setupTestContext(t)
	for _, w := range []struct {
		weight float64
		date   string
	}{
		{100, "2024-01-01"},
		{98.5, "2024-01-08"},
	} {
		if err := (&WeighInLogCmd{Weight: w.weight, Date: w.date}).Run(ctx); err != nil {
			t.Fatalf("log failed: %v", err)
		}
	}
	out.Reset()

	if err := (&WeighInHistoryCmd{Limit: 12}).Run(ctx); err != nil {
		t.Fatalf("history failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[0], "2024-01-08") || !strings.Contains(lines[0], "(-1.5)") {
		t.Errorf("newest line = %q", lines[0])
	}
	if strings.Contains(lines[1], "(") {
		t.Errorf("oldest line should have no delta: %q", lines[1])
	}
}

func TestFormatChange(t *testing.T) {
	down := -0.4
	if got := formatChange("This week", &down); !strings.Contains(got, "-0.4 kg") {
		t.Errorf("formatChange() = %q", got)
	}
	if got := formatChange("This week", nil); !strings.HasSuffix(got, "-\n") {
		t.Errorf("formatChange(nil) = %q", got)
	}
}
