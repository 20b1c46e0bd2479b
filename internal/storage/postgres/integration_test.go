package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/prompt2production/needled-mobile-sub000/internal/models"
)

// TestStore_Integration tests PostgreSQL store with a real database
// Set POSTGRES_TEST_URL environment variable to run this test
// Example: POSTGRES_TEST_URL="postgres://needled_user@localhost:5432/needled_test?sslmode=disable"
func TestStore_Integration(t *testing.T) {
	connStr := os.Getenv("POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("POSTGRES_TEST_URL not set, skipping PostgreSQL integration test")
	}

	store := New(connStr)
	if err := store.Init(); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	user := "it-" + uuid.New().String()
	day := models.MustParseDate("2024-01-10")

	t.Run("Habits", func(t *testing.T) {
		hd, err := store.SetHabit(ctx, user, day, models.HabitWater, true)
		if err != nil {
			t.Fatalf("SetHabit failed: %v", err)
		}
		if !hd.Water || hd.Nutrition {
			t.Errorf("unexpected habit day %+v", hd)
		}
		days, err := store.GetHabitDays(ctx, user, day.AddDays(-6), day)
		if err != nil {
			t.Fatalf("GetHabitDays failed: %v", err)
		}
		if len(days) != 1 || days[0].Date != day {
			t.Errorf("GetHabitDays = %+v", days)
		}
	})

	t.Run("Injections", func(t *testing.T) {
		inj := models.Injection{ID: uuid.New().String(), Date: day, Site: models.SiteArmLeft, DoseNumber: 1}
		if err := store.AddInjection(ctx, user, inj); err != nil {
			t.Fatalf("AddInjection failed: %v", err)
		}
		got, err := store.GetInjections(ctx, user, 5)
		if err != nil {
			t.Fatalf("GetInjections failed: %v", err)
		}
		if len(got) != 1 || got[0].Site != models.SiteArmLeft {
			t.Errorf("GetInjections = %+v", got)
		}
	})

	t.Run("WeighIns", func(t *testing.T) {
		w := models.WeighIn{ID: uuid.New().String(), Date: day, Weight: 101.5}
		if err := store.AddWeighIn(ctx, user, w); err != nil {
			t.Fatalf("AddWeighIn failed: %v", err)
		}
		first, err := store.GetFirstWeighIn(ctx, user)
		if err != nil {
			t.Fatalf("GetFirstWeighIn failed: %v", err)
		}
		if first.Weight != 101.5 {
			t.Errorf("GetFirstWeighIn = %+v", first)
		}
	})
}
