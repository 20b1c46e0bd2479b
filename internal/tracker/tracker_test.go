package tracker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prompt2production/needled-mobile-sub000/internal/api"
	"github.com/prompt2production/needled-mobile-sub000/internal/cache"
	apperrors "github.com/prompt2production/needled-mobile-sub000/internal/errors"
	"github.com/prompt2production/needled-mobile-sub000/internal/injection"
	"github.com/prompt2production/needled-mobile-sub000/internal/models"
	"github.com/prompt2production/needled-mobile-sub000/internal/service"
	"github.com/prompt2production/needled-mobile-sub000/internal/storage/sqlite"
)

const user = "u1"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) set(day string) {
	d := models.MustParseDate(day)
	c.mu.Lock()
	c.now = time.Date(d.Year, d.Month, d.Day, 9, 0, 0, 0, time.UTC)
	c.mu.Unlock()
}

// gatedClient passes reads straight through and lets a test hold writes
// in flight or fail them.
type gatedClient struct {
	api.Client

	mu      sync.Mutex
	gate    chan struct{}
	entered chan struct{}
	fail    error
	writes  int
}

func (c *gatedClient) hold() {
	c.mu.Lock()
	c.gate = make(chan struct{})
	c.entered = make(chan struct{}, 1)
	c.mu.Unlock()
}

func (c *gatedClient) release() {
	c.mu.Lock()
	close(c.gate)
	c.gate = nil
	c.mu.Unlock()
}

func (c *gatedClient) failWith(err error) {
	c.mu.Lock()
	c.fail = err
	c.mu.Unlock()
}

func (c *gatedClient) write() error {
	c.mu.Lock()
	c.writes++
	gate, entered, fail := c.gate, c.entered, c.fail
	c.mu.Unlock()
	if entered != nil && gate != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return fail
}

func (c *gatedClient) ToggleHabit(ctx context.Context, req api.ToggleHabitRequest) (models.HabitDay, error) {
	if err := c.write(); err != nil {
		return models.HabitDay{}, err
	}
	return c.Client.ToggleHabit(ctx, req)
}

func (c *gatedClient) LogInjection(ctx context.Context, req api.LogInjectionRequest) (models.Injection, error) {
	if err := c.write(); err != nil {
		return models.Injection{}, err
	}
	return c.Client.LogInjection(ctx, req)
}

func (c *gatedClient) LogWeighIn(ctx context.Context, req api.LogWeighInRequest) (models.WeighIn, error) {
	if err := c.write(); err != nil {
		return models.WeighIn{}, err
	}
	return c.Client.LogWeighIn(ctx, req)
}

type fixture struct {
	tracker *Tracker
	client  *gatedClient
	svc     *service.Service
	clock   *clock
}

func setup(t *testing.T, today string) fixture {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "needled.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	clk := &clock{}
	clk.set(today)
	settings := models.Settings{UserID: user, Timezone: "UTC", Medication: models.MedicationWegovy}
	svc := service.New(store, service.WithDefaults(settings), service.WithClock(clk.Now))
	client := &gatedClient{Client: svc}

	tr, err := New(client, settings,
		WithStore(cache.New(cache.WithRetry(0, 0))),
		WithClock(clk.Now),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return fixture{tracker: tr, client: client, svc: svc, clock: clk}
}

func cached[T any](t *testing.T, tr *Tracker, key cache.Key) T {
	t.Helper()
	v, ok := cache.Value[T](tr.Store().Get(key))
	if !ok {
		t.Fatalf("no cached %T for %s", v, key)
	}
	return v
}

func TestNewRequiresUser(t *testing.T) {
	if _, err := New(nil, models.Settings{}); err == nil {
		t.Error("New() without user id should fail")
	}
	if _, err := New(nil, models.Settings{UserID: user, Timezone: "Nowhere/Special"}); err == nil {
		t.Error("New() with bad timezone should fail")
	}
}

func TestToggleHabitOptimistic(t *testing.T) {
	f := setup(t, "2025-03-10")
	ctx := context.Background()
	today := f.tracker.Today()

	if _, err := f.tracker.TodayHabits(ctx); err != nil {
		t.Fatalf("TodayHabits() error = %v", err)
	}
	if _, err := f.tracker.WeekHabits(ctx); err != nil {
		t.Fatalf("WeekHabits() error = %v", err)
	}

	f.client.hold()
	type result struct {
		day models.HabitDay
		err error
	}
	done := make(chan result, 1)
	go func() {
		day, err := f.tracker.ToggleHabit(ctx, models.HabitWater, true, nil)
		done <- result{day, err}
	}()
	<-f.client.entered

	if day := cached[models.HabitDay](t, f.tracker, cache.TodayKey(user, today)); !day.Water {
		t.Errorf("today entry not updated while in flight: %+v", day)
	}
	week := cached[[]models.HabitDay](t, f.tracker, cache.WeekKey(user, today))
	found := false
	for _, d := range week {
		if d.Date == today {
			found = d.Water
		}
	}
	if !found {
		t.Errorf("week entry not updated while in flight: %+v", week)
	}

	f.client.release()
	res := <-done
	if res.err != nil {
		t.Fatalf("ToggleHabit() error = %v", res.err)
	}
	if !res.day.Water {
		t.Errorf("ToggleHabit() = %+v", res.day)
	}
	server, _ := f.svc.TodayHabits(ctx, user, today)
	if !server.Water {
		t.Errorf("server day = %+v, want water", server)
	}
}

func TestToggleHabitRollback(t *testing.T) {
	f := setup(t, "2025-03-10")
	ctx := context.Background()
	today := f.tracker.Today()

	if _, err := f.tracker.TodayHabits(ctx); err != nil {
		t.Fatal(err)
	}
	before, err := f.tracker.WeekHabits(ctx)
	if err != nil {
		t.Fatal(err)
	}

	f.client.failWith(apperrors.Network("toggle habit", errors.New("offline")))
	_, err = f.tracker.ToggleHabit(ctx, models.HabitExercise, true, nil)
	if !errors.Is(err, apperrors.ErrNetwork) {
		t.Fatalf("ToggleHabit() error = %v, want network error", err)
	}

	if day := cached[models.HabitDay](t, f.tracker, cache.TodayKey(user, today)); day.Exercise {
		t.Errorf("today entry not rolled back: %+v", day)
	}
	after := cached[[]models.HabitDay](t, f.tracker, cache.WeekKey(user, today))
	if len(after) != len(before) {
		t.Errorf("week entry not restored: before %+v after %+v", before, after)
	}
	if f.client.writes != 1 {
		t.Errorf("writes = %d, mutations must not retry", f.client.writes)
	}
}

func TestToggleHabitRejectsFutureDate(t *testing.T) {
	f := setup(t, "2025-03-10")
	tomorrow := f.tracker.Today().AddDays(1)

	_, err := f.tracker.ToggleHabit(context.Background(), models.HabitWater, true, &tomorrow)
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("ToggleHabit() error = %v, want validation error", err)
	}
	if f.client.writes != 0 {
		t.Errorf("invalid toggle reached the client")
	}
}

func TestLogInjectionOptimistic(t *testing.T) {
	f := setup(t, "2024-01-10")
	ctx := context.Background()

	if _, err := f.tracker.InjectionStatus(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.tracker.InjectionHistory(ctx, 0); err != nil {
		t.Fatal(err)
	}

	f.client.hold()
	type result struct {
		inj models.Injection
		err error
	}
	done := make(chan result, 1)
	go func() {
		inj, err := f.tracker.LogInjection(ctx, InjectionInput{})
		done <- result{inj, err}
	}()
	<-f.client.entered

	historyKey := cache.InjectionHistoryKey(user, 10)
	history := cached[[]models.Injection](t, f.tracker, historyKey)
	if len(history) != 1 || !history[0].Provisional() || history[0].DoseNumber != 1 {
		t.Fatalf("history while in flight = %+v, want one provisional dose 1", history)
	}
	if !models.IsClientID(history[0].ClientID) {
		t.Errorf("provisional id %q lacks client prefix", history[0].ClientID)
	}
	status := cached[models.InjectionStatus](t, f.tracker, cache.InjectionStatusKey(user))
	if status.Status != models.StatusDone || status.NextDose != 2 || status.SuggestedSite != models.SiteAbdomenRight {
		t.Errorf("status while in flight = %+v", status)
	}

	f.client.release()
	res := <-done
	if res.err != nil {
		t.Fatalf("LogInjection() error = %v", res.err)
	}
	history = cached[[]models.Injection](t, f.tracker, historyKey)
	if len(history) != 1 || history[0].ID != res.inj.ID || history[0].Provisional() {
		t.Errorf("history after commit = %+v, want server record %s", history, res.inj.ID)
	}
	if !f.tracker.Store().Get(cache.InjectionStatusKey(user)).Stale {
		t.Errorf("status entry should be invalidated after commit")
	}
}

func TestLogInjectionRollback(t *testing.T) {
	f := setup(t, "2024-01-10")
	ctx := context.Background()

	before, err := f.tracker.InjectionStatus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.tracker.InjectionHistory(ctx, 0); err != nil {
		t.Fatal(err)
	}

	f.client.failWith(&apperrors.ValidationError{Field: "site", Message: "rejected"})
	if _, err := f.tracker.LogInjection(ctx, InjectionInput{}); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("LogInjection() error = %v, want validation error", err)
	}

	history := cached[[]models.Injection](t, f.tracker, cache.InjectionHistoryKey(user, 10))
	if len(history) != 0 {
		t.Errorf("history after rollback = %+v, want empty", history)
	}
	after := cached[models.InjectionStatus](t, f.tracker, cache.InjectionStatusKey(user))
	if after.NextDose != before.NextDose || after.Status != before.Status || after.LastInjection != nil {
		t.Errorf("status after rollback = %+v, want %+v", after, before)
	}
}

func TestDoseCycle(t *testing.T) {
	f := setup(t, "2024-01-01")
	ctx := context.Background()
	start := models.MustParseDate("2024-01-01")

	var doses []int
	for i := 0; i < 4; i++ {
		f.clock.set(start.AddDays(7 * i).String())
		inj, err := f.tracker.LogInjection(ctx, InjectionInput{})
		if err != nil {
			t.Fatalf("LogInjection() #%d error = %v", i+1, err)
		}
		doses = append(doses, inj.DoseNumber)
	}
	for i, want := range []int{1, 2, 3, 4} {
		if doses[i] != want {
			t.Fatalf("dose numbers = %v, want 1..4", doses)
		}
	}

	status, err := f.tracker.InjectionStatus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if status.NextDose != 1 || status.DosesRemaining != 4 {
		t.Errorf("status after a full pen = %+v, want next dose 1 with 4 remaining", status)
	}
}

func TestInjectionScenario(t *testing.T) {
	f := setup(t, "2024-01-10")
	ctx := context.Background()
	left := models.SiteAbdomenLeft

	first, err := f.tracker.LogInjection(ctx, InjectionInput{Site: &left})
	if err != nil {
		t.Fatalf("LogInjection() error = %v", err)
	}
	status, err := f.tracker.InjectionStatus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if status.Status != models.StatusDone || status.NextDose != 2 || status.SuggestedSite == left {
		t.Errorf("status = %+v", status)
	}
	history, _ := f.tracker.InjectionHistory(ctx, 0)
	if len(history) != 1 {
		t.Errorf("history = %+v, want one record", history)
	}

	f.clock.set("2024-01-18")
	status, _ = f.tracker.InjectionStatus(ctx)
	if status.Status != models.StatusOverdue {
		t.Errorf("status 8 days later = %s, want overdue", status.Status)
	}
	second, err := f.tracker.LogInjection(ctx, InjectionInput{})
	if err != nil {
		t.Fatalf("LogInjection() error = %v", err)
	}
	if got := injection.DaysAfterOverdue(first.Date, second.Date); got != 1 {
		t.Errorf("DaysAfterOverdue() = %d, want 1", got)
	}
}

func TestLogWeighInOptimistic(t *testing.T) {
	f := setup(t, "2024-01-01")
	ctx := context.Background()
	if _, err := f.svc.LogWeighIn(ctx, api.LogWeighInRequest{UserID: user, Weight: 100}); err != nil {
		t.Fatal(err)
	}

	f.clock.set("2024-01-08")
	if _, err := f.tracker.LatestWeighIn(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.tracker.WeighInHistory(ctx, 0); err != nil {
		t.Fatal(err)
	}

	f.client.hold()
	type result struct {
		w   models.WeighIn
		err error
	}
	done := make(chan result, 1)
	go func() {
		w, err := f.tracker.LogWeighIn(ctx, 98.5, nil)
		done <- result{w, err}
	}()
	<-f.client.entered

	latestKey := cache.WeighInLatestKey(user)
	latest := cached[models.WeighInLatest](t, f.tracker, latestKey)
	if latest.WeighIn == nil || !latest.WeighIn.Provisional() {
		t.Fatalf("latest while in flight = %+v", latest)
	}
	if latest.WeekChange == nil || *latest.WeekChange != -1.5 {
		t.Errorf("WeekChange = %v, want -1.5", latest.WeekChange)
	}
	if !latest.HasWeighedThisWeek || latest.CanWeighIn {
		t.Errorf("weekly flags while in flight = %+v", latest)
	}

	f.client.release()
	res := <-done
	if res.err != nil {
		t.Fatalf("LogWeighIn() error = %v", res.err)
	}
	entry := f.tracker.Store().Get(latestKey)
	latest, _ = cache.Value[models.WeighInLatest](entry)
	if latest.WeighIn == nil || latest.WeighIn.ID != res.w.ID || !entry.Stale {
		t.Errorf("latest after commit = %+v (stale %v)", latest, entry.Stale)
	}
	history := cached[[]models.WeighIn](t, f.tracker, cache.WeighInHistoryKey(user, 12))
	if len(history) != 2 || history[0].ID != res.w.ID {
		t.Errorf("history after commit = %+v", history)
	}
}

func TestLogWeighInRejectsOutOfRange(t *testing.T) {
	f := setup(t, "2024-01-01")
	_, err := f.tracker.LogWeighIn(context.Background(), 500, nil)
	var verr *apperrors.ValidationError
	if !errors.As(err, &verr) || verr.Field != "weight" {
		t.Fatalf("LogWeighIn(500) error = %v, want weight validation error", err)
	}
	if f.client.writes != 0 {
		t.Errorf("invalid weigh-in reached the client")
	}
}

func TestStreak(t *testing.T) {
	f := setup(t, "2025-03-10")
	ctx := context.Background()
	today := f.tracker.Today()

	for i := 0; i < 3; i++ {
		day := today.AddDays(-i)
		for _, h := range models.AllHabits {
			if _, err := f.tracker.ToggleHabit(ctx, h, true, &day); err != nil {
				t.Fatalf("ToggleHabit() error = %v", err)
			}
		}
	}
	// A lone perfect day well before the current run.
	old := today.AddDays(-20)
	for _, h := range models.AllHabits {
		if _, err := f.tracker.ToggleHabit(ctx, h, true, &old); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name     string
		lookback int
	}{
		{"bounded", 30},
		{"unbounded", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := f.tracker.Streak(ctx, tt.lookback)
			if err != nil {
				t.Fatalf("Streak() error = %v", err)
			}
			if report.CurrentStreak != 3 || report.BestStreak != 3 {
				t.Errorf("Streak() = current %d best %d, want 3/3", report.CurrentStreak, report.BestStreak)
			}
			if !report.Days[old].Perfect() {
				t.Errorf("report missing earlier perfect day %s", old)
			}
		})
	}
}

func TestDashboard(t *testing.T) {
	f := setup(t, "2025-03-10")
	d, err := f.tracker.Dashboard(context.Background(), 30)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if d.Today.Date != f.tracker.Today() {
		t.Errorf("Today.Date = %s", d.Today.Date)
	}
	if d.Injection.Status != models.StatusDue || !d.WeighIn.CanWeighIn {
		t.Errorf("Dashboard() = %+v", d)
	}
}

func TestSubscribeSeesOptimisticWrite(t *testing.T) {
	f := setup(t, "2025-03-10")
	ctx := context.Background()
	if _, err := f.tracker.TodayHabits(ctx); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	seen := map[cache.Key]int{}
	unsubscribe := f.tracker.Subscribe(func(k cache.Key) {
		mu.Lock()
		seen[k]++
		mu.Unlock()
	})
	defer unsubscribe()

	if _, err := f.tracker.ToggleHabit(ctx, models.HabitNutrition, true, nil); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	defer mu.Unlock()
	if seen[cache.TodayKey(user, f.tracker.Today())] == 0 {
		t.Errorf("subscriber not notified: %v", seen)
	}
}
