package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/prompt2production/needled-mobile-sub000/internal/errors"
	"github.com/prompt2production/needled-mobile-sub000/internal/models"
)

func TestNewHTTPClientRejectsBadURL(t *testing.T) {
	tests := []string{"ftp://example.com", "://nope", "needled.db"}
	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			if _, err := NewHTTPClient(raw); err == nil {
				t.Errorf("NewHTTPClient(%q) expected error", raw)
			}
		})
	}
}

func TestHTTPClientRequests(t *testing.T) {
	var gotAuth, gotPath, gotQuery, gotMethod string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotMethod = r.Method
		gotBody = nil
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/habits":
			_, _ = w.Write([]byte(`[{"date":"2025-03-09","water":true,"nutrition":false,"exercise":false}]`))
		case "/injections":
			_, _ = w.Write([]byte(`{"id":"inj-1","date":"2024-01-10","site":"ABDOMEN_LEFT","doseNumber":1,"dosageMg":null,"notes":null}`))
		case "/calendar/2024/2":
			_, _ = w.Write([]byte(`{"year":2024,"month":2,"habits":[],"weighIns":[],"injections":[]}`))
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL+"/", WithToken("secret"))
	if err != nil {
		t.Fatalf("NewHTTPClient() error = %v", err)
	}
	ctx := context.Background()

	t.Run("habit range", func(t *testing.T) {
		days, err := c.HabitRange(ctx, "u1", models.MustParseDate("2025-03-03"), models.MustParseDate("2025-03-09"))
		if err != nil {
			t.Fatalf("HabitRange() error = %v", err)
		}
		if len(days) != 1 || !days[0].Water || days[0].Date != models.MustParseDate("2025-03-09") {
			t.Errorf("HabitRange() = %+v", days)
		}
		if gotAuth != "Bearer secret" {
			t.Errorf("Authorization = %q", gotAuth)
		}
		if gotQuery != "endDate=2025-03-09&startDate=2025-03-03&userId=u1" {
			t.Errorf("query = %q", gotQuery)
		}
	})

	t.Run("log injection", func(t *testing.T) {
		date := models.MustParseDate("2024-01-10")
		inj, err := c.LogInjection(ctx, LogInjectionRequest{UserID: "u1", Site: models.SiteAbdomenLeft, Date: &date})
		if err != nil {
			t.Fatalf("LogInjection() error = %v", err)
		}
		if gotMethod != http.MethodPost || gotPath != "/injections" {
			t.Errorf("request = %s %s", gotMethod, gotPath)
		}
		if gotBody["site"] != "ABDOMEN_LEFT" || gotBody["date"] != "2024-01-10" {
			t.Errorf("body = %v", gotBody)
		}
		if _, ok := gotBody["notes"]; ok {
			t.Error("nil notes should be omitted")
		}
		if inj.ID != "inj-1" || inj.DoseNumber != 1 || inj.Site != models.SiteAbdomenLeft {
			t.Errorf("LogInjection() = %+v", inj)
		}
	})

	t.Run("toggle habit", func(t *testing.T) {
		if _, err := c.ToggleHabit(ctx, ToggleHabitRequest{UserID: "u1", Habit: models.HabitExercise, Value: true}); err != nil {
			t.Fatalf("ToggleHabit() error = %v", err)
		}
		if gotMethod != http.MethodPatch || gotPath != "/habits/today" {
			t.Errorf("request = %s %s", gotMethod, gotPath)
		}
		if gotBody["habit"] != "exercise" || gotBody["value"] != true {
			t.Errorf("body = %v", gotBody)
		}
	})

	t.Run("month", func(t *testing.T) {
		agg, err := c.Month(ctx, "u1", 2024, time.February)
		if err != nil {
			t.Fatalf("Month() error = %v", err)
		}
		if agg.Year != 2024 || agg.Month != time.February {
			t.Errorf("Month() = %+v", agg)
		}
	})
}

func TestHTTPClientErrorNormalization(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"validation with field", http.StatusBadRequest, `{"error":"weight must be between 20 and 400","field":"weight"}`, apperrors.ErrValidation},
		{"auth", http.StatusUnauthorized, `{"error":"token expired"}`, apperrors.ErrAuth},
		{"conflict", http.StatusConflict, `{"error":"changed"}`, apperrors.ErrConflict},
		{"plain text body", http.StatusInternalServerError, "boom", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := NewHTTPClient(srv.URL)
			if err != nil {
				t.Fatalf("NewHTTPClient() error = %v", err)
			}
			_, err = c.LogWeighIn(context.Background(), LogWeighInRequest{UserID: "u1", Weight: 900})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if apperrors.IsRetryable(err) {
				t.Errorf("HTTP error responses must not be retryable: %v", err)
			}
			if got := apperrors.StatusCode(err); got != tt.status {
				t.Errorf("StatusCode() = %d, want %d", got, tt.status)
			}

			var verr *apperrors.ValidationError
			if errors.As(err, &verr) && verr.Field != "weight" {
				t.Errorf("Field = %q, want weight", verr.Field)
			}
		})
	}
}

func TestHTTPClientNetworkErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewHTTPClient(url)
	if err != nil {
		t.Fatalf("NewHTTPClient() error = %v", err)
	}
	_, err = c.InjectionStatus(context.Background(), "u1", models.MustParseDate("2024-01-10"))
	if !errors.Is(err, apperrors.ErrNetwork) || !apperrors.IsRetryable(err) {
		t.Errorf("error = %v, want retryable network error", err)
	}
}
