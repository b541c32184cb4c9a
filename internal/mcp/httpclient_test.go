package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/models"
)

// TestQueryWorkoutSets verifies the client sends the time range, filter and
// API key and decodes the rows.
func TestQueryWorkoutSets(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/sets" {
			t.Errorf("path = %s, want /api/v1/sets", r.URL.Path)
		}
		if got := r.Header.Get("X-API-Key"); got != "k" {
			t.Errorf("X-API-Key = %q, want k", got)
		}
		q := r.URL.Query()
		if q.Get("exercise") != "squat" || q.Get("start") != "2026-01-01T00:00:00Z" {
			t.Errorf("query = %v", q)
		}
		reps := 5
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]models.WorkoutSetRow{{ExerciseName: "Squat", SetNumber: 1, Reps: &reps}})
	}))
	defer ts.Close()

	client := NewHTTPClient(ts.URL+"/", "k")
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows, err := client.QueryWorkoutSets(context.Background(), start, start.AddDate(0, 0, 7), "squat")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ExerciseName != "Squat" || *rows[0].Reps != 5 {
		t.Errorf("rows = %+v", rows)
	}
}

// TestQueryWorkoutSetsError verifies non-200 answers surface the status.
func TestQueryWorkoutSetsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := NewHTTPClient(ts.URL, "").QueryWorkoutSets(context.Background(), time.Now(), time.Now(), "")
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("error = %v, want a 500 error", err)
	}
}
