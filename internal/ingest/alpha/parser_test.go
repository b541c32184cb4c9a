package alpha

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/store"
)

const sampleCSV = `
"Legs · Day 2 · Week 4 · Push-Pull-Legs";"2026-02-19 4:54 h";"1:02 hr"
"1. Hack Squats · Machine · 8 reps";"WU1 · 37,5 kg · 9 reps<br>WU2 · 72,5 kg · 7 reps"
#;KG;REPS;RIR
1;115;8;1
2;115;10;0,5
"2. Sumo Squats · Smith machine · 10 reps"
#;KG;REPS;RIR
1;70;8;1
"3. Hanging Leg Raises · Bodyweight · 12 reps · 2 dropsets";"WU1 · +0 kg · 8 reps"
#;KG;REPS;RIR
1;+5;12;1
2;+0;12;0

"Push · Day 1 · Week 4 · Push-Pull-Legs";"2026-02-17 17:04 h";"1:12 hr"
"1. Bench Press · Barbell · 6 reps"
#;KG;REPS;RIR
1;102,5;6;0
2;100;6;0
"2. Hack Squats · Machine · 8 reps"
#;KG;REPS;RIR
1;100;8;2
`

// TestParseSessions verifies sessions, exercises, warm-ups and the
// equipment and modifier variants of the exercise header.
func TestParseSessions(t *testing.T) {
	sessions, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(sessions))
	}

	legs := sessions[0]
	if legs.Duration != "1:02 hr" || len(legs.Exercises) != 3 {
		t.Fatalf("legs = %q with %d exercises", legs.Duration, len(legs.Exercises))
	}
	if want := time.Date(2026, 2, 19, 4, 54, 0, 0, time.UTC); !legs.Date.Equal(want) {
		t.Errorf("legs date = %v, want %v", legs.Date, want)
	}

	hack := legs.Exercises[0]
	if hack.Name != "Hack Squats" || hack.Equipment != "Machine" || hack.TargetReps != 8 {
		t.Errorf("hack header = %+v", hack)
	}
	if len(hack.Sets) != 4 || len(hack.WorkingSets()) != 2 {
		t.Errorf("hack sets = %d (working %d), want 4 (2)", len(hack.Sets), len(hack.WorkingSets()))
	}
	if hack.Sets[0].WeightKg != 37.5 || !hack.Sets[0].IsWarmup {
		t.Errorf("first warm-up = %+v", hack.Sets[0])
	}
	if rir := hack.Sets[3].RIR; rir != 0.5 {
		t.Errorf("fractional RIR = %v, want 0.5", rir)
	}

	if sumo := legs.Exercises[1]; sumo.Equipment != "Smith machine" {
		t.Errorf("sumo equipment = %q", sumo.Equipment)
	}

	raises := legs.Exercises[2]
	if raises.Name != "Hanging Leg Raises" || raises.TargetReps != 12 {
		t.Errorf("raises header = %+v", raises)
	}
	if s := raises.Sets[1]; !s.IsBodyweightPlus || s.WeightKg != 5 {
		t.Errorf("bodyweight plus set = %+v", s)
	}
	if s := raises.Sets[0]; !s.IsWarmup || !s.IsBodyweightPlus || s.WeightKg != 0 {
		t.Errorf("bodyweight warm-up = %+v", s)
	}

	if push := sessions[1]; push.Date.Hour() != 17 || push.Exercises[0].Sets[0].WeightKg != 102.5 {
		t.Errorf("push = %v, first set %+v", push.Date, push.Exercises[0].Sets[0])
	}
}

// TestParseEmpty verifies empty input yields no sessions.
func TestParseEmpty(t *testing.T) {
	sessions, err := Parse(strings.NewReader("\n\n"))
	if err != nil || len(sessions) != 0 {
		t.Errorf("Parse(empty) = %d sessions, %v", len(sessions), err)
	}
}

// TestParseOrphanSet verifies a set line before any exercise is an error.
func TestParseOrphanSet(t *testing.T) {
	in := `"Push";"2026-02-17 5:04 h";"1:12 hr"` + "\n1;100;5;1\n"
	if _, err := Parse(strings.NewReader(in)); err == nil {
		t.Error("Parse accepted a set outside an exercise")
	}
}

// TestParseLoad covers the weight notations.
func TestParseLoad(t *testing.T) {
	tests := []struct {
		in   string
		kg   float64
		plus bool
	}{
		{"102,5", 102.5, false},
		{"+35", 35, true},
		{"+0", 0, true},
		{"60", 60, false},
	}
	for _, tt := range tests {
		kg, plus := parseLoad(tt.in)
		if kg != tt.kg || plus != tt.plus {
			t.Errorf("parseLoad(%q) = %v, %v, want %v, %v", tt.in, kg, plus, tt.kg, tt.plus)
		}
	}
}

// TestImportRecordsLatestWorkingSets verifies the importer keeps the most
// recent session per exercise and skips warm-ups.
func TestImportRecordsLatestWorkingSets(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.Open(t.TempDir(), log)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	ctx := context.Background()

	res, err := NewImporter(st, log).Import(ctx, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	if res.Sessions != 2 || res.Exercises != 4 {
		t.Errorf("result = %+v, want 2 sessions and 4 exercises", res)
	}

	history := store.GetOr(ctx, st, store.KeyExerciseHistory, map[string]models.ExerciseHistory{})
	hack := history[session.HistoryKey("Hack Squats")]
	if len(hack.Sets) != 2 || hack.Sets[0].Weight != 115 || hack.Sets[1].Reps != 10 {
		t.Errorf("hack history = %+v, want the 19 Feb working sets", hack)
	}
	bench := history[session.HistoryKey("bench press")]
	if len(bench.Sets) != 2 || bench.Sets[0].Weight != 102.5 {
		t.Errorf("bench history = %+v", bench)
	}
}
