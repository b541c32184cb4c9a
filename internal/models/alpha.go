package models

import "time"

// AlphaSession is one workout session from an Alpha Progression CSV export.
type AlphaSession struct {
	Name      string
	Date      time.Time
	Duration  string
	Exercises []AlphaExercise
}

// AlphaExercise is a single exercise within an exported session.
type AlphaExercise struct {
	Number     int
	Name       string
	Equipment  string
	TargetReps int
	Sets       []AlphaSet
}

// AlphaSet is one exported set (working or warmup). RIR is reps in reserve.
type AlphaSet struct {
	Number           int
	WeightKg         float64
	IsBodyweightPlus bool
	Reps             int
	RIR              float64
	IsWarmup         bool
}

// WorkingSets returns the non-warmup sets in export order.
func (e AlphaExercise) WorkingSets() []AlphaSet {
	var out []AlphaSet
	for _, s := range e.Sets {
		if !s.IsWarmup {
			out = append(out, s)
		}
	}
	return out
}
