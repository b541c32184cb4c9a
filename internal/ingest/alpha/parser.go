// Package alpha reads Alpha Progression CSV exports.
package alpha

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
)

var (
	// "Session Name";"2026-02-19 4:54 h";"1:02 hr"
	sessionLine = regexp.MustCompile(`^"(.+)";"(\d{4}-\d{2}-\d{2}\s+\d+:\d+)\s+h";"(.+)"$`)

	// "1. Exercise Name · Equipment · 8 reps[· modifiers]"[;"warm-up info"]
	exerciseLine = regexp.MustCompile(`^"(\d+)\.\s+(.+?)(?:\s+·\s+(\S.*?))?\s+·\s+(\d+)\s+reps(.*?)"(?:;"(.+)")?$`)

	// 1;115;8;1
	setLine = regexp.MustCompile(`^(\d+);(.+);(\d+);(.+)$`)

	// WU1 · 37,5 kg · 9 reps
	warmupItem = regexp.MustCompile(`WU(\d+)\s+·\s+(.+?)\s+kg\s+·\s+(\d+)\s+reps`)
)

const columnHeader = "#;KG;REPS;RIR"

// parser accumulates sessions line by line. A blank line or a new session
// header closes the open session.
type parser struct {
	sessions []models.AlphaSession
	session  *models.AlphaSession
	exercise *models.AlphaExercise
}

func (p *parser) closeExercise() {
	if p.exercise != nil {
		p.session.Exercises = append(p.session.Exercises, *p.exercise)
		p.exercise = nil
	}
}

func (p *parser) closeSession() {
	if p.session == nil {
		return
	}
	p.closeExercise()
	p.sessions = append(p.sessions, *p.session)
	p.session = nil
}

func (p *parser) line(line string) error {
	switch {
	case line == "":
		p.closeSession()

	case line == columnHeader:

	case sessionLine.MatchString(line):
		m := sessionLine.FindStringSubmatch(line)
		p.closeSession()
		date, err := parseSessionDate(m[2])
		if err != nil {
			return err
		}
		p.session = &models.AlphaSession{Name: m[1], Date: date, Duration: m[3]}

	case exerciseLine.MatchString(line):
		m := exerciseLine.FindStringSubmatch(line)
		if p.session == nil {
			return fmt.Errorf("exercise outside a session: %q", line)
		}
		p.closeExercise()
		number, _ := strconv.Atoi(m[1])
		target, _ := strconv.Atoi(m[4])
		p.exercise = &models.AlphaExercise{
			Number:     number,
			Name:       strings.TrimSpace(m[2]),
			Equipment:  strings.TrimSpace(m[3]),
			TargetReps: target,
			Sets:       parseWarmups(m[6]),
		}

	case setLine.MatchString(line):
		m := setLine.FindStringSubmatch(line)
		if p.exercise == nil {
			return fmt.Errorf("set outside an exercise: %q", line)
		}
		number, _ := strconv.Atoi(m[1])
		weight, bodyweight := parseLoad(m[2])
		reps, _ := strconv.Atoi(m[3])
		p.exercise.Sets = append(p.exercise.Sets, models.AlphaSet{
			Number:           number,
			WeightKg:         weight,
			IsBodyweightPlus: bodyweight,
			Reps:             reps,
			RIR:              commaFloat(m[4]),
		})
	}
	// Anything else is export metadata.
	return nil
}

// Parse reads an Alpha Progression CSV export.
func Parse(r io.Reader) ([]models.AlphaSession, error) {
	var p parser
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		if err := p.line(strings.TrimSpace(sc.Text())); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	p.closeSession()
	return p.sessions, nil
}

// parseSessionDate accepts both "2026-02-19 4:54" and "2026-02-19 16:54".
func parseSessionDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 3:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing session date %q", s)
}

// parseWarmups reads "WU1 · 37,5 kg · 9 reps<br>WU2 · ..." into warm-up sets.
func parseWarmups(s string) []models.AlphaSet {
	var sets []models.AlphaSet
	for _, item := range strings.Split(s, "<br>") {
		m := warmupItem.FindStringSubmatch(item)
		if m == nil {
			continue
		}
		number, _ := strconv.Atoi(m[1])
		weight, bodyweight := parseLoad(m[2])
		reps, _ := strconv.Atoi(m[3])
		sets = append(sets, models.AlphaSet{
			Number:           number,
			WeightKg:         weight,
			IsBodyweightPlus: bodyweight,
			Reps:             reps,
			IsWarmup:         true,
		})
	}
	return sets
}

// parseLoad reads "102,5" as 102.5 kg and "+35" as bodyweight plus 35 kg.
func parseLoad(s string) (kg float64, bodyweightPlus bool) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "+"); ok {
		return commaFloat(rest), true
	}
	return commaFloat(s), false
}

// commaFloat parses a decimal with a comma separator. Garbage reads as 0.
func commaFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	return f
}
