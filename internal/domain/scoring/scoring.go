// Package scoring computes running totals and summaries from score
// records. Everything here is a pure function of its input; persistence
// and transport live elsewhere.
package scoring

import (
	"sort"

	"github.com/FawziYas/osce-project/internal/domain/model"
)

// PassThreshold is the percentage at or above which a student passes.
const PassThreshold = 60.0

// Totals is the derived view of one score record.
type Totals struct {
	TotalScore float64
	MaxScore   float64
	Percentage float64

	PassedCritical bool
	// FailedCritical lists critical item ids scored below max, sorted
	// for deterministic output.
	FailedCritical []string

	ItemsMarked int
}

// Aggregate folds a record's items into running totals.
func Aggregate(rec *model.ScoreRecord) Totals {
	t := Totals{PassedCritical: true}
	if rec == nil {
		return t
	}

	for id, item := range rec.Items {
		t.TotalScore += item.Score
		t.MaxScore += item.MaxPoints
		t.ItemsMarked++
		if item.IsCritical && item.Score < item.MaxPoints {
			t.FailedCritical = append(t.FailedCritical, id)
		}
	}
	sort.Strings(t.FailedCritical)
	t.PassedCritical = len(t.FailedCritical) == 0

	if t.MaxScore > 0 {
		t.Percentage = t.TotalScore / t.MaxScore * 100
	}
	return t
}

// StudentResult is one student's line in a session summary.
type StudentResult struct {
	StudentNumber string
	FullName      string
	TotalScore    float64
	MaxScore      float64
	Percentage    float64
	Passed        bool
}

// Summary aggregates a whole session's records for the report's
// summary stats section.
type Summary struct {
	TotalStudents     int
	CompletedStudents int
	AveragePercentage float64
	PassRate          float64
}

// Summarize computes session-level stats from per-student results.
// A student counts as completed once any points were recorded against a
// non-zero maximum.
func Summarize(results []StudentResult) Summary {
	s := Summary{TotalStudents: len(results)}

	var totalPct float64
	var passed int
	for _, r := range results {
		if r.TotalScore == 0 && r.MaxScore == 0 {
			continue
		}
		s.CompletedStudents++
		totalPct += r.Percentage
		if r.Passed {
			passed++
		}
	}

	if s.CompletedStudents > 0 {
		s.AveragePercentage = totalPct / float64(s.CompletedStudents)
		s.PassRate = float64(passed) / float64(s.CompletedStudents) * 100
	}
	return s
}
