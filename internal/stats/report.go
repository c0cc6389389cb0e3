// Package stats summarizes check history.
package stats

import (
	"context"

	"github.com/verte-zerg/codecheck/internal/model"
	"github.com/verte-zerg/codecheck/internal/store"
)

// Report contains precomputed data for history rendering.
type Report struct {
	// Runs are ordered newest first.
	Runs      []model.RunRecord
	Exercises []model.ExerciseAggregate
}

// BuildReport loads runs and per-exercise aggregates matching cfg.
func BuildReport(ctx context.Context, st *store.Store, cfg model.HistoryConfig) (Report, error) {
	runs, err := st.ListRuns(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	exercises, err := st.ListExerciseAggregates(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	return Report{Runs: runs, Exercises: exercises}, nil
}

// Chronological returns the runs oldest first.
func (r Report) Chronological() []model.RunRecord {
	out := make([]model.RunRecord, len(r.Runs))
	for i, run := range r.Runs {
		out[len(r.Runs)-1-i] = run
	}
	return out
}
