package stats

import (
	"sort"

	"github.com/verte-zerg/codecheck/internal/model"
)

// WeakExercises returns up to top exercises that were never passed, most
// attempted first.
func WeakExercises(aggs []model.ExerciseAggregate, top int) []model.ExerciseAggregate {
	candidates := make([]model.ExerciseAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Passed == 0 && agg.Runs > 0 {
			candidates = append(candidates, agg)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Runs == candidates[j].Runs {
			if candidates[i].Lesson == candidates[j].Lesson {
				return candidates[i].Exercise < candidates[j].Exercise
			}
			return candidates[i].Lesson < candidates[j].Lesson
		}
		return candidates[i].Runs > candidates[j].Runs
	})
	if top > 0 && top < len(candidates) {
		candidates = candidates[:top]
	}
	return candidates
}
