package popularity

import (
	"sort"

	"github.com/playvault/game-request-api/internal/models"
)

// Aggregate merges raw primitives into one weighted score per game.
// Pure computation: no I/O, empty input yields empty output.
//
// The score is the dot product of the profile weights and the game's
// per-type values, with absent types contributing 0. Summation runs over
// the profile's types in ascending type id so identical inputs always
// produce the bit-identical float result. Output order is first
// encounter in the input; callers sort.
func Aggregate(primitives []models.PopularityPrimitive, weights map[int]float64) []models.ScoredGame {
	order := make([]int64, 0, len(primitives))
	values := make(map[int64]map[int]float64, len(primitives))

	for _, p := range primitives {
		typeValues, seen := values[p.GameID]
		if !seen {
			typeValues = make(map[int]float64)
			values[p.GameID] = typeValues
			order = append(order, p.GameID)
		}
		typeValues[p.PopularityType] = p.Value
	}

	types := make([]int, 0, len(weights))
	for t := range weights {
		types = append(types, t)
	}
	sort.Ints(types)

	scored := make([]models.ScoredGame, 0, len(order))
	for _, gameID := range order {
		typeValues := values[gameID]

		score := 0.0
		for _, t := range types {
			score += weights[t] * typeValues[t]
		}

		details := make(map[int]float64, len(typeValues))
		for t, v := range typeValues {
			details[t] = v
		}

		scored = append(scored, models.ScoredGame{
			GameID:        gameID,
			WeightedScore: score,
			Details:       details,
		})
	}
	return scored
}

// SortByScore orders games by weighted score descending. The sort is
// stable: equal scores keep their upstream order.
func SortByScore(scored []models.ScoredGame) {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].WeightedScore > scored[j].WeightedScore
	})
}
