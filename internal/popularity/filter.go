package popularity

import (
	"time"

	"github.com/playvault/game-request-api/internal/models"
)

// DropUnnamed removes metadata stubs from a ranked list. Runs after the
// order-preserving metadata join, so the surviving games keep their rank
// order.
func DropUnnamed(games []models.RankedGame) []models.RankedGame {
	kept := make([]models.RankedGame, 0, len(games))
	for _, g := range games {
		if g.IsStub() {
			continue
		}
		kept = append(kept, g)
	}
	return kept
}

// ReleasedWithinDays builds a predicate keeping games released within the
// given window, ending now: announced games with a future release date are
// out. Games without a release date pass: an unknown date is not evidence
// the game is old.
func ReleasedWithinDays(days int) func(models.RankedGame) bool {
	now := time.Now()
	cutoff := now.AddDate(0, 0, -days).Unix()
	horizon := now.Unix()
	return func(g models.RankedGame) bool {
		if g.FirstReleaseDate == 0 {
			return true
		}
		return g.FirstReleaseDate >= cutoff && g.FirstReleaseDate <= horizon
	}
}

func applyFilter(games []models.RankedGame, keep func(models.RankedGame) bool) []models.RankedGame {
	if keep == nil {
		return games
	}
	kept := make([]models.RankedGame, 0, len(games))
	for _, g := range games {
		if keep(g) {
			kept = append(kept, g)
		}
	}
	return kept
}
