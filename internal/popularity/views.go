package popularity

import (
	"fmt"
	"sort"
	"strings"

	"github.com/playvault/game-request-api/internal/config"
	"github.com/playvault/game-request-api/internal/models"
)

// View describes one ranked listing as data: which metric types feed it,
// how they blend, and where the full result lands in the cache. The set
// of views is closed; callers never construct arbitrary ones.
type View struct {
	CacheKey       string
	Weights        map[int]float64
	MinRatingCount int

	// Applied after the metadata join and stub drop; nil keeps everything.
	PostFilter func(models.RankedGame) bool
}

// Types returns the view's metric types in ascending order.
func (v View) Types() []int {
	types := make([]int, 0, len(v.Weights))
	for t := range v.Weights {
		types = append(types, t)
	}
	sort.Ints(types)
	return types
}

func recentPopularView(profile config.WeightProfile) View {
	return View{
		CacheKey:       "popular_recent",
		Weights:        profile.Weights,
		MinRatingCount: profile.MinRatingCount,
		PostFilter:     ReleasedWithinDays(365),
	}
}

func customTopView(profile config.WeightProfile) View {
	return View{
		CacheKey:       "custom_top100",
		Weights:        profile.Weights,
		MinRatingCount: profile.MinRatingCount,
	}
}

// typeView is the degenerate single-metric leaderboard: one type with
// weight 1.0, so the weighted score equals the raw value.
func typeView(popType int) View {
	return View{
		CacheKey: fmt.Sprintf("popular_by_type:%d", popType),
		Weights:  map[int]float64{popType: 1.0},
	}
}

// primitivesKey derives the shared primitive-cache key from the sorted
// type set, so views fetching the same types share one upstream call.
func primitivesKey(types []int) string {
	sorted := make([]int, len(types))
	copy(sorted, types)
	sort.Ints(sorted)

	parts := make([]string, len(sorted))
	for i, t := range sorted {
		parts[i] = fmt.Sprintf("%d", t)
	}
	return "raw_primitives_" + strings.Join(parts, "_")
}

func genreKey(genreID int64, minRatingCount int) string {
	return fmt.Sprintf("genre_list:%d:%d", genreID, minRatingCount)
}
