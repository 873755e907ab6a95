package models

// PopularityPrimitive is one raw popularity observation from the catalog:
// a single (game, metric type, value) tuple as returned by the upstream
// popularity_primitives endpoint.
type PopularityPrimitive struct {
	GameID         int64   `json:"game_id"`
	PopularityType int     `json:"popularity_type"`
	Value          float64 `json:"value"`
	CalculatedAt   int64   `json:"calculated_at,omitempty"`
}

// ScoredGame is the transient result of one aggregation pass. It is
// recomputed on every refresh and never cached on its own.
type ScoredGame struct {
	GameID        int64           `json:"game_id"`
	WeightedScore float64         `json:"weighted_score"`
	Details       map[int]float64 `json:"details"`
}

// Cover references a cover image in the catalog CDN.
type Cover struct {
	ID      int64  `json:"id,omitempty"`
	ImageID string `json:"image_id,omitempty"`
}

// GameSummary holds the reduced descriptive fields served by list
// endpoints. A summary with an empty Name is a stub for a game whose
// metadata could not be resolved.
type GameSummary struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name,omitempty"`
	Slug             string   `json:"slug,omitempty"`
	Cover            *Cover   `json:"cover,omitempty"`
	CoverURL         string   `json:"cover_url,omitempty"`
	FirstReleaseDate int64    `json:"first_release_date,omitempty"`
	TotalRatingCount int      `json:"total_rating_count,omitempty"`
	GenreNames       []string `json:"genre_names"`
}

// IsStub reports whether the summary is a placeholder for an unresolved
// catalog entry.
func (g GameSummary) IsStub() bool {
	return g.Name == ""
}

// RankedGame is the wire format of one result-cache element: the
// descriptive fields plus the weighted score that produced its rank.
type RankedGame struct {
	GameSummary
	WeightedScore float64 `json:"weighted_score"`
}
