// Package popularity implements the ranking pipeline: raw popularity
// primitives are fetched from the catalog, blended into weighted scores,
// joined with game metadata and cached as full ranked lists. List
// endpoints slice the cached result per request.
package popularity

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/playvault/game-request-api/internal/cache"
	"github.com/playvault/game-request-api/internal/config"
	"github.com/playvault/game-request-api/internal/models"
)

// CatalogClient is the slice of the catalog API the pipeline consumes.
type CatalogClient interface {
	PopularityPrimitives(ctx context.Context, types []int, limit int) ([]models.PopularityPrimitive, error)
	GamesByIDs(ctx context.Context, ids []int64, minRatingCount int) ([]models.GameSummary, error)
	GamesByGenre(ctx context.Context, genreID int64, minRatingCount int) ([]models.GameSummary, error)
}

type Service struct {
	catalog CatalogClient
	store   cache.Store
	cfg     config.PopularityConfig
	ttl     time.Duration
}

func NewService(catalog CatalogClient, store cache.Store, cfg config.PopularityConfig, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{catalog: catalog, store: store, cfg: cfg, ttl: ttl}
}

// RecentPopular serves the blended leaderboard of recent releases.
func (s *Service) RecentPopular(ctx context.Context, limit int) ([]models.RankedGame, error) {
	return s.serveView(ctx, recentPopularView(s.cfg.Profiles[config.ProfileRecent]), limit)
}

// CustomTop100 serves the all-time blended leaderboard.
func (s *Service) CustomTop100(ctx context.Context, limit int) ([]models.RankedGame, error) {
	return s.serveView(ctx, customTopView(s.cfg.Profiles[config.ProfileCustom100]), limit)
}

// PopularByType serves a single-metric leaderboard. A non-positive type
// falls back to the configured default metric.
func (s *Service) PopularByType(ctx context.Context, popType, limit int) ([]models.RankedGame, error) {
	if popType <= 0 {
		popType = s.cfg.DefaultType
	}
	return s.serveView(ctx, typeView(popType), limit)
}

// GenreList serves the best rated games of one genre. No weighting is
// involved; the upstream order is cached and sliced as-is.
func (s *Service) GenreList(ctx context.Context, genreID int64, minRatingCount, limit int) ([]models.GameSummary, error) {
	key := genreKey(genreID, minRatingCount)

	if data, err := s.store.Get(ctx, key); err == nil {
		var games []models.GameSummary
		if err := json.Unmarshal(data, &games); err != nil {
			log.Printf("[CACHE] corrupt entry %s: %v", key, err)
		} else {
			return head(games, limit), nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Printf("[CACHE] reading %s failed: %v", key, err)
	}

	games, err := s.catalog.GamesByGenre(ctx, genreID, minRatingCount)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, key, games)
	return head(games, limit), nil
}

// WarmUp refreshes the standing views concurrently so the first requests
// after boot hit warm caches. Failures are logged, never fatal.
func (s *Service) WarmUp(ctx context.Context) {
	views := []View{
		recentPopularView(s.cfg.Profiles[config.ProfileRecent]),
		customTopView(s.cfg.Profiles[config.ProfileCustom100]),
		typeView(s.cfg.DefaultType),
	}

	var wg sync.WaitGroup
	for _, view := range views {
		wg.Add(1)
		go func(v View) {
			defer wg.Done()
			start := time.Now()
			games, err := s.refreshView(ctx, v)
			if err != nil {
				log.Printf("[WARMUP] %s failed: %v", v.CacheKey, err)
				return
			}
			log.Printf("[WARMUP] %s ready with %d games in %s", v.CacheKey, len(games), time.Since(start))
		}(view)
	}
	wg.Wait()
}

func (s *Service) serveView(ctx context.Context, view View, limit int) ([]models.RankedGame, error) {
	if cached, ok := s.cachedRanked(ctx, view.CacheKey); ok {
		return head(cached, limit), nil
	}
	full, err := s.refreshView(ctx, view)
	if err != nil {
		return nil, err
	}
	return head(full, limit), nil
}

// refreshView recomputes one view end to end and caches the full result.
// Any upstream failure aborts the refresh before the cache is written, so
// a stale entry is never replaced by a partial one.
func (s *Service) refreshView(ctx context.Context, view View) ([]models.RankedGame, error) {
	primitives, err := s.primitives(ctx, view.Types())
	if err != nil {
		return nil, err
	}

	scored := Aggregate(primitives, view.Weights)
	SortByScore(scored)

	ranked, err := s.resolve(ctx, scored, view.MinRatingCount)
	if err != nil {
		return nil, err
	}

	ranked = DropUnnamed(ranked)
	ranked = applyFilter(ranked, view.PostFilter)

	s.writeCache(ctx, view.CacheKey, ranked)
	return ranked, nil
}

// primitives returns the raw observations for a type set, cached under
// the shared primitive key. When the cache itself is down the fetch goes
// straight upstream; when both sides fail the view degrades to empty
// instead of erroring.
func (s *Service) primitives(ctx context.Context, types []int) ([]models.PopularityPrimitive, error) {
	key := primitivesKey(types)

	data, getErr := s.store.Get(ctx, key)
	if getErr == nil {
		var cached []models.PopularityPrimitive
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		log.Printf("[CACHE] corrupt entry %s: refetching", key)
		getErr = cache.ErrMiss
	}

	fetched, err := s.catalog.PopularityPrimitives(ctx, types, s.cfg.PrimitiveLimit)
	if err != nil {
		if !errors.Is(getErr, cache.ErrMiss) {
			log.Printf("[POPULARITY] cache (%v) and upstream (%v) unavailable, degrading to empty primitives", getErr, err)
			return nil, nil
		}
		return nil, err
	}

	if payload, err := json.Marshal(fetched); err == nil {
		if err := s.store.Set(ctx, key, payload, s.ttl); err != nil {
			log.Printf("[CACHE] writing %s failed: %v", key, err)
		}
	}
	return fetched, nil
}

// resolve joins scored games with catalog metadata, preserving rank
// order. Ids the catalog does not return come back as stubs so the
// result always has one element per scored game, position for position.
func (s *Service) resolve(ctx context.Context, scored []models.ScoredGame, minRatingCount int) ([]models.RankedGame, error) {
	ids := make([]int64, len(scored))
	for i, sg := range scored {
		ids[i] = sg.GameID
	}

	summaries, err := s.catalog.GamesByIDs(ctx, ids, minRatingCount)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]models.GameSummary, len(summaries))
	for _, g := range summaries {
		byID[g.ID] = g
	}

	ranked := make([]models.RankedGame, len(scored))
	for i, sg := range scored {
		summary, ok := byID[sg.GameID]
		if !ok {
			summary = models.GameSummary{ID: sg.GameID}
		}
		ranked[i] = models.RankedGame{GameSummary: summary, WeightedScore: sg.WeightedScore}
	}
	return ranked, nil
}

func (s *Service) cachedRanked(ctx context.Context, key string) ([]models.RankedGame, bool) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			log.Printf("[CACHE] reading %s failed: %v", key, err)
		}
		return nil, false
	}
	var games []models.RankedGame
	if err := json.Unmarshal(data, &games); err != nil {
		log.Printf("[CACHE] corrupt entry %s: %v", key, err)
		return nil, false
	}
	return games, true
}

func (s *Service) writeCache(ctx context.Context, key string, value interface{}) {
	payload, err := json.Marshal(value)
	if err != nil {
		log.Printf("[CACHE] marshaling %s failed: %v", key, err)
		return
	}
	if err := s.store.Set(ctx, key, payload, s.ttl); err != nil {
		log.Printf("[CACHE] writing %s failed: %v", key, err)
	}
}

// head returns the first limit elements; a non-positive limit keeps all.
func head[T any](list []T, limit int) []T {
	if limit > 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}
