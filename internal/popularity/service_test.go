package popularity

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/playvault/game-request-api/internal/cache"
	"github.com/playvault/game-request-api/internal/config"
	"github.com/playvault/game-request-api/internal/models"
)

// fakeCatalog serves canned data and counts calls. GamesByIDs returns the
// known games in reverse id order to exercise the order-preserving join.
type fakeCatalog struct {
	mu sync.Mutex

	primitives    []models.PopularityPrimitive
	primitivesErr error
	games         map[int64]models.GameSummary
	byIDsErr      error
	genre         []models.GameSummary

	primitiveCalls int
	byIDsCalls     int
	genreCalls     int
}

func (f *fakeCatalog) PopularityPrimitives(_ context.Context, _ []int, _ int) ([]models.PopularityPrimitive, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.primitiveCalls++
	if f.primitivesErr != nil {
		return nil, f.primitivesErr
	}
	return f.primitives, nil
}

func (f *fakeCatalog) GamesByIDs(_ context.Context, ids []int64, _ int) ([]models.GameSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byIDsCalls++
	if f.byIDsErr != nil {
		return nil, f.byIDsErr
	}
	var found []models.GameSummary
	for i := len(ids) - 1; i >= 0; i-- {
		if g, ok := f.games[ids[i]]; ok {
			found = append(found, g)
		}
	}
	return found, nil
}

func (f *fakeCatalog) GamesByGenre(_ context.Context, _ int64, _ int) ([]models.GameSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genreCalls++
	return f.genre, nil
}

func (f *fakeCatalog) calls() (primitives, byIDs, genre int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.primitiveCalls, f.byIDsCalls, f.genreCalls
}

// failingStore simulates cache infrastructure being down, which is
// distinct from a healthy miss.
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("store down")
}
func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("store down")
}
func (failingStore) FlushAll(context.Context) error { return errors.New("store down") }
func (failingStore) Close() error                   { return nil }

func newTestStore() *cache.MemoryStore {
	return cache.NewMemoryStore(64)
}

func testService(catalog CatalogClient, store cache.Store) *Service {
	cfg := config.PopularityConfig{
		PrimitiveLimit: 500,
		DefaultType:    5,
		Profiles: map[string]config.WeightProfile{
			config.ProfileRecent:    {Weights: map[int]float64{1: 0.2, 2: 0.8}},
			config.ProfileCustom100: {Weights: map[int]float64{2: 1.0}},
		},
	}
	return NewService(catalog, store, cfg, time.Hour)
}

func namedGame(id int64, name string, released time.Time) models.GameSummary {
	g := models.GameSummary{ID: id, Name: name, Slug: name}
	if !released.IsZero() {
		g.FirstReleaseDate = released.Unix()
	}
	return g
}

func TestRecentPopularRanksAndResolves(t *testing.T) {
	now := time.Now()
	catalog := &fakeCatalog{
		primitives: []models.PopularityPrimitive{
			{GameID: 1, PopularityType: 1, Value: 10},
			{GameID: 1, PopularityType: 2, Value: 0},
			{GameID: 2, PopularityType: 1, Value: 5},
			{GameID: 2, PopularityType: 2, Value: 20},
		},
		games: map[int64]models.GameSummary{
			1: namedGame(1, "alpha", now),
			2: namedGame(2, "beta", now),
		},
	}
	svc := testService(catalog, newTestStore())

	games, err := svc.RecentPopular(context.Background(), 0)
	if err != nil {
		t.Fatalf("RecentPopular: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("got %d games, want 2", len(games))
	}
	if games[0].ID != 2 || games[1].ID != 1 {
		t.Errorf("order = [%d, %d], want [2, 1]", games[0].ID, games[1].ID)
	}
	if games[0].Name != "beta" {
		t.Errorf("metadata join lost the name, got %q", games[0].Name)
	}
}

func TestSecondCallServedFromCache(t *testing.T) {
	catalog := &fakeCatalog{
		primitives: []models.PopularityPrimitive{
			{GameID: 1, PopularityType: 2, Value: 3},
		},
		games: map[int64]models.GameSummary{1: namedGame(1, "alpha", time.Now())},
	}
	svc := testService(catalog, newTestStore())
	ctx := context.Background()

	if _, err := svc.CustomTop100(ctx, 10); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := svc.CustomTop100(ctx, 10); err != nil {
		t.Fatalf("second call: %v", err)
	}

	primitives, byIDs, _ := catalog.calls()
	if primitives != 1 || byIDs != 1 {
		t.Errorf("upstream called %d/%d times, want 1/1 (second call cached)", primitives, byIDs)
	}
}

func TestCachedEntryRoundTripsRankedResult(t *testing.T) {
	// The cache holds the full ranked list as JSON. Decoding it back must
	// reproduce the served records in order, with fractional scores intact.
	catalog := &fakeCatalog{
		primitives: []models.PopularityPrimitive{
			{GameID: 1, PopularityType: 2, Value: 17.123456},
			{GameID: 2, PopularityType: 2, Value: 3.5},
		},
		games: map[int64]models.GameSummary{
			1: namedGame(1, "alpha", time.Now()),
			2: namedGame(2, "beta", time.Now()),
		},
	}
	store := newTestStore()
	svc := testService(catalog, store)
	ctx := context.Background()

	served, err := svc.CustomTop100(ctx, 0)
	if err != nil {
		t.Fatalf("CustomTop100: %v", err)
	}
	if len(served) != 2 || !scoresClose(served[0].WeightedScore, 17.123456) {
		t.Fatalf("served = %+v, want alpha scored 17.123456 first", served)
	}

	data, err := store.Get(ctx, "custom_top100")
	if err != nil {
		t.Fatalf("reading cache entry: %v", err)
	}
	var decoded []models.RankedGame
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decoding cache entry: %v", err)
	}
	if len(decoded) != len(served) {
		t.Fatalf("decoded %d records, want %d", len(decoded), len(served))
	}
	for i := range served {
		if decoded[i].ID != served[i].ID || decoded[i].Name != served[i].Name {
			t.Errorf("record %d = %d %q, want %d %q", i, decoded[i].ID, decoded[i].Name, served[i].ID, served[i].Name)
		}
		if !scoresClose(decoded[i].WeightedScore, served[i].WeightedScore) {
			t.Errorf("record %d score = %v, want %v", i, decoded[i].WeightedScore, served[i].WeightedScore)
		}
	}
}

func TestResolveKeepsRankOrderWithStubs(t *testing.T) {
	// Game 2 is unknown to the catalog and must come back as a stub in
	// its ranked position, then be dropped from the served list.
	catalog := &fakeCatalog{
		games: map[int64]models.GameSummary{
			1: namedGame(1, "alpha", time.Time{}),
			3: namedGame(3, "gamma", time.Time{}),
		},
	}
	svc := testService(catalog, newTestStore())

	scored := []models.ScoredGame{
		{GameID: 3, WeightedScore: 9},
		{GameID: 2, WeightedScore: 5},
		{GameID: 1, WeightedScore: 1},
	}
	ranked, err := svc.resolve(context.Background(), scored, 0)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(ranked) != 3 {
		t.Fatalf("resolve returned %d entries, want one per scored game", len(ranked))
	}
	for i, sg := range scored {
		if ranked[i].ID != sg.GameID {
			t.Errorf("position %d = game %d, want %d", i, ranked[i].ID, sg.GameID)
		}
	}
	if !ranked[1].IsStub() {
		t.Error("unresolved game 2 should be a stub")
	}

	served := DropUnnamed(ranked)
	if len(served) != 2 || served[0].ID != 3 || served[1].ID != 1 {
		t.Errorf("after stub drop got %+v, want games [3, 1]", served)
	}
}

func TestRecentPopularExcludesOldReleases(t *testing.T) {
	now := time.Now()
	catalog := &fakeCatalog{
		primitives: []models.PopularityPrimitive{
			{GameID: 1, PopularityType: 2, Value: 10},
			{GameID: 2, PopularityType: 2, Value: 9},
			{GameID: 3, PopularityType: 2, Value: 8},
			{GameID: 4, PopularityType: 2, Value: 7},
		},
		games: map[int64]models.GameSummary{
			1: namedGame(1, "fresh", now.AddDate(0, 0, -30)),
			2: namedGame(2, "old", now.AddDate(0, 0, -400)),
			3: namedGame(3, "undated", time.Time{}),
			4: namedGame(4, "announced", now.AddDate(0, 0, 30)),
		},
	}
	svc := testService(catalog, newTestStore())

	games, err := svc.RecentPopular(context.Background(), 0)
	if err != nil {
		t.Fatalf("RecentPopular: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("got %d games, want 2 (old and future releases excluded)", len(games))
	}
	if games[0].ID != 1 || games[1].ID != 3 {
		t.Errorf("order = [%d, %d], want [1, 3] (undated game kept)", games[0].ID, games[1].ID)
	}
}

func TestUpstreamFailureLeavesCacheUntouched(t *testing.T) {
	catalog := &fakeCatalog{primitivesErr: errors.New("upstream rejected credentials twice")}
	store := newTestStore()
	svc := testService(catalog, store)

	_, err := svc.RecentPopular(context.Background(), 10)
	if err == nil {
		t.Fatal("expected error when cache misses and upstream fails")
	}
	if store.Len() != 0 {
		t.Errorf("cache holds %d entries after failed refresh, want 0", store.Len())
	}
}

func TestCacheDownFallsBackToUpstream(t *testing.T) {
	catalog := &fakeCatalog{
		primitives: []models.PopularityPrimitive{
			{GameID: 1, PopularityType: 2, Value: 3},
		},
		games: map[int64]models.GameSummary{1: namedGame(1, "alpha", time.Now())},
	}
	svc := testService(catalog, failingStore{})

	games, err := svc.RecentPopular(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentPopular with cache down: %v", err)
	}
	if len(games) != 1 {
		t.Errorf("got %d games, want 1 served straight from upstream", len(games))
	}
}

func TestCacheAndUpstreamDownDegradesToEmpty(t *testing.T) {
	catalog := &fakeCatalog{primitivesErr: errors.New("upstream down")}
	svc := testService(catalog, failingStore{})

	games, err := svc.RecentPopular(context.Background(), 10)
	if err != nil {
		t.Fatalf("expected degraded empty result, got error: %v", err)
	}
	if len(games) != 0 {
		t.Errorf("got %d games, want 0", len(games))
	}
}

func TestPopularByTypeDefaultsMetric(t *testing.T) {
	catalog := &fakeCatalog{
		primitives: []models.PopularityPrimitive{
			{GameID: 1, PopularityType: 5, Value: 42},
		},
		games: map[int64]models.GameSummary{1: namedGame(1, "alpha", time.Time{})},
	}
	store := newTestStore()
	svc := testService(catalog, store)
	ctx := context.Background()

	games, err := svc.PopularByType(ctx, 0, 10)
	if err != nil {
		t.Fatalf("PopularByType: %v", err)
	}
	if len(games) != 1 || games[0].WeightedScore != 42 {
		t.Errorf("single-metric score = %+v, want raw value 42", games)
	}

	// The default type and the explicit type share one cache entry.
	if _, err := svc.PopularByType(ctx, 5, 10); err != nil {
		t.Fatalf("PopularByType(5): %v", err)
	}
	if primitives, _, _ := catalog.calls(); primitives != 1 {
		t.Errorf("upstream called %d times, want 1", primitives)
	}
}

func TestGenreListCachesUpstreamOrder(t *testing.T) {
	catalog := &fakeCatalog{
		genre: []models.GameSummary{
			namedGame(9, "ninth", time.Time{}),
			namedGame(4, "fourth", time.Time{}),
		},
	}
	svc := testService(catalog, newTestStore())
	ctx := context.Background()

	games, err := svc.GenreList(ctx, 12, 3, 1)
	if err != nil {
		t.Fatalf("GenreList: %v", err)
	}
	if len(games) != 1 || games[0].ID != 9 {
		t.Errorf("got %+v, want first upstream game only", games)
	}

	// Second call with a bigger limit slices the same cached full list.
	games, err = svc.GenreList(ctx, 12, 3, 10)
	if err != nil {
		t.Fatalf("GenreList second call: %v", err)
	}
	if len(games) != 2 {
		t.Errorf("got %d games, want 2", len(games))
	}
	if _, _, genreCalls := catalog.calls(); genreCalls != 1 {
		t.Errorf("upstream called %d times, want 1", genreCalls)
	}
}

func TestConcurrentViewAccess(t *testing.T) {
	catalog := &fakeCatalog{
		primitives: []models.PopularityPrimitive{
			{GameID: 1, PopularityType: 1, Value: 10},
			{GameID: 2, PopularityType: 2, Value: 20},
		},
		games: map[int64]models.GameSummary{
			1: namedGame(1, "alpha", time.Now()),
			2: namedGame(2, "beta", time.Now()),
		},
	}
	svc := testService(catalog, newTestStore())

	const workers = 16
	results := make([][]models.RankedGame, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.RecentPopular(context.Background(), 10)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if len(results[i]) != 2 {
			t.Fatalf("worker %d got %d games, want 2", i, len(results[i]))
		}
		if results[i][0].ID != results[0][0].ID {
			t.Errorf("worker %d saw different top game", i)
		}
	}
}

func TestPrimitivesKey(t *testing.T) {
	if got := primitivesKey([]int{3, 1, 2}); got != "raw_primitives_1_2_3" {
		t.Errorf("primitivesKey = %q, want sorted raw_primitives_1_2_3", got)
	}
	if got := genreKey(12, 3); got != "genre_list:12:3" {
		t.Errorf("genreKey = %q", got)
	}
}
