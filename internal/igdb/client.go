// Package igdb implements the catalog client: an IGDB-compatible API
// consumed through POST queries with a client-credentials bearer token.
package igdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/playvault/game-request-api/internal/config"
	"github.com/playvault/game-request-api/internal/models"
	"github.com/playvault/game-request-api/internal/utils"
)

// Only PC releases are relevant for the library.
const platformFilter = `platforms.slug = "win"`

var summaryFields = []string{
	"id", "name", "slug", "cover.image_id", "first_release_date",
	"total_rating_count", "genres.name",
}

// Client talks to the catalog API. The auth token is cached process-wide
// behind a mutex and refreshed shortly before its reported expiry.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.IGDBTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      strings.TrimRight(cfg.IGDBBaseURL, "/"),
		tokenURL:     cfg.IGDBTokenURL,
		clientID:     cfg.IGDBClientID,
		clientSecret: cfg.IGDBClientSecret,
	}
}

// AccessToken returns the cached bearer token, fetching a new one via the
// client-credentials exchange when absent or expired.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}
	return c.fetchTokenLocked(ctx)
}

// fetchTokenLocked must be called with c.mu held.
func (c *Client) fetchTokenLocked(ctx context.Context) (string, error) {
	log.Printf("[TOKEN] Fetching new access token")

	params := url.Values{}
	params.Set("client_id", c.clientID)
	params.Set("client_secret", c.clientSecret)
	params.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: building token request: %v", ErrUpstreamUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token exchange: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: token exchange returned %d: %s", ErrUpstreamUnavailable, resp.StatusCode, body)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decoding token response: %v", ErrUpstreamUnavailable, err)
	}

	c.token = payload.AccessToken
	// Refresh a minute before the reported expiry.
	lifetime := time.Duration(payload.ExpiresIn-60) * time.Second
	if lifetime < 0 {
		lifetime = 0
	}
	c.tokenExpiry = time.Now().Add(lifetime)
	return c.token, nil
}

// invalidateToken drops the cached token, but only when it is still the
// one that was rejected; a concurrent refresh is left alone.
func (c *Client) invalidateToken(rejected string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == rejected {
		c.token = ""
		c.tokenExpiry = time.Time{}
	}
}

// postQuery executes one query against /{endpoint}. On a 401/403 the
// token is invalidated and refreshed exactly once before a single retry;
// a second auth failure propagates.
func (c *Client) postQuery(ctx context.Context, endpoint, query string) ([]byte, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	body, status, err := c.do(ctx, endpoint, token, query)
	if err != nil {
		log.Printf("[IGDB] %s failed after %s: %v", endpoint, time.Since(start), err)
		return nil, fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, endpoint, err)
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		log.Printf("[TOKEN] %s rejected token (%d), refreshing once", endpoint, status)
		c.invalidateToken(token)

		fresh, err := c.AccessToken(ctx)
		if err != nil {
			return nil, err
		}
		body, status, err = c.do(ctx, endpoint, fresh, query)
		if err != nil {
			return nil, fmt.Errorf("%w: %s retry: %v", ErrUpstreamUnavailable, endpoint, err)
		}
	}

	log.Printf("[IGDB] %s - %d in %s", endpoint, status, time.Since(start))

	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d: %s", ErrUpstreamUnavailable, endpoint, status, body)
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, endpoint, token, query string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, strings.NewReader(query))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// rawGame mirrors the upstream game shape with nested genre objects.
type rawGame struct {
	ID               int64         `json:"id"`
	Name             string        `json:"name"`
	Slug             string        `json:"slug"`
	Cover            *models.Cover `json:"cover"`
	FirstReleaseDate int64         `json:"first_release_date"`
	TotalRatingCount int           `json:"total_rating_count"`
	Genres           []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

// summary flattens the nested genre objects into plain names and
// resolves the cover to a ready CDN URL.
func (g rawGame) summary() models.GameSummary {
	genres := make([]string, 0, len(g.Genres))
	for _, genre := range g.Genres {
		genres = append(genres, genre.Name)
	}
	summary := models.GameSummary{
		ID:               g.ID,
		Name:             g.Name,
		Slug:             g.Slug,
		Cover:            g.Cover,
		FirstReleaseDate: g.FirstReleaseDate,
		TotalRatingCount: g.TotalRatingCount,
		GenreNames:       genres,
	}
	if g.Cover != nil {
		summary.CoverURL = utils.CoverImageURL(g.Cover.ImageID, utils.SizeCoverBig)
	}
	return summary
}

func decodeSummaries(body []byte) ([]models.GameSummary, error) {
	var raw []rawGame
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding games: %w", err)
	}
	games := make([]models.GameSummary, 0, len(raw))
	for _, g := range raw {
		games = append(games, g.summary())
	}
	return games, nil
}

// SearchGames looks up games by name, PC releases with cover art only.
func (c *Client) SearchGames(ctx context.Context, term string, limit int) ([]models.GameSummary, error) {
	q := apicalypseQuery{
		search: term,
		fields: summaryFields,
		where:  []string{"cover != null", platformFilter},
		limit:  limit,
	}
	body, err := c.postQuery(ctx, "games", q.Build())
	if err != nil {
		return nil, err
	}
	return decodeSummaries(body)
}

// PopularityPrimitives fetches the raw observations for the given metric
// types, sorted by value descending upstream.
func (c *Client) PopularityPrimitives(ctx context.Context, types []int, limit int) ([]models.PopularityPrimitive, error) {
	q := apicalypseQuery{
		fields: []string{"game_id", "popularity_type", "value", "calculated_at"},
		where:  []string{fmt.Sprintf("popularity_type = (%s)", joinInts(types))},
		sort:   "value desc",
		limit:  limit,
	}
	body, err := c.postQuery(ctx, "popularity_primitives", q.Build())
	if err != nil {
		return nil, err
	}

	var primitives []models.PopularityPrimitive
	if err := json.Unmarshal(body, &primitives); err != nil {
		return nil, fmt.Errorf("decoding primitives: %w", err)
	}
	return primitives, nil
}

// GamesByIDs fetches summaries for the given ids in one batched query.
// The result carries whatever the upstream returned: possibly reordered
// and possibly missing ids; callers that need positional completeness
// reassemble the order themselves.
func (c *Client) GamesByIDs(ctx context.Context, ids []int64, minRatingCount int) ([]models.GameSummary, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	where := []string{
		fmt.Sprintf("id = (%s)", joinInt64s(ids)),
		platformFilter,
	}
	if minRatingCount > 0 {
		where = append(where, fmt.Sprintf("total_rating_count >= %d", minRatingCount))
	}

	q := apicalypseQuery{
		fields: summaryFields,
		where:  where,
		limit:  len(ids),
	}
	body, err := c.postQuery(ctx, "games", q.Build())
	if err != nil {
		return nil, err
	}
	return decodeSummaries(body)
}

// GamesByGenre lists games of one genre, best rated first. The rating
// floor is pushed into the upstream query rather than filtered locally.
func (c *Client) GamesByGenre(ctx context.Context, genreID int64, minRatingCount int) ([]models.GameSummary, error) {
	q := apicalypseQuery{
		fields: summaryFields,
		where: []string{
			fmt.Sprintf("genres = (%d)", genreID),
			fmt.Sprintf("total_rating_count > %d", minRatingCount),
			platformFilter,
		},
		sort:  "rating desc",
		limit: 500,
	}
	body, err := c.postQuery(ctx, "games", q.Build())
	if err != nil {
		return nil, err
	}
	return decodeSummaries(body)
}

// GameDetail returns the full detail document for one game, with up to
// 12 similar games resolved to summaries under "similar_games_details".
func (c *Client) GameDetail(ctx context.Context, gameID int64) (map[string]interface{}, error) {
	q := apicalypseQuery{
		fields: []string{
			"id", "name", "slug", "summary", "storyline", "first_release_date",
			"rating", "aggregated_rating", "genres.name", "platforms.name",
			"cover.image_id", "screenshots.image_id", "videos.video_id", "videos.name",
			"similar_games",
			"involved_companies.company.id", "involved_companies.company.name",
			"involved_companies.company.slug", "involved_companies.company.logo.image_id",
			"involved_companies.developer", "involved_companies.publisher",
		},
		where: []string{fmt.Sprintf("id = %d", gameID), platformFilter},
		limit: 1,
	}
	body, err := c.postQuery(ctx, "games", q.Build())
	if err != nil {
		return nil, err
	}

	var docs []map[string]interface{}
	if err := json.Unmarshal(body, &docs); err != nil {
		return nil, fmt.Errorf("decoding game detail: %w", err)
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	doc := docs[0]

	if ids := similarGameIDs(doc, 12); len(ids) > 0 {
		similar, err := c.GamesByIDs(ctx, ids, 0)
		if err != nil {
			// Detail without similar games beats no detail at all.
			log.Printf("[IGDB] resolving similar games for %d failed: %v", gameID, err)
		} else {
			doc["similar_games_details"] = similar
		}
	}

	return doc, nil
}

func similarGameIDs(doc map[string]interface{}, max int) []int64 {
	raw, ok := doc["similar_games"].([]interface{})
	if !ok {
		return nil
	}
	ids := make([]int64, 0, max)
	for _, v := range raw {
		if len(ids) == max {
			break
		}
		if id, ok := v.(float64); ok {
			ids = append(ids, int64(id))
		}
	}
	return ids
}
