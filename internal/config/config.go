// Package config manages application configuration via environment variables.
//
// # Environment Variables
//
// ## Server
//   - SERVER_PORT: HTTP port (default: 8080)
//   - CORS_ORIGINS: comma-separated allowed origins (default: *)
//
// ## Catalog (IGDB-compatible API)
//   - IGDB_CLIENT_ID: client id for the credentials exchange (required)
//   - IGDB_CLIENT_SECRET: client secret (required)
//   - IGDB_BASE_URL: API base URL (default: https://api.igdb.com/v4)
//   - IGDB_TOKEN_URL: token endpoint (default: https://id.twitch.tv/oauth2/token)
//   - IGDB_TIMEOUT_SECONDS: per-call HTTP timeout (default: 15)
//
// ## Cache
//   - REDIS_URL: full Redis URL; when empty an in-process store is used
//   - CACHE_TTL_HOURS: TTL for primitive and result entries (default: 24)
//
// ## Popularity
//   - POPULARITY_PRIMITIVE_LIMIT: primitives fetched per refresh (default: 500)
//   - POPULARITY_DEFAULT_TYPE: metric for the default leaderboard (default: 5)
//   - POPULARITY_WEIGHTS: JSON override of the weighting profiles; malformed
//     JSON or an empty profile aborts startup
//   - WARMUP_ENABLED: pre-warm result caches at startup (default: true)
//
// ## Storage
//   - SQLITE_PATH: request database path (default: data/requests.db)
//
// ## Tracing
//   - TRACING_ENABLED: enable OTLP tracing (default: false)
//   - TRACING_ENDPOINT: OTLP gRPC endpoint (default: localhost:4317)
package config

import (
	"encoding/json"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// WeightProfile maps popularity metric types to blending weights. The map
// keys define which primitive types the profile fetches.
type WeightProfile struct {
	Weights        map[int]float64 `json:"weights" validate:"required,min=1,dive,gt=0"`
	MinRatingCount int             `json:"min_rating_count" validate:"gte=0"`
}

// Types returns the profile's metric types in ascending order.
func (p WeightProfile) Types() []int {
	types := make([]int, 0, len(p.Weights))
	for t := range p.Weights {
		types = append(types, t)
	}
	sort.Ints(types)
	return types
}

// PopularityConfig holds the popularity pipeline settings.
type PopularityConfig struct {
	// Primitives fetched per distinct type set (default 500)
	PrimitiveLimit int

	// Metric type for the default single-metric leaderboard (default 5,
	// the 24h peak player metric)
	DefaultType int

	// Pre-warm result caches at startup
	WarmupEnabled bool

	// Fixed set of weighting profiles, keyed by profile name
	Profiles map[string]WeightProfile
}

type Config struct {
	ServerPort  string
	CORSOrigins []string

	// Catalog configuration
	IGDBClientID       string
	IGDBClientSecret   string
	IGDBBaseURL        string
	IGDBTokenURL       string
	IGDBTimeoutSeconds int

	// Cache configuration
	RedisURL      string
	CacheTTLHours int

	// Storage configuration
	SQLitePath string

	// Tracing configuration
	TracingEnabled  bool
	TracingEndpoint string

	Popularity PopularityConfig
}

// Profile names fixed at compile time. The weights may be overridden via
// POPULARITY_WEIGHTS but the set of profiles is closed.
const (
	ProfileRecent    = "recent"
	ProfileCustom100 = "custom100"
)

func defaultProfiles() map[string]WeightProfile {
	return map[string]WeightProfile{
		ProfileRecent: {
			Weights:        map[int]float64{1: 0.20, 2: 0.50, 3: 0.30},
			MinRatingCount: 3,
		},
		ProfileCustom100: {
			Weights:        map[int]float64{2: 0.20, 3: 0.40, 4: 0.40},
			MinRatingCount: 0,
		},
	}
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		IGDBClientID:       getEnv("IGDB_CLIENT_ID", ""),
		IGDBClientSecret:   getEnv("IGDB_CLIENT_SECRET", ""),
		IGDBBaseURL:        getEnv("IGDB_BASE_URL", "https://api.igdb.com/v4"),
		IGDBTokenURL:       getEnv("IGDB_TOKEN_URL", "https://id.twitch.tv/oauth2/token"),
		IGDBTimeoutSeconds: getEnvInt("IGDB_TIMEOUT_SECONDS", 15),

		RedisURL:      getEnv("REDIS_URL", ""),
		CacheTTLHours: getEnvInt("CACHE_TTL_HOURS", 24),

		SQLitePath: getEnv("SQLITE_PATH", "data/requests.db"),

		TracingEnabled:  getEnv("TRACING_ENABLED", "false") == "true",
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4317"),

		Popularity: PopularityConfig{
			PrimitiveLimit: getEnvInt("POPULARITY_PRIMITIVE_LIMIT", 500),
			DefaultType:    getEnvInt("POPULARITY_DEFAULT_TYPE", 5),
			WarmupEnabled:  getEnv("WARMUP_ENABLED", "true") == "true",
			Profiles:       defaultProfiles(),
		},
	}

	if cfg.IGDBClientID == "" || cfg.IGDBClientSecret == "" {
		log.Fatal("IGDB_CLIENT_ID and IGDB_CLIENT_SECRET environment variables are required but not set")
	}

	origins := getEnv("CORS_ORIGINS", "*")
	cfg.CORSOrigins = strings.Split(origins, ",")
	for i := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(cfg.CORSOrigins[i])
	}

	// Optional weighting profile override. A broken profile is a startup
	// error, never a per-request one.
	if weightsJSON := os.Getenv("POPULARITY_WEIGHTS"); weightsJSON != "" {
		overrides := make(map[string]WeightProfile)
		if err := json.Unmarshal([]byte(weightsJSON), &overrides); err != nil {
			log.Fatalf("Failed to parse POPULARITY_WEIGHTS JSON: %v", err)
		}
		for name, profile := range overrides {
			if _, known := cfg.Popularity.Profiles[name]; !known {
				log.Fatalf("POPULARITY_WEIGHTS refers to unknown profile %q", name)
			}
			cfg.Popularity.Profiles[name] = profile
		}
	}

	validate := validator.New()
	for name, profile := range cfg.Popularity.Profiles {
		if err := validate.Struct(profile); err != nil {
			log.Fatalf("Invalid weighting profile %q: %v", name, err)
		}
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
