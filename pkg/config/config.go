package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Matching  MatchingConfig
	Search    SearchConfig
	Embedding EmbeddingConfig
	Workers   WorkerConfig
}

type DatabaseConfig struct {
	Enabled      bool
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MatchingConfig carries the weighting policy and run limits of the matching engine.
type MatchingConfig struct {
	Strategy            string
	OverlapWeight       float64
	SimilarityWeight    float64
	RatingWeight        float64
	TimezoneMaxScore    float64
	SimilarityThreshold float64
	RunTimeout          time.Duration
	ResultTTL           time.Duration
	PersistResults      bool
}

// SearchConfig tunes the one-sided skill search.
type SearchConfig struct {
	Threshold      float64
	Limit          int
	MaxQueryLength int
}

// EmbeddingConfig selects the phrase embedding provider.
type EmbeddingConfig struct {
	Provider     string
	URL          string
	Timeout      time.Duration
	Dimensions   int
	RateLimit    float64
	CacheEnabled bool
	CacheTTL     time.Duration
}

// WorkerConfig sizes the asynchronous matching queue.
type WorkerConfig struct {
	Concurrency int
	Retries     int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Enabled:      v.GetBool("DB_ENABLED"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Matching = MatchingConfig{
		Strategy:            strings.ToLower(strings.TrimSpace(v.GetString("MATCH_STRATEGY"))),
		OverlapWeight:       v.GetFloat64("MATCH_OVERLAP_WEIGHT"),
		SimilarityWeight:    v.GetFloat64("MATCH_SIMILARITY_WEIGHT"),
		RatingWeight:        v.GetFloat64("MATCH_RATING_WEIGHT"),
		TimezoneMaxScore:    v.GetFloat64("MATCH_TIMEZONE_MAX_SCORE"),
		SimilarityThreshold: v.GetFloat64("MATCH_SIMILARITY_THRESHOLD"),
		RunTimeout:          parseDuration(v.GetString("MATCH_RUN_TIMEOUT"), 30*time.Second),
		ResultTTL:           parseDuration(v.GetString("MATCH_RESULT_TTL"), time.Hour),
		PersistResults:      v.GetBool("MATCH_PERSIST_RESULTS"),
	}

	cfg.Search = SearchConfig{
		Threshold:      v.GetFloat64("SEARCH_THRESHOLD"),
		Limit:          v.GetInt("SEARCH_LIMIT"),
		MaxQueryLength: v.GetInt("SEARCH_MAX_QUERY_LENGTH"),
	}

	cfg.Embedding = EmbeddingConfig{
		Provider:     strings.ToLower(strings.TrimSpace(v.GetString("EMBEDDING_PROVIDER"))),
		URL:          v.GetString("EMBEDDING_URL"),
		Timeout:      parseDuration(v.GetString("EMBEDDING_TIMEOUT"), 10*time.Second),
		Dimensions:   v.GetInt("EMBEDDING_DIMENSIONS"),
		RateLimit:    v.GetFloat64("EMBEDDING_RATE_LIMIT"),
		CacheEnabled: v.GetBool("EMBEDDING_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("EMBEDDING_CACHE_TTL"), 24*time.Hour),
	}

	cfg.Workers = WorkerConfig{
		Concurrency: v.GetInt("MATCH_WORKERS"),
		Retries:     v.GetInt("MATCH_WORKER_RETRIES"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_ENABLED", true)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "skillbridge")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MATCH_STRATEGY", "lexical")
	v.SetDefault("MATCH_OVERLAP_WEIGHT", 10.0)
	v.SetDefault("MATCH_SIMILARITY_WEIGHT", 100.0)
	v.SetDefault("MATCH_RATING_WEIGHT", 1.0)
	v.SetDefault("MATCH_TIMEZONE_MAX_SCORE", 5.0)
	v.SetDefault("MATCH_SIMILARITY_THRESHOLD", 0.55)
	v.SetDefault("MATCH_RUN_TIMEOUT", "30s")
	v.SetDefault("MATCH_RESULT_TTL", "1h")
	v.SetDefault("MATCH_PERSIST_RESULTS", false)

	v.SetDefault("SEARCH_THRESHOLD", 0.45)
	v.SetDefault("SEARCH_LIMIT", 20)
	v.SetDefault("SEARCH_MAX_QUERY_LENGTH", 200)

	v.SetDefault("EMBEDDING_PROVIDER", "hashing")
	v.SetDefault("EMBEDDING_URL", "")
	v.SetDefault("EMBEDDING_TIMEOUT", "10s")
	v.SetDefault("EMBEDDING_DIMENSIONS", 384)
	v.SetDefault("EMBEDDING_RATE_LIMIT", 0)
	v.SetDefault("EMBEDDING_CACHE_ENABLED", false)
	v.SetDefault("EMBEDDING_CACHE_TTL", "24h")

	v.SetDefault("MATCH_WORKERS", 1)
	v.SetDefault("MATCH_WORKER_RETRIES", 2)
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
