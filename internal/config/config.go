package config

import (
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is shared by the storefront and the catalog backend. Each binary
// reads the fields it needs.
type Config struct {
	Environment string

	// Storefront
	Port        string
	StaticDir   string
	SessionIdle time.Duration
	LogFile     string
	LogDebug    bool
	AdminToken  string

	API    APIConfig
	Search SearchConfig
	Cache  CacheConfig

	// Catalog backend
	CatalogPort string
	DBDSN       string
	SourceURL   string
}

type APIConfig struct {
	BaseURL       string
	FallbackURL   string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

type SearchConfig struct {
	MinSearchLength int
	DebounceDelay   time.Duration
	DefaultPageSize int
	MaxPageSize     int
	SuggestionLimit int
}

type CacheConfig struct {
	ProductsTTL    time.Duration
	ProductTTL     time.Duration
	SearchTTL      time.Duration
	SuggestionsTTL time.Duration
}

const (
	devAPIURL        = "http://localhost:8080/api/v1"
	devFallbackURL   = "http://127.0.0.1:8080/api/v1"
	defaultProdAPI   = "https://catalog.example.com/api/v1"
	defaultSourceURL = "https://dummyjson.com/products?limit=0"
)

// Defaults returns the configuration used when no environment is set.
func Defaults() Config {
	return Config{
		Environment: "development",
		Port:        "8081",
		StaticDir:   "./web/static",
		SessionIdle: 30 * time.Minute,
		API: APIConfig{
			BaseURL:       devAPIURL,
			FallbackURL:   devFallbackURL,
			Timeout:       10 * time.Second,
			RetryAttempts: 3,
			RetryDelay:    time.Second,
		},
		Search: SearchConfig{
			MinSearchLength: 3,
			DebounceDelay:   300 * time.Millisecond,
			DefaultPageSize: 12,
			MaxPageSize:     100,
			SuggestionLimit: 5,
		},
		Cache: CacheConfig{
			ProductsTTL:    5 * time.Minute,
			ProductTTL:     10 * time.Minute,
			SearchTTL:      2 * time.Minute,
			SuggestionsTTL: 10 * time.Minute,
		},
		CatalogPort: "8080",
		DBDSN:       "catalog.db",
		SourceURL:   defaultSourceURL,
	}
}

func Load() Config {
	// .env is optional
	_ = godotenv.Load()

	cfg := Defaults()
	cfg.Environment = getenv("ENVIRONMENT", cfg.Environment)
	production := cfg.Environment == "production"

	cfg.Port = getenv("PORT", cfg.Port)
	cfg.StaticDir = getenv("STATIC_DIR", cfg.StaticDir)
	cfg.SessionIdle = getenvMillis("SESSION_IDLE_MS", cfg.SessionIdle)
	cfg.LogFile = os.Getenv("LOG_FILE")
	cfg.LogDebug = getenv("LOG_DEBUG", "") == "true"
	cfg.AdminToken = os.Getenv("ADMIN_TOKEN")

	host := getenv("PUBLIC_HOST", hostname())
	cfg.API.BaseURL = ResolveBaseURL(os.Getenv("API_BASE_URL"), host, production, getenv("PRODUCTION_API_URL", defaultProdAPI))
	if production {
		cfg.API.FallbackURL = ""
	}
	cfg.API.FallbackURL = getenv("API_FALLBACK_URL", cfg.API.FallbackURL)
	cfg.API.Timeout = getenvMillis("API_TIMEOUT_MS", cfg.API.Timeout)
	cfg.API.RetryAttempts = getenvInt("API_RETRY_ATTEMPTS", cfg.API.RetryAttempts)
	cfg.API.RetryDelay = getenvMillis("API_RETRY_DELAY_MS", cfg.API.RetryDelay)

	cfg.Search.DefaultPageSize = getenvInt("DEFAULT_PAGE_SIZE", cfg.Search.DefaultPageSize)
	cfg.Search.SuggestionLimit = getenvInt("SUGGESTION_LIMIT", cfg.Search.SuggestionLimit)

	cfg.CatalogPort = getenv("CATALOG_PORT", cfg.CatalogPort)
	cfg.DBDSN = getenv("DB_DSN", cfg.DBDSN)
	cfg.SourceURL = getenv("CATALOG_SOURCE_URL", cfg.SourceURL)

	log.Printf("[config] ENV=%s PORT=%s API=%s FALLBACK=%s CATALOG_PORT=%s DB_DSN=%s",
		cfg.Environment, cfg.Port, cfg.API.BaseURL, cfg.API.FallbackURL, cfg.CatalogPort, cfg.DBDSN)
	return cfg
}

// ResolveBaseURL picks the backend API base URL: an explicit override wins,
// then production hosts use the production URL, devices on a private network
// talk to the backend on the same host, everything else is local development.
func ResolveBaseURL(override, host string, production bool, productionURL string) string {
	if override = strings.TrimSpace(override); override != "" {
		return strings.TrimRight(override, "/")
	}
	host = strings.TrimSpace(host)
	loopback := host == "" || host == "localhost" || host == "127.0.0.1" || host == "::1"
	if production && !loopback {
		return productionURL
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsPrivate() {
		return "http://" + net.JoinHostPort(host, "8080") + "/api/v1"
	}
	return devAPIURL
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	return h
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func getenvMillis(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		log.Printf("[config] invalid %s=%q, using %s", key, v, def)
		return def
	}
	return time.Duration(n) * time.Millisecond
}
