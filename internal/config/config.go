package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends for the persisted lists.
const (
	BackendRedis  = "redis"
	BackendFile   = "file"
	BackendMemory = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Persisted lists
	StorageBackend  string        // "redis" | "file" | "memory"
	DataDir         string        // directory for the file backend (default: ./data)
	HistoryCap      int           // max search history entries (default: 100)
	SavedCap        int           // max saved place entries (default: 100)
	PersistDebounce time.Duration // delay before a mutation is written out (default: 300ms)

	// Parking spot catalog
	SpotsFile      string        // path to the spots.yaml file (optional, empty = catalog disabled)
	ReloadInterval time.Duration // safety interval to reload spots.yaml (default: 24h)

	// HTTP surface
	CORSOrigins        []string // allowed CORS origins (default: "*")
	RateLimitBurst     int      // max requests a client can burst (default: 60)
	RateLimitPerMin    int      // tokens refilled per client per minute (default: 120)
	RateLimitMaxIPs    int      // max tracked client buckets (default: 10000)
	WSClientBufferSize int      // per-client websocket send buffer (default: 16)

	// Redis (only read when StorageBackend == "redis")
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts []string // optional, restrict ops endpoints to specific Host headers
	AllowedCIDRS []string // optional, restrict ops endpoints to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("SPARK_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("SPARK_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("SPARK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SPARK_PRETTY_LOG", true),

		// Persisted lists
		StorageBackend:  strings.ToLower(getenv("SPARK_STORAGE_BACKEND", BackendRedis)),
		DataDir:         getenv("SPARK_DATA_DIR", "./data"),
		HistoryCap:      getenvInt("SPARK_HISTORY_CAP", 100),
		SavedCap:        getenvInt("SPARK_SAVED_CAP", 100),
		PersistDebounce: mustDuration("SPARK_PERSIST_DEBOUNCE", 300*time.Millisecond),

		// Catalog
		SpotsFile:      getenv("SPARK_SPOTS_FILE", ""), // Optional, empty = catalog disabled
		ReloadInterval: mustDuration("SPARK_RELOAD_SOURCE_INTERVAL", 24*time.Hour),

		// HTTP surface
		CORSOrigins:        splitAndTrim(getenv("SPARK_CORS_ORIGINS", "*")),
		RateLimitBurst:     getenvInt("SPARK_RATE_LIMIT_BURST", 60),
		RateLimitPerMin:    getenvInt("SPARK_RATE_LIMIT_PER_MIN", 120),
		RateLimitMaxIPs:    getenvInt("SPARK_RATE_LIMIT_MAX_IPS", 10000),
		WSClientBufferSize: getenvInt("SPARK_WS_CLIENT_BUFFER", 16),

		// Redis settings
		RedisUser:             getenv("SPARK_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("SPARK_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("SPARK_REDIS_PASSWORD", ""),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("SPARK_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("SPARK_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("SPARK_TRUST_PROXY", true),
	}

	// The Redis connection settings only matter when Redis actually
	// backs the lists.
	switch cfg.StorageBackend {
	case BackendRedis:
		cfg.RedisAddr = requireEnv("SPARK_REDIS_ADDR")
		cfg.RedisDB = requireEnvInt("SPARK_REDIS_DB")
		if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
			panic("❌ FATAL: SPARK_REDIS_PASSWORD is required when SPARK_REDIS_PASSWORD_REQUIRED=true")
		}
	case BackendFile, BackendMemory:
	default:
		panic(fmt.Sprintf("❌ FATAL: Invalid SPARK_STORAGE_BACKEND %q (want redis, file or memory)", cfg.StorageBackend))
	}

	if cfg.HistoryCap < 1 || cfg.SavedCap < 1 {
		panic("❌ FATAL: SPARK_HISTORY_CAP and SPARK_SAVED_CAP must be at least 1")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
