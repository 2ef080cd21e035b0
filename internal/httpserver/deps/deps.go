package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clsdenji/Spark/internal/catalog"
	"github.com/clsdenji/Spark/internal/list"
	"github.com/clsdenji/Spark/internal/logger"
	"github.com/clsdenji/Spark/internal/ws"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	AllowedHosts []string // Host headers allowed to access the ops endpoints
	AllowedCIDRS []string // IPs allowed to access the ops endpoints
	TrustProxy   bool     // true if running behind a trusted reverse proxy (e.g., cloudflared)

	History *list.List       // search-history list
	Saved   *list.List       // saved parking spots list
	Catalog *catalog.Catalog // parking spot catalog (nil when no spots file is configured)
	Hub     *ws.Hub          // websocket fan-out for list changes

	StorageBackend string        // "redis" | "file" | "memory", reported by /infra
	RedisClient    *redis.Client // nil unless the redis backend is active
	SpotsFile      string        // path to the catalog file, empty = catalog disabled
	ReloadTrigger  chan struct{} // channel to trigger a manual catalog reload (nil if disabled)

	RateLimitBurst  int // max requests a client can burst on mutating routes
	RateLimitPerMin int // tokens refilled per client per minute
	RateLimitMaxIPs int // max tracked client buckets
	// Add more shared deps later (metrics, etc.)
}
