package mw

import (
	"net/http"

	"github.com/clsdenji/Spark/internal/logger"
	"github.com/clsdenji/Spark/internal/utils"
)

// AllowOnlyCIDRS guards the ops endpoints (healthz, readyz, infra,
// reload) behind an IP/CIDR allowlist. An empty list means no
// filtering, so local and test setups work without configuration.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	list := utils.NewAllowlist(allowed)
	if list.Empty() {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !list.Contains(ip) {
				log.Debug("ops request rejected by allowlist",
					logger.String("ip", ip),
					logger.String("path", r.URL.Path))
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
