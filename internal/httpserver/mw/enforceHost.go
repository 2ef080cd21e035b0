package mw

import (
	"net/http"
	"strings"

	"github.com/clsdenji/Spark/internal/logger"
)

// EnforceHost rejects requests whose Host header is not on the allowed
// list. Patterns may start with "*." to cover subdomains. An empty list
// disables the check.
//
// Combined with the CIDR allowlist this keeps the ops endpoints off any
// public hostname the service also answers on.
func EnforceHost(allowedHosts []string, log logger.Logger) func(http.Handler) http.Handler {
	if len(allowedHosts) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, pattern := range allowedHosts {
				if hostMatches(r.Host, pattern) {
					next.ServeHTTP(w, r)
					return
				}
			}

			log.Debug("ops request rejected by host allowlist",
				logger.String("host", r.Host),
				logger.String("path", r.URL.Path))
			w.WriteHeader(http.StatusForbidden)
		})
	}
}

func hostMatches(host, pattern string) bool {
	if rest, ok := strings.CutPrefix(pattern, "*"); ok {
		// "*.spark.app" matches "api.spark.app" but not "spark.app"
		return strings.HasSuffix(host, rest)
	}
	return host == pattern
}
