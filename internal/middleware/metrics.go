package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis command failures by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// GatewayOperations counts executed gateway operations by name and outcome.
	GatewayOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_gateway_operations_total",
		Help: "Total number of gateway operations by name and outcome",
	}, []string{"operation", "outcome"})

	// CacheLookups counts response-cache lookups by operation and result.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_response_cache_lookups_total",
		Help: "Total number of response cache lookups by operation and result",
	}, []string{"operation", "result"})
)

var (
	promOnce     sync.Once
	promInstance *fiberprometheus.FiberPrometheus
)

// InitMetrics creates the Prometheus middleware for the given service
// name. Collectors live in the default registry, so repeat calls (test
// servers) reuse the first instance.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promInstance = fiberprometheus.New(serviceName)
	})
	return promInstance
}

// MetricsMiddleware returns the fiber handler recording HTTP metrics.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
