package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RedisErrors counts failed Redis commands by command name.
var RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "socialpost_redis_errors_total",
	Help: "Total number of failed Redis commands",
}, []string{"command"})

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics registers the HTTP metrics middleware on app and serves them at /metrics.
// The collectors live in the default registry, so they are created once per process.
func InitMetrics(app *fiber.App, serviceName string) {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)
}
