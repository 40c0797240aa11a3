package endpoint

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/deepresearch/component"
	"github.com/kbukum/deepresearch/observability"
	"github.com/kbukum/deepresearch/version"
)

// HealthChecker reports the health of the registered components.
type HealthChecker func(ctx context.Context) []component.Health

// Health aggregates component health. An unhealthy component turns the
// whole service down and the response into a 503.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := Aggregate(c.Request.Context(), serviceName, checker)
		status := http.StatusOK
		if report.Status == observability.HealthStatusDown {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, report)
	}
}

// Ready is the readiness probe: 200 while no component is down.
func Ready(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := Aggregate(c.Request.Context(), serviceName, checker)
		if report.Status == observability.HealthStatusDown {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

// Aggregate folds component health into a service report.
func Aggregate(ctx context.Context, serviceName string, checker HealthChecker) *observability.ServiceHealth {
	report := observability.NewServiceHealth(serviceName, version.Short())
	if checker == nil {
		return report
	}
	for _, h := range checker(ctx) {
		report.AddComponent(observability.Health{
			Name:    h.Name,
			Status:  toStatus(h.Status),
			Message: h.Message,
		})
	}
	return report
}

func toStatus(s component.HealthStatus) observability.HealthStatus {
	switch s {
	case component.StatusHealthy:
		return observability.HealthStatusUp
	case component.StatusDegraded:
		return observability.HealthStatusDegraded
	default:
		return observability.HealthStatusDown
	}
}
