package coordinator

import (
	"context"
	"time"
)

// HealthCheck is the outcome of one health probe: a name, a pass/fail
// flag and the error text if it failed.
type HealthCheck struct {
	Name    string        `json:"name"`
	Healthy bool          `json:"healthy"`
	Error   string        `json:"error,omitempty"`
	Latency time.Duration `json:"latency"`
}

// HealthReport aggregates every HealthCheck into one pass/fail verdict.
type HealthReport struct {
	Healthy bool          `json:"healthy"`
	Checks  []HealthCheck `json:"checks"`
}

// Health runs every registered check and aggregates the result. It is
// safe to call concurrently with Serve.
func (c *Coordinator) Health(ctx context.Context) HealthReport {
	checks := []HealthCheck{
		c.checkStorage(ctx),
		c.checkPhase(),
	}

	healthy := true
	for _, check := range checks {
		if !check.Healthy {
			healthy = false
		}
	}
	return HealthReport{Healthy: healthy, Checks: checks}
}

func (c *Coordinator) checkStorage(ctx context.Context) HealthCheck {
	start := time.Now()
	err := c.storage.IsReady(ctx)
	check := HealthCheck{Name: "storage", Healthy: err == nil, Latency: time.Since(start)}
	if err != nil {
		check.Error = err.Error()
	}
	return check
}

// checkPhase reports Shutdown as unhealthy: a coordinator that has
// run its controller to completion is no longer doing its job, even
// though nothing actually failed.
func (c *Coordinator) checkPhase() HealthCheck {
	phase := c.controller.Phase()
	return HealthCheck{Name: "phase", Healthy: phase.String() != "Shutdown"}
}
