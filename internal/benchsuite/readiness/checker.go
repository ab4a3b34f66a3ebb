// Package readiness gates measurement on the services under test answering
// their liveness endpoints.
package readiness

import (
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/configuration"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/probe"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/benchcontext"
)

// Checker probes service status endpoints. Positive answers are cached for the
// configured TTL so that a suite probing the same service from many load tests
// and workflow gates does not hammer its status path.
type Checker struct {
	Prober probe.Prober
	Config configuration.ReadinessConfig

	ready *cache.Cache
}

func NewChecker(prober probe.Prober, config configuration.ReadinessConfig) *Checker {
	return &Checker{
		Prober: prober,
		Config: config,
		ready:  cache.New(config.CacheTTL, 2*config.CacheTTL),
	}
}

// Ready reports whether the service's status endpoint answers success. At most
// one probe is issued per cache TTL; failures are never cached.
func (c *Checker) Ready(ctx *benchcontext.Context, service configuration.ServiceConfig) error {
	if _, ok := c.ready.Get(service.Name); ok {
		return nil
	}

	outcome := c.Prober.Probe(ctx, probe.Target{
		URL:     service.StatusURL(),
		Method:  http.MethodGet,
		Timeout: c.Config.ProbeTimeout,
	})
	if !outcome.Succeeded {
		return errors.Errorf("service %s is not ready: %s", service.Name, outcome.FailureReason)
	}

	c.ready.Set(service.Name, time.Now(), cache.DefaultExpiration)
	return nil
}

// WaitReady polls Ready until the service answers, bounded by the configured
// number of attempts.
func (c *Checker) WaitReady(ctx *benchcontext.Context, service configuration.ServiceConfig) error {
	return retry.Do(
		func() error { return c.Ready(ctx, service) },
		retry.Context(ctx),
		retry.Attempts(uint(c.Config.Attempts)),
		retry.Delay(c.Config.Interval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
}

// WaitAll waits for every service in turn. The original pipeline scripts did
// the same before starting measurement, so that a slow service start does not
// show up as measurement failures.
func (c *Checker) WaitAll(ctx *benchcontext.Context, services []configuration.ServiceConfig) error {
	for _, service := range services {
		ctx.Log.WithField("service", service.Name).Info("waiting for service to become ready")
		if err := c.WaitReady(ctx, service); err != nil {
			return errors.WithMessagef(err, "service %s did not become ready", service.Name)
		}
	}
	return nil
}
