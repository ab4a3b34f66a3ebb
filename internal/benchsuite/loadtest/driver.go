// Package loadtest drives repeated probes against a single endpoint and
// aggregates the outcomes into a load test result.
package loadtest

import (
	"sync"
	"time"

	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/configuration"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/probe"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/report"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/readiness"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/benchcontext"
)

// Driver runs one load test. Probes are dispatched over a fixed pool of lanes,
// so at most Spec.Concurrency probes are in flight at any time, and each lane
// spaces its dispatches by Spec.InterRequestDelay.
type Driver struct {
	Spec    configuration.LoadTestSpec
	Service configuration.ServiceConfig
	Prober  probe.Prober
	Checker *readiness.Checker
}

func NewDriver(spec configuration.LoadTestSpec, service configuration.ServiceConfig, prober probe.Prober, checker *readiness.Checker) *Driver {
	return &Driver{
		Spec:    spec,
		Service: service,
		Prober:  prober,
		Checker: checker,
	}
}

// Run performs the load test and returns its result. Failed probes are data,
// not errors: the result is always produced. If ctx expires mid-test, no
// further probes are dispatched and the result covers only the probes
// dispatched up to that point.
func (srv *Driver) Run(ctx *benchcontext.Context) *report.LoadTestResult {
	target := probe.Target{
		URL:     srv.Service.Resolve(srv.Spec.Path),
		Method:  srv.Spec.Method,
		Timeout: srv.Spec.PerRequestTimeout,
	}

	// One readiness probe before dispatching; a service that does not answer
	// its status endpoint yields an unreachable result with no samples.
	if err := srv.Checker.Ready(ctx, srv.Service); err != nil {
		ctx.Log.WithField("loadTest", srv.Spec.Name).Warnf("skipping load test: %s", err)
		return report.UnreachableResult(srv.Spec.Name, srv.Service.Name, target.URL.String(), srv.Spec.Method)
	}

	n := srv.Spec.RequestCount
	lanes := srv.Spec.Concurrency
	if lanes > n {
		lanes = n
	}

	// Outcomes are written by lane goroutines at the dispatch index, so the
	// recorded order is the initiation order regardless of completion order.
	outcomes := make([]probe.Outcome, n)
	indexes := make(chan int)

	var wg sync.WaitGroup
	wg.Add(lanes)
	for lane := 0; lane < lanes; lane++ {
		go func() {
			defer wg.Done()
			srv.runLane(ctx, target, indexes, outcomes)
		}()
	}

	dispatched := 0
loop:
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			break loop
		case indexes <- i:
			dispatched++
		}
	}
	close(indexes)
	wg.Wait()

	if dispatched < n {
		ctx.Log.WithField("loadTest", srv.Spec.Name).
			Warnf("deadline expired; dispatched %d of %d probes", dispatched, n)
	}
	return report.BuildLoadTestResult(srv.Spec.Name, srv.Service.Name, target.URL.String(), srv.Spec.Method, outcomes[:dispatched])
}

func (srv *Driver) runLane(ctx *benchcontext.Context, target probe.Target, indexes <-chan int, outcomes []probe.Outcome) {
	// Create a closed ticker channel; receiving on tickerCh returns immediately.
	C := make(chan time.Time)
	close(C)
	tickerCh := (<-chan time.Time)(C)

	// If a delay is configured, replace tickerCh with one that ticks periodically.
	if srv.Spec.InterRequestDelay != 0 {
		ticker := time.NewTicker(srv.Spec.InterRequestDelay)
		defer ticker.Stop()
		tickerCh = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tickerCh:
		}
		i, ok := <-indexes
		if !ok {
			return
		}
		outcomes[i] = srv.Prober.Probe(ctx, target)
	}
}
