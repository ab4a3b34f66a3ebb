package loadtest

import (
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/configuration"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/probe"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/readiness"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/benchcontext"
)

// laneProber fakes probe outcomes. Status probes answer according to
// statusDown; load probes sleep for perProbe and track in-flight counts.
type laneProber struct {
	statusDown bool
	perProbe   time.Duration
	// elapsed computes the reported latency of the n-th load probe (1-based).
	// Defaults to a fixed 50ms.
	elapsed func(call int) time.Duration

	mu          sync.Mutex
	calls       int
	inFlight    int32
	maxInFlight int32
}

func (p *laneProber) Probe(ctx *benchcontext.Context, target probe.Target) probe.Outcome {
	if target.URL.Path == "/status" {
		if p.statusDown {
			return probe.Outcome{FailureReason: probe.FailureConnectionRefused}
		}
		return probe.Outcome{Succeeded: true, StatusCode: 200}
	}

	n := atomic.AddInt32(&p.inFlight, 1)
	for {
		max := atomic.LoadInt32(&p.maxInFlight)
		if n <= max || atomic.CompareAndSwapInt32(&p.maxInFlight, max, n) {
			break
		}
	}
	if p.perProbe > 0 {
		time.Sleep(p.perProbe)
	}
	atomic.AddInt32(&p.inFlight, -1)

	p.mu.Lock()
	p.calls++
	call := p.calls
	p.mu.Unlock()

	elapsed := 50 * time.Millisecond
	if p.elapsed != nil {
		elapsed = p.elapsed(call)
	}
	return probe.Outcome{Succeeded: true, StatusCode: 200, Elapsed: elapsed}
}

func (p *laneProber) loadCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func testService() configuration.ServiceConfig {
	return configuration.ServiceConfig{
		Name:       "search",
		BaseURL:    url.URL{Scheme: "http", Host: "localhost:7003"},
		StatusPath: "/status",
	}
}

func testChecker(p probe.Prober) *readiness.Checker {
	return readiness.NewChecker(p, configuration.ReadinessConfig{
		Attempts:     1,
		Interval:     time.Millisecond,
		CacheTTL:     time.Minute,
		ProbeTimeout: time.Second,
	})
}

func TestDriverRunAllProbesSucceed(t *testing.T) {
	prober := &laneProber{perProbe: 5 * time.Millisecond}
	spec := configuration.LoadTestSpec{
		Name:              "status-sweep",
		Service:           "search",
		Path:              "/work",
		Method:            "GET",
		RequestCount:      20,
		Concurrency:       5,
		PerRequestTimeout: time.Second,
	}
	driver := NewDriver(spec, testService(), prober, testChecker(prober))

	result := driver.Run(benchcontext.Background())

	assert.Equal(t, 20, result.SampleCount)
	assert.Equal(t, float64(100), result.SuccessRate)
	require.NotNil(t, result.AverageLatency)
	assert.Equal(t, 50*time.Millisecond, *result.AverageLatency)
	assert.Equal(t, "http://localhost:7003/work", result.URL)
	assert.Equal(t, 20, prober.loadCalls())
	assert.False(t, result.Failed())
}

func TestDriverBoundsConcurrency(t *testing.T) {
	prober := &laneProber{perProbe: 20 * time.Millisecond}
	spec := configuration.LoadTestSpec{
		Name:              "bounded",
		Service:           "search",
		Path:              "/work",
		Method:            "GET",
		RequestCount:      20,
		Concurrency:       5,
		PerRequestTimeout: time.Second,
	}
	driver := NewDriver(spec, testService(), prober, testChecker(prober))

	result := driver.Run(benchcontext.Background())

	assert.Equal(t, 20, result.SampleCount)
	max := atomic.LoadInt32(&prober.maxInFlight)
	assert.LessOrEqual(t, max, int32(5))
	assert.GreaterOrEqual(t, max, int32(2))
}

func TestDriverRecordsOutcomesInDispatchOrder(t *testing.T) {
	prober := &laneProber{
		elapsed: func(call int) time.Duration { return time.Duration(call) * time.Millisecond },
	}
	spec := configuration.LoadTestSpec{
		Name:              "ordered",
		Service:           "search",
		Path:              "/work",
		Method:            "GET",
		RequestCount:      5,
		Concurrency:       1,
		PerRequestTimeout: time.Second,
	}
	driver := NewDriver(spec, testService(), prober, testChecker(prober))

	result := driver.Run(benchcontext.Background())

	require.Len(t, result.Outcomes, 5)
	for i, outcome := range result.Outcomes {
		assert.Equal(t, time.Duration(i+1)*time.Millisecond, outcome.Elapsed)
	}
}

func TestDriverUnreachableService(t *testing.T) {
	prober := &laneProber{statusDown: true}
	spec := configuration.LoadTestSpec{
		Name:              "down",
		Service:           "search",
		Path:              "/work",
		Method:            "GET",
		RequestCount:      10,
		Concurrency:       2,
		PerRequestTimeout: time.Second,
	}
	driver := NewDriver(spec, testService(), prober, testChecker(prober))

	result := driver.Run(benchcontext.Background())

	assert.True(t, result.Unreachable)
	assert.Equal(t, 0, result.SampleCount)
	assert.Equal(t, 0, prober.loadCalls())
	assert.True(t, result.Failed())
}

func TestDriverDeadlineTruncates(t *testing.T) {
	prober := &laneProber{perProbe: 20 * time.Millisecond}
	spec := configuration.LoadTestSpec{
		Name:              "truncated",
		Service:           "search",
		Path:              "/work",
		Method:            "GET",
		RequestCount:      100,
		Concurrency:       1,
		PerRequestTimeout: time.Second,
	}
	driver := NewDriver(spec, testService(), prober, testChecker(prober))

	ctx, cancel := benchcontext.WithTimeout(benchcontext.Background(), 60*time.Millisecond)
	defer cancel()
	result := driver.Run(ctx)

	assert.GreaterOrEqual(t, result.SampleCount, 1)
	assert.Less(t, result.SampleCount, 100)
	assert.Len(t, result.Outcomes, result.SampleCount)
}

func TestDriverPacedLanes(t *testing.T) {
	prober := &laneProber{}
	spec := configuration.LoadTestSpec{
		Name:              "paced",
		Service:           "search",
		Path:              "/work",
		Method:            "GET",
		RequestCount:      6,
		Concurrency:       2,
		InterRequestDelay: 5 * time.Millisecond,
		PerRequestTimeout: time.Second,
	}
	driver := NewDriver(spec, testService(), prober, testChecker(prober))

	result := driver.Run(benchcontext.Background())

	assert.Equal(t, 6, result.SampleCount)
	assert.Equal(t, float64(100), result.SuccessRate)
}
