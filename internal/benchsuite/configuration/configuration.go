package configuration

import (
	"net/url"
	"strings"
	"time"
)

// Default pipeline roles and endpoint shapes, matching the book pipeline
// services this harness was built to measure.
const (
	DefaultStatusPath = "/status"

	DefaultIngestService = "ingestion"
	DefaultIndexService  = "indexing"
	DefaultSearchService = "search"

	DefaultIngestPath = "/ingest/{id}"
	DefaultIndexPath  = "/index/update/{id}"
	DefaultSearchPath = "/search?q={query}"

	// Body status values reported by the pipeline services.
	IngestReadyStatus = "available"
	IndexUpdatedBody  = "updated"
)

const (
	defaultIngestReadinessPath = "/ingest/status/{id}"
	defaultPollInterval        = 500 * time.Millisecond
	defaultPollAttempts        = 20
	defaultIngestFallbackDelay = 2 * time.Second
	defaultIndexFallbackDelay  = 3 * time.Second

	defaultWorkflowConcurrency = 1
	defaultWorkflowTimeout     = 10 * time.Second

	defaultReadinessAttempts = 30
	defaultReadinessInterval = time.Second
	defaultReadinessCacheTTL = 30 * time.Second
	defaultReadinessTimeout  = 2 * time.Second
)

// BenchmarkSpec is the configuration for one benchmark run, loaded from a
// single YAML spec file.
type BenchmarkSpec struct {
	// Name of the benchmark. Defaults to the spec file name.
	Name string
	// Suite deadline for this spec. Zero means no deadline.
	Timeout time.Duration
	// If true, the run fails before measuring when a service is not ready.
	// If false, readiness failures surface as unreachable load test results.
	RequireReady bool
	// Services under test.
	Services []ServiceConfig
	// Load tests, executed sequentially in the order given here.
	LoadTests []LoadTestSpec
	// Workflow runs. Optional.
	Workflow *WorkflowSpec
	// Readiness probing behaviour.
	Readiness ReadinessConfig
}

// ServiceConfig identifies one service under test.
type ServiceConfig struct {
	Name       string
	BaseURL    url.URL
	StatusPath string // defaults to /status
}

// Resolve joins a path (optionally carrying a query string) onto the service
// base url. The path must already have any placeholders expanded.
func (s ServiceConfig) Resolve(pathAndQuery string) url.URL {
	u := s.BaseURL
	rest := pathAndQuery
	if i := strings.Index(rest, "?"); i >= 0 {
		u.RawQuery = rest[i+1:]
		rest = rest[:i]
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + rest
	return u
}

// StatusURL returns the service liveness endpoint.
func (s ServiceConfig) StatusURL() url.URL {
	return s.Resolve(s.StatusPath)
}

// LoadTestSpec configures one load test against one endpoint.
type LoadTestSpec struct {
	// Name of the load test. Defaults to a generated short uuid.
	Name    string
	Service string
	Path    string
	Method  string // defaults to GET
	// Number of probes to issue.
	RequestCount int
	// Upper bound on probes in flight simultaneously.
	Concurrency int
	// Minimum spacing between successive dispatches on each concurrent lane.
	// Zero means dispatch as fast as the lane allows.
	InterRequestDelay time.Duration
	// Deadline for each individual probe.
	PerRequestTimeout time.Duration
}

// WorkflowSpec configures the ingest, index, search pipeline runs.
type WorkflowSpec struct {
	// Work items, one pipeline run each. For the book pipeline these are
	// Project Gutenberg book ids.
	WorkItems []string
	// Optional search term per work item. Defaults to the work item itself.
	Queries map[string]string
	// Upper bound on work items processed simultaneously.
	Concurrency int
	// Deadline for each individual stage request.
	PerRequestTimeout time.Duration
	// If true, the index stage additionally requires the response body
	// status field to equal "updated".
	VerifyIndexBody bool

	// Pipeline roles, by service name.
	IngestService string
	IndexService  string
	SearchService string

	// Endpoint templates. {id} expands to the work item, {query} to the
	// search term.
	IngestPath string
	IndexPath  string
	SearchPath string

	// Settle behaviour between ingest and index, and between index and search.
	IngestSettle *SettleConfig
	IndexSettle  *SettleConfig
}

// Query returns the search term for a work item.
func (w *WorkflowSpec) Query(workItem string) string {
	if q, ok := w.Queries[workItem]; ok {
		return q
	}
	return workItem
}

// SettleConfig controls how a workflow run waits for a downstream service to
// become consistent before issuing the dependent call.
//
// When ReadinessPath is set the run polls that endpoint on the upstream
// service until it reports ready, bounded by PollAttempts. When it is empty
// the run sleeps FallbackDelay; that is an approximation carried over from the
// original pipeline scripts, not a correctness guarantee.
type SettleConfig struct {
	ReadinessPath string
	// Body status field value that marks readiness. Empty means any 2xx
	// response counts as ready.
	ReadyWhenStatus string
	PollInterval    time.Duration
	PollAttempts    int
	FallbackDelay   time.Duration
}

// ReadinessConfig controls service liveness probing before measurement.
type ReadinessConfig struct {
	// Attempts and interval for the initial wait-for-services phase.
	Attempts int
	Interval time.Duration
	// How long a positive readiness answer is cached.
	CacheTTL time.Duration
	// Deadline for each readiness probe.
	ProbeTimeout time.Duration
}

// HarnessConfig is the optional harness-level configuration shared by all
// spec files in a run: artifact output and result sinks.
type HarnessConfig struct {
	// Directory result files are written to. Defaults to the working directory.
	OutputDir string
	// If non-zero, Prometheus metrics are served on this port for the
	// duration of the run.
	MetricsPort uint16
	// If set, finalized reports are also written to Postgres.
	Postgres *PostgresConfig
}

// PostgresConfig holds libpq-style connection parameters.
type PostgresConfig struct {
	Connection map[string]string
}

// Service returns the configuration of the named service.
func (spec *BenchmarkSpec) Service(name string) (ServiceConfig, bool) {
	for _, s := range spec.Services {
		if s.Name == name {
			return s, true
		}
	}
	return ServiceConfig{}, false
}
