package configuration

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/bencherrors"
)

func validSpec() *BenchmarkSpec {
	spec := &BenchmarkSpec{
		Name:    "baseline",
		Timeout: 5 * time.Minute,
		Services: []ServiceConfig{
			{Name: "ingestion", BaseURL: mustParseURL("http://localhost:7001")},
			{Name: "indexing", BaseURL: mustParseURL("http://localhost:7002")},
			{Name: "search", BaseURL: mustParseURL("http://localhost:7003")},
		},
		LoadTests: []LoadTestSpec{
			{
				Name:              "ingestion-status",
				Service:           "ingestion",
				Path:              "/status",
				RequestCount:      20,
				Concurrency:       5,
				InterRequestDelay: 100 * time.Millisecond,
				PerRequestTimeout: time.Second,
			},
		},
		Workflow: &WorkflowSpec{
			WorkItems: []string{"1342", "84"},
		},
	}
	initialiseBenchmarkSpec(spec)
	return spec
}

func mustParseURL(s string) url.URL {
	u, err := url.Parse(s)
	if err != nil {
		panic(err)
	}
	return *u
}

func TestBenchmarkSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*BenchmarkSpec)
		wantErr bool
		errText string
	}{
		{
			name:    "valid spec",
			modify:  func(spec *BenchmarkSpec) {},
			wantErr: false,
		},
		{
			name: "no services",
			modify: func(spec *BenchmarkSpec) {
				spec.Services = nil
			},
			wantErr: true,
			errText: "no services provided",
		},
		{
			name: "duplicate service name",
			modify: func(spec *BenchmarkSpec) {
				spec.Services = append(spec.Services, ServiceConfig{
					Name:       "search",
					BaseURL:    mustParseURL("http://localhost:7004"),
					StatusPath: "/status",
				})
			},
			wantErr: true,
			errText: "duplicate service name",
		},
		{
			name: "relative base url",
			modify: func(spec *BenchmarkSpec) {
				services := append([]ServiceConfig{}, spec.Services...)
				services[0].BaseURL = mustParseURL("localhost:7001")
				spec.Services = services
			},
			wantErr: true,
			errText: "must be an absolute http or https url",
		},
		{
			name: "negative timeout",
			modify: func(spec *BenchmarkSpec) {
				spec.Timeout = -time.Minute
			},
			wantErr: true,
			errText: "must be non-negative",
		},
		{
			name: "nothing to run",
			modify: func(spec *BenchmarkSpec) {
				spec.LoadTests = nil
				spec.Workflow = nil
			},
			wantErr: true,
			errText: "neither load tests nor a workflow",
		},
		{
			name: "unknown load test service",
			modify: func(spec *BenchmarkSpec) {
				loadTests := append([]LoadTestSpec{}, spec.LoadTests...)
				loadTests[0].Service = "warehouse"
				spec.LoadTests = loadTests
			},
			wantErr: true,
			errText: "unknown service",
		},
		{
			name: "zero request count",
			modify: func(spec *BenchmarkSpec) {
				loadTests := append([]LoadTestSpec{}, spec.LoadTests...)
				loadTests[0].RequestCount = 0
				spec.LoadTests = loadTests
			},
			wantErr: true,
			errText: "must be at least 1",
		},
		{
			name: "zero concurrency",
			modify: func(spec *BenchmarkSpec) {
				loadTests := append([]LoadTestSpec{}, spec.LoadTests...)
				loadTests[0].Concurrency = 0
				spec.LoadTests = loadTests
			},
			wantErr: true,
			errText: "must be at least 1",
		},
		{
			name: "zero per request timeout",
			modify: func(spec *BenchmarkSpec) {
				loadTests := append([]LoadTestSpec{}, spec.LoadTests...)
				loadTests[0].PerRequestTimeout = 0
				spec.LoadTests = loadTests
			},
			wantErr: true,
			errText: "must be positive",
		},
		{
			name: "empty work item",
			modify: func(spec *BenchmarkSpec) {
				workflow := *spec.Workflow
				workflow.WorkItems = []string{"1342", ""}
				spec.Workflow = &workflow
			},
			wantErr: true,
			errText: "empty work item",
		},
		{
			name: "workflow references unknown service",
			modify: func(spec *BenchmarkSpec) {
				workflow := *spec.Workflow
				workflow.SearchService = "lookup"
				spec.Workflow = &workflow
			},
			wantErr: true,
			errText: "unknown service",
		},
		{
			name: "readiness poll without attempts",
			modify: func(spec *BenchmarkSpec) {
				workflow := *spec.Workflow
				workflow.IngestSettle = &SettleConfig{
					ReadinessPath: "/ingest/status/{id}",
					PollInterval:  time.Second,
					PollAttempts:  0,
				}
				spec.Workflow = &workflow
			},
			wantErr: true,
			errText: "must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			tt.modify(spec)
			err := spec.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestBenchmarkSpec_ValidateReportsEveryProblem(t *testing.T) {
	spec := validSpec()
	spec.Timeout = -time.Second
	loadTests := append([]LoadTestSpec{}, spec.LoadTests...)
	loadTests[0].RequestCount = 0
	loadTests[0].Concurrency = 0
	spec.LoadTests = loadTests

	err := spec.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
	assert.Contains(t, err.Error(), "requestCount")
	assert.Contains(t, err.Error(), "concurrency")

	var invalid *bencherrors.ErrInvalidArgument
	assert.ErrorAs(t, err, &invalid)
}

func TestServiceConfig_Resolve(t *testing.T) {
	service := ServiceConfig{
		Name:       "search",
		BaseURL:    mustParseURL("http://localhost:7003"),
		StatusPath: "/status",
	}

	u := service.Resolve("/search?q=pride")
	assert.Equal(t, "http://localhost:7003/search?q=pride", u.String())

	u = service.StatusURL()
	assert.Equal(t, "http://localhost:7003/status", u.String())
}

func TestWorkflowSpec_Query(t *testing.T) {
	w := &WorkflowSpec{Queries: map[string]string{"1342": "pride"}}
	assert.Equal(t, "pride", w.Query("1342"))
	assert.Equal(t, "84", w.Query("84"))
}
