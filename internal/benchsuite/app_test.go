package benchsuite

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/configuration"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/report"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/benchcontext"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/logging"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/util"
)

// quietCtx returns a context whose logger discards output, keeping test
// logs readable.
func quietCtx() *benchcontext.Context {
	return benchcontext.New(context.Background(), logging.NullEntry())
}

// pipelineMux fakes the ingest, index, search pipeline with every endpoint
// answering success.
func pipelineMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status": "ok"}`)
	})
	mux.HandleFunc("/work", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/ingest/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/ingest/status/") {
			_, _ = io.WriteString(w, `{"status": "available"}`)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/index/update/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status": "updated"}`)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"results": []}`)
	})
	return mux
}

// pipelineSpec builds a fully initialised spec pointing every pipeline role at
// the same server.
func pipelineSpec(t *testing.T, baseURL string, name string) *configuration.BenchmarkSpec {
	u, err := url.Parse(baseURL)
	require.NoError(t, err)
	service := func(name string) configuration.ServiceConfig {
		return configuration.ServiceConfig{Name: name, BaseURL: *u, StatusPath: "/status"}
	}
	return &configuration.BenchmarkSpec{
		Name:         name,
		RequireReady: true,
		Services: []configuration.ServiceConfig{
			service("ingestion"),
			service("indexing"),
			service("search"),
		},
		LoadTests: []configuration.LoadTestSpec{{
			Name:              "status-sweep",
			Service:           "search",
			Path:              "/work",
			Method:            http.MethodGet,
			RequestCount:      6,
			Concurrency:       2,
			PerRequestTimeout: 5 * time.Second,
		}},
		Workflow: &configuration.WorkflowSpec{
			WorkItems:         []string{"1342"},
			Concurrency:       1,
			PerRequestTimeout: 5 * time.Second,
			VerifyIndexBody:   true,
			IngestService:     "ingestion",
			IndexService:      "indexing",
			SearchService:     "search",
			IngestPath:        "/ingest/{id}",
			IndexPath:         "/index/update/{id}",
			SearchPath:        "/search?q={query}",
			IngestSettle: &configuration.SettleConfig{
				ReadinessPath:   "/ingest/status/{id}",
				ReadyWhenStatus: "available",
				PollInterval:    10 * time.Millisecond,
				PollAttempts:    5,
			},
			IndexSettle: &configuration.SettleConfig{
				FallbackDelay: time.Millisecond,
			},
		},
		Readiness: configuration.ReadinessConfig{
			Attempts:     2,
			Interval:     10 * time.Millisecond,
			CacheTTL:     time.Minute,
			ProbeTimeout: time.Second,
		},
	}
}

func testApp(t *testing.T) (*App, *bytes.Buffer) {
	out := &bytes.Buffer{}
	app := New()
	app.Out = out
	app.Clock = &util.DummyClock{T: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)}
	app.Params.Harness.OutputDir = t.TempDir()
	return app, out
}

func TestBenchmarkEndToEnd(t *testing.T) {
	server := httptest.NewServer(pipelineMux())
	defer server.Close()

	app, out := testApp(t)
	r, err := app.Benchmark(quietCtx(), pipelineSpec(t, server.URL, "app-e2e"))
	require.NoError(t, err)
	require.NotNil(t, r)

	assert.Equal(t, "app-e2e", r.Name)
	require.Len(t, r.LoadTests, 1)
	assert.Equal(t, "status-sweep", r.LoadTests[0].Name)
	assert.Equal(t, 6, r.LoadTests[0].SampleCount)
	assert.Equal(t, float64(100), r.LoadTests[0].SuccessRate)
	require.Len(t, r.Workflows, 1)
	assert.True(t, r.Workflows[0].OverallSucceeded)
	assert.Len(t, r.Workflows[0].Stages, 3)
	assert.Equal(t, 0, app.NumFailed())

	assert.Contains(t, out.String(), "starting benchmark app-e2e (1 load tests, 1 work items)")
	assert.Contains(t, out.String(), "status-sweep")

	// The result file name comes from the injected clock.
	resultPath := filepath.Join(app.Params.Harness.OutputDir, "benchsuite-result-20240401-120000.json")
	_, err = os.Stat(resultPath)
	assert.NoError(t, err)
}

func TestBenchmarkRequireReadyAborts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	app, _ := testApp(t)
	spec := pipelineSpec(t, server.URL, "app-not-ready")
	spec.Workflow = nil
	spec.Readiness.Attempts = 2
	spec.Readiness.Interval = time.Millisecond

	r, err := app.Benchmark(quietCtx(), spec)
	require.Error(t, err)
	assert.Nil(t, r)
	assert.Contains(t, err.Error(), "did not become ready")
	assert.Empty(t, app.reports)
}

func TestBenchmarkRecordsMeasurementFailures(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/work", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	app, _ := testApp(t)
	spec := pipelineSpec(t, server.URL, "app-failing-loadtest")
	spec.Workflow = nil

	r, err := app.Benchmark(quietCtx(), spec)
	require.NoError(t, err)
	require.Len(t, r.LoadTests, 1)
	assert.Equal(t, float64(0), r.LoadTests[0].SuccessRate)
	assert.Equal(t, 1, r.FailedLoadTests())
	assert.Equal(t, 1, app.NumFailed())
}

func TestBenchmarkRejectsInvalidSpec(t *testing.T) {
	app, _ := testApp(t)
	_, err := app.Benchmark(quietCtx(), &configuration.BenchmarkSpec{Name: "bad"})
	require.Error(t, err)
}

func TestWriteJUnitFile(t *testing.T) {
	app, _ := testApp(t)
	app.reports = append(app.reports, &report.BenchmarkReport{
		Name:           "app-junit",
		SuiteStartedAt: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
	})

	path := filepath.Join(t.TempDir(), "junit.xml")
	require.NoError(t, app.WriteJUnitFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<testsuites")
	assert.Contains(t, string(data), `name="app-junit"`)
}

func TestVersion(t *testing.T) {
	app, out := testApp(t)
	require.NoError(t, app.Version())
	assert.Contains(t, out.String(), "Version:")
	assert.Contains(t, out.String(), "Commit:")
	assert.Contains(t, out.String(), "Go version:")
}
