// Package sink persists finalized benchmark reports: to timestamped result
// files and, optionally, to Postgres.
package sink

import (
	"time"

	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/configuration"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/report"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/util"
)

// SchemaVersion tracks the result file layout for compatibility.
const SchemaVersion = "1.0.0"

// Envelope is the complete artifact of one benchmark run: metadata, a
// snapshot of the configuration that produced it, and the finalized report.
type Envelope struct {
	Metadata      Metadata                `json:"metadata"`
	Configuration ConfigurationSnapshot   `json:"configuration"`
	Report        *report.BenchmarkReport `json:"report"`
}

type Metadata struct {
	// When the envelope was built, i.e., when the run completed.
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	// Sortable unique identifier of the run.
	RunID string `json:"runId"`
}

// ConfigurationSnapshot is the subset of the benchmark spec recorded alongside
// results, with durations rendered as strings.
type ConfigurationSnapshot struct {
	Name      string             `json:"name"`
	Timeout   string             `json:"timeout,omitempty"`
	Services  map[string]string  `json:"services"`
	LoadTests []LoadTestSnapshot `json:"loadTests,omitempty"`
	Workflow  *WorkflowSnapshot  `json:"workflow,omitempty"`
}

type LoadTestSnapshot struct {
	Name              string `json:"name"`
	Service           string `json:"service"`
	Path              string `json:"path"`
	Method            string `json:"method"`
	RequestCount      int    `json:"requestCount"`
	Concurrency       int    `json:"concurrency"`
	InterRequestDelay string `json:"interRequestDelay,omitempty"`
	PerRequestTimeout string `json:"perRequestTimeout,omitempty"`
}

type WorkflowSnapshot struct {
	WorkItems       []string `json:"workItems"`
	Concurrency     int      `json:"concurrency"`
	VerifyIndexBody bool     `json:"verifyIndexBody,omitempty"`
}

// BuildEnvelope wraps a finalized report together with the spec that produced
// it. The clock stamps completion time and exists so tests can pin it.
func BuildEnvelope(spec *configuration.BenchmarkSpec, r *report.BenchmarkReport, clock util.Clock) *Envelope {
	return &Envelope{
		Metadata: Metadata{
			Timestamp: clock.Now(),
			Version:   SchemaVersion,
			RunID:     util.NewULID(),
		},
		Configuration: ConvertSpecToSnapshot(spec),
		Report:        r,
	}
}

// ConvertSpecToSnapshot reduces a benchmark spec to the fields worth recording
// alongside its results.
func ConvertSpecToSnapshot(spec *configuration.BenchmarkSpec) ConfigurationSnapshot {
	snapshot := ConfigurationSnapshot{
		Name:     spec.Name,
		Services: make(map[string]string, len(spec.Services)),
	}
	if spec.Timeout != 0 {
		snapshot.Timeout = spec.Timeout.String()
	}
	for _, service := range spec.Services {
		snapshot.Services[service.Name] = service.BaseURL.String()
	}
	for _, lt := range spec.LoadTests {
		s := LoadTestSnapshot{
			Name:         lt.Name,
			Service:      lt.Service,
			Path:         lt.Path,
			Method:       lt.Method,
			RequestCount: lt.RequestCount,
			Concurrency:  lt.Concurrency,
		}
		if lt.InterRequestDelay != 0 {
			s.InterRequestDelay = lt.InterRequestDelay.String()
		}
		if lt.PerRequestTimeout != 0 {
			s.PerRequestTimeout = lt.PerRequestTimeout.String()
		}
		snapshot.LoadTests = append(snapshot.LoadTests, s)
	}
	if w := spec.Workflow; w != nil {
		snapshot.Workflow = &WorkflowSnapshot{
			WorkItems:       w.WorkItems,
			Concurrency:     w.Concurrency,
			VerifyIndexBody: w.VerifyIndexBody,
		}
	}
	return snapshot
}
