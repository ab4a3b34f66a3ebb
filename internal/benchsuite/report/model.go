// Package report holds the measurement result model, the aggregator collecting
// results during a run, and the output formats of the finalized report.
package report

import (
	"time"

	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/probe"
)

// StageName identifies one stage of the pipeline workflow.
type StageName string

const (
	StageIngest StageName = "ingest"
	StageIndex  StageName = "index"
	StageSearch StageName = "search"
)

// PipelineStages is the full ordered pipeline. A workflow run attempts these
// in order and stops at the first failure.
var PipelineStages = []StageName{StageIngest, StageIndex, StageSearch}

// LoadTestResult aggregates the probe outcomes of one load test.
type LoadTestResult struct {
	Name    string `json:"name" yaml:"name"`
	Service string `json:"service" yaml:"service"`
	URL     string `json:"url" yaml:"url"`
	Method  string `json:"method" yaml:"method"`
	// Number of probes dispatched. Zero when the service was unreachable.
	SampleCount int `json:"sampleCount" yaml:"sampleCount"`
	// Percentage of dispatched probes that succeeded, 0 to 100.
	SuccessRate float64 `json:"successRate" yaml:"successRate"`
	// Mean latency over succeeded probes only. Nil when none succeeded.
	AverageLatency *time.Duration `json:"averageLatency,omitempty" yaml:"averageLatency,omitempty"`
	// Latency statistics over succeeded probes only. Nil when none succeeded.
	Latency *Statistics `json:"latency,omitempty" yaml:"latency,omitempty"`
	// True when the service failed its readiness probe before the load test
	// started. No probes are dispatched in that case.
	Unreachable bool `json:"unreachable,omitempty" yaml:"unreachable,omitempty"`
	// Outcomes in dispatch order.
	Outcomes []probe.Outcome `json:"outcomes" yaml:"outcomes"`
}

// Failed reports whether this load test counts as failed in the suite summary.
func (r *LoadTestResult) Failed() bool {
	return r.Unreachable || r.SuccessRate < 100
}

// BuildLoadTestResult computes the aggregate fields from probe outcomes.
// Outcomes must be in dispatch order.
func BuildLoadTestResult(name, service, url, method string, outcomes []probe.Outcome) *LoadTestResult {
	result := &LoadTestResult{
		Name:        name,
		Service:     service,
		URL:         url,
		Method:      method,
		SampleCount: len(outcomes),
		Outcomes:    outcomes,
	}

	var latencies []time.Duration
	for _, outcome := range outcomes {
		if outcome.Succeeded {
			latencies = append(latencies, outcome.Elapsed)
		}
	}
	if result.SampleCount > 0 {
		result.SuccessRate = 100 * float64(len(latencies)) / float64(result.SampleCount)
	}
	if len(latencies) > 0 {
		result.Latency = NewStatistics(latencies)
		avg := time.Duration(result.Latency.Average)
		result.AverageLatency = &avg
	}
	return result
}

// UnreachableResult marks a load test that was skipped because the service
// never answered its readiness probe.
func UnreachableResult(name, service, url, method string) *LoadTestResult {
	return &LoadTestResult{
		Name:        name,
		Service:     service,
		URL:         url,
		Method:      method,
		Unreachable: true,
	}
}

// WorkflowStage is one attempted stage of a workflow run.
type WorkflowStage struct {
	Name      StageName     `json:"name" yaml:"name"`
	StartedAt time.Time     `json:"startedAt" yaml:"startedAt"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
	Succeeded bool          `json:"succeeded" yaml:"succeeded"`
}

// WorkflowRun records one work item's passage through the pipeline. Stages
// holds only the stages actually attempted: a strict prefix of PipelineStages.
type WorkflowRun struct {
	WorkItemID       string          `json:"workItemId" yaml:"workItemId"`
	Stages           []WorkflowStage `json:"stages" yaml:"stages"`
	TotalElapsed     time.Duration   `json:"totalElapsed" yaml:"totalElapsed"`
	OverallSucceeded bool            `json:"overallSucceeded" yaml:"overallSucceeded"`
}

// BuildWorkflowRun computes the run aggregates from the attempted stages.
// TotalElapsed spans from the first stage start to the end of the last
// attempted stage; OverallSucceeded requires every pipeline stage to have been
// attempted and succeeded.
func BuildWorkflowRun(workItemID string, stages []WorkflowStage) *WorkflowRun {
	run := &WorkflowRun{
		WorkItemID: workItemID,
		Stages:     stages,
	}
	if len(stages) > 0 {
		first := stages[0]
		last := stages[len(stages)-1]
		run.TotalElapsed = last.StartedAt.Add(last.Elapsed).Sub(first.StartedAt)
	}
	if len(stages) == len(PipelineStages) {
		run.OverallSucceeded = true
		for _, stage := range stages {
			if !stage.Succeeded {
				run.OverallSucceeded = false
				break
			}
		}
	}
	return run
}

// BenchmarkReport is the sole artifact handed to renderers and sinks once a
// run completes. It is frozen at finalize and never mutated afterwards.
type BenchmarkReport struct {
	Name           string            `json:"name" yaml:"name"`
	SuiteStartedAt time.Time         `json:"suiteStartedAt" yaml:"suiteStartedAt"`
	LoadTests      []*LoadTestResult `json:"loadTests" yaml:"loadTests"`
	Workflows      []*WorkflowRun    `json:"workflows" yaml:"workflows"`
}

// FailedLoadTests counts load tests that did not fully succeed.
func (r *BenchmarkReport) FailedLoadTests() int {
	n := 0
	for _, lt := range r.LoadTests {
		if lt.Failed() {
			n++
		}
	}
	return n
}

// FailedWorkflows counts workflow runs that did not complete the pipeline.
func (r *BenchmarkReport) FailedWorkflows() int {
	n := 0
	for _, run := range r.Workflows {
		if !run.OverallSucceeded {
			n++
		}
	}
	return n
}
