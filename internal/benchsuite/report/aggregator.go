package report

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/bencherrors"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/util"
)

// Aggregator collects results while a suite runs and freezes them into a
// BenchmarkReport. Safe for concurrent use; workflow runners record from
// several goroutines.
type Aggregator struct {
	mu        sync.Mutex
	report    *BenchmarkReport
	finalized bool
}

// NewAggregator returns an aggregator for a suite starting now.
// The clock stamps SuiteStartedAt and exists so tests can pin time.
func NewAggregator(name string, clock util.Clock) *Aggregator {
	return &Aggregator{
		report: &BenchmarkReport{
			Name:           name,
			SuiteStartedAt: clock.Now(),
		},
	}
}

// RecordLoadTest appends a load test result to the report.
// Returns ErrAlreadyFinalized if Finalize has been called.
func (a *Aggregator) RecordLoadTest(result *LoadTestResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.finalized {
		return errors.WithStack(&bencherrors.ErrAlreadyFinalized{
			Report:  a.report.Name,
			Message: "cannot record load test " + result.Name,
		})
	}
	a.report.LoadTests = append(a.report.LoadTests, result)
	return nil
}

// RecordWorkflow appends a workflow run to the report.
// Returns ErrAlreadyFinalized if Finalize has been called.
func (a *Aggregator) RecordWorkflow(run *WorkflowRun) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.finalized {
		return errors.WithStack(&bencherrors.ErrAlreadyFinalized{
			Report:  a.report.Name,
			Message: "cannot record workflow for work item " + run.WorkItemID,
		})
	}
	a.report.Workflows = append(a.report.Workflows, run)
	return nil
}

// Finalize freezes the report and returns it. Further Record calls fail.
// Calling Finalize again returns the same report.
func (a *Aggregator) Finalize() *BenchmarkReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.finalized = true
	return a.report
}
