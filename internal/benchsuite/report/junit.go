package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jstemmer/go-junit-report/v2/junit"

	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/probe"
)

// WriteJUnit renders the reports as a JUnit XML document, one testsuite per
// report, so CI systems can track benchmark runs like test runs.
func WriteJUnit(out io.Writer, reports []*BenchmarkReport) error {
	suites := junit.Testsuites{Name: "benchsuite"}
	for _, r := range reports {
		ts := junitSuite(r)
		ts.ID = len(suites.Suites)
		suites.AddSuite(ts)
	}
	return suites.WriteXML(out)
}

func junitSuite(r *BenchmarkReport) junit.Testsuite {
	ts := junit.Testsuite{Name: r.Name}
	ts.SetTimestamp(r.SuiteStartedAt)

	var total time.Duration
	for _, lt := range r.LoadTests {
		elapsed := loadTestElapsed(lt)
		total += elapsed
		tc := junit.Testcase{
			Name:      lt.Name,
			Classname: "loadtest",
			Time:      formatSeconds(elapsed),
		}
		if lt.Unreachable {
			tc.Failure = &junit.Result{
				Message: "service unreachable",
				Type:    "unreachable",
			}
		} else if lt.Failed() {
			tc.Failure = &junit.Result{
				Message: fmt.Sprintf("success rate %.1f%% over %d probes", lt.SuccessRate, lt.SampleCount),
				Type:    "probe_failures",
				Data:    failureBreakdown(lt.Outcomes),
			}
		}
		ts.AddTestcase(tc)
	}

	for _, run := range r.Workflows {
		total += run.TotalElapsed
		tc := junit.Testcase{
			Name:      "workflow-" + run.WorkItemID,
			Classname: "workflow",
			Time:      formatSeconds(run.TotalElapsed),
		}
		if !run.OverallSucceeded {
			tc.Failure = &junit.Result{
				Message: workflowFailureMessage(run),
				Type:    "stage_failure",
			}
		}
		ts.AddTestcase(tc)
	}

	ts.Time = formatSeconds(total)
	return ts
}

// loadTestElapsed is the cumulative probe time of a load test.
func loadTestElapsed(lt *LoadTestResult) time.Duration {
	var rv time.Duration
	for _, outcome := range lt.Outcomes {
		rv += outcome.Elapsed
	}
	return rv
}

func failureBreakdown(outcomes []probe.Outcome) string {
	counts := map[probe.FailureReason]int{}
	for _, outcome := range outcomes {
		if !outcome.Succeeded {
			counts[outcome.FailureReason]++
		}
	}
	s := ""
	for _, reason := range []probe.FailureReason{
		probe.FailureTimeout,
		probe.FailureConnectionRefused,
		probe.FailureNonSuccessStatus,
		probe.FailureTransportError,
	} {
		if n, ok := counts[reason]; ok {
			if s != "" {
				s += ", "
			}
			s += fmt.Sprintf("%s: %d", reason, n)
		}
	}
	return s
}

func workflowFailureMessage(run *WorkflowRun) string {
	if len(run.Stages) == 0 {
		return "no stages attempted"
	}
	last := run.Stages[len(run.Stages)-1]
	if !last.Succeeded {
		return fmt.Sprintf("stage %s failed", last.Name)
	}
	return "pipeline incomplete"
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
