package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/util"
)

// Formatter serialises a report for output.
type Formatter func(interface{}) ([]byte, error)

// YamlFormatter is the default report formatter.
func YamlFormatter(v interface{}) ([]byte, error) {
	return yaml.Marshal(v)
}

func JSONFormatter(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// Generate serialises the report with the given formatter,
// defaulting to YAML if formatter is nil.
func (r *BenchmarkReport) Generate(formatter Formatter) ([]byte, error) {
	if formatter == nil {
		formatter = YamlFormatter
	}
	return formatter(r)
}

func (r *BenchmarkReport) Print(out io.Writer) {
	_, _ = fmt.Fprintf(out, "\nBenchmark report %s:\n", r.Name)
	r.PrintLoadTests(out)
	r.PrintWorkflows(out)
	r.PrintSummary(out)
}

func (r *BenchmarkReport) PrintLoadTests(out io.Writer) {
	if len(r.LoadTests) == 0 {
		return
	}
	_, _ = fmt.Fprintf(out, "\nLoad tests:\n")
	w := util.NewTabbedStringBuilder(1, 1, 2, ' ', 0)
	w.Writef("NAME\tSERVICE\tSAMPLES\tSUCCESS\tAVG LATENCY\n")
	for _, lt := range r.LoadTests {
		if lt.Unreachable {
			w.Writef("%s\t%s\t-\t-\tunreachable\n", lt.Name, lt.Service)
			continue
		}
		avg := "-"
		if lt.AverageLatency != nil {
			avg = lt.AverageLatency.Round(time.Microsecond).String()
		}
		w.Writef("%s\t%s\t%d\t%.1f%%\t%s\n", lt.Name, lt.Service, lt.SampleCount, lt.SuccessRate, avg)
	}
	_, _ = fmt.Fprint(out, w.String())
}

func (r *BenchmarkReport) PrintWorkflows(out io.Writer) {
	if len(r.Workflows) == 0 {
		return
	}
	_, _ = fmt.Fprintf(out, "\nWorkflows:\n")
	for _, run := range r.Workflows {
		status := "failed"
		if run.OverallSucceeded {
			status = "ok"
		}
		_, _ = fmt.Fprintf(out, "%s (%s, total %s):\n", run.WorkItemID, status, run.TotalElapsed.Round(time.Microsecond))
		for _, stage := range run.Stages {
			mark := "failed"
			if stage.Succeeded {
				mark = "ok"
			}
			_, _ = fmt.Fprintf(out, "\t%s: %s in %s\n", stage.Name, mark, stage.Elapsed.Round(time.Microsecond))
		}
	}
}

func (r *BenchmarkReport) PrintSummary(out io.Writer) {
	_, _ = fmt.Fprintf(out, "\nSummary:\n")
	w := util.NewTabbedStringBuilder(1, 1, 1, ' ', 0)
	w.Writef("Load tests:\t%d\n", len(r.LoadTests))
	w.Writef("Failed:\t%d\n", r.FailedLoadTests())
	w.Writef("Workflow runs:\t%d\n", len(r.Workflows))
	w.Writef("Failed:\t%d\n", r.FailedWorkflows())
	_, _ = fmt.Fprint(out, w.String())
}
