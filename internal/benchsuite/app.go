package benchsuite

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/build"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/configuration"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/loadtest"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/metrics"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/probe"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/readiness"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/report"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/sink"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/workflow"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/benchcontext"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/bencherrors"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/database"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/util"
)

// App runs benchmark specs against a deployment of the pipeline.
// It is not safe for concurrent use.
type App struct {
	// Parameters passed to the CLI by the user.
	Params *Params
	// Out is used to write the output. Defaults to standard out,
	// but can be overridden in tests to make assertions on the application's output.
	Out io.Writer
	// Source of report timestamps. Tests can substitute a fixed clock in order
	// to get deterministic result file names.
	Clock util.Clock

	// Reports of all benchmarks run so far, in run order.
	reports []*report.BenchmarkReport

	db     *pgxpool.Pool
	pgSink *sink.PostgresSink
}

// Params struct holds all user-customizable parameters.
// Using a single struct for all CLI commands ensures that all flags are distinct
// and that they can be provided either dynamically on a command line, or
// statically in a config file that's reused between command runs.
type Params struct {
	Harness *configuration.HarnessConfig
}

// New instantiates an App with default parameters, including standard output
// and the wall clock.
func New() *App {
	return &App{
		Params: &Params{Harness: &configuration.HarnessConfig{}},
		Out:    os.Stdout,
		Clock:  &util.DefaultClock{},
	}
}

// Version prints build information (e.g., current git commit) to the app output.
func (a *App) Version() error {
	w := tabwriter.NewWriter(a.Out, 1, 1, 1, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "Version:\t%s\n", build.ReleaseVersion)
	fmt.Fprintf(w, "Commit:\t%s\n", build.GitCommit)
	fmt.Fprintf(w, "Go version:\t%s\n", build.GoVersion)
	fmt.Fprintf(w, "Built:\t%s\n", build.BuildTime)
	return nil
}

// Close releases any database connections held by the app.
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
}

// BenchmarkFile runs the benchmark described by the spec file.
func (a *App) BenchmarkFile(ctx *benchcontext.Context, filePath string) (*report.BenchmarkReport, error) {
	spec, err := configuration.SpecFromFilePath(filePath)
	if err != nil {
		return nil, err
	}
	return a.Benchmark(ctx, spec)
}

// Benchmark runs one benchmark spec end to end: wait for the services under
// test, drive the load tests, run the workflow, then finalize the report and
// write it to the configured sinks.
//
// Measurement failures are recorded in the returned report, not returned as
// errors. A non-nil error means the benchmark could not be carried out at all,
// e.g. because the spec is invalid or a required service never became ready.
func (a *App) Benchmark(ctx *benchcontext.Context, spec *configuration.BenchmarkSpec) (*report.BenchmarkReport, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	ctx = benchcontext.WithLogField(ctx, "benchmark", spec.Name)
	fmt.Fprintf(a.Out, "starting benchmark %s\n", specHeader(spec))

	// Optional suite deadline.
	var cancel context.CancelFunc
	if spec.Timeout != 0 {
		ctx, cancel = benchcontext.WithTimeout(ctx, spec.Timeout)
	} else {
		ctx, cancel = benchcontext.WithCancel(ctx)
	}
	defer cancel()

	prober := &metrics.InstrumentedProber{Inner: probe.New()}
	checker := readiness.NewChecker(prober, spec.Readiness)

	if spec.RequireReady {
		if err := checker.WaitAll(ctx, spec.Services); err != nil {
			return nil, err
		}
	}

	aggregator := report.NewAggregator(spec.Name, a.Clock)

	// Load tests run one at a time so they don't contend with each other for
	// client-side resources.
	for _, lt := range spec.LoadTests {
		service, ok := spec.Service(lt.Service)
		if !ok {
			return nil, errors.WithStack(&bencherrors.ErrInvalidArgument{
				Name:    "loadTest.service",
				Value:   lt.Service,
				Message: "no such service",
			})
		}
		result := loadtest.NewDriver(lt, service, prober, checker).Run(ctx)
		if err := aggregator.RecordLoadTest(result); err != nil {
			return nil, err
		}
	}

	if spec.Workflow != nil {
		orchestrator, err := workflow.NewOrchestratorFromSpec(spec, prober)
		if err != nil {
			return nil, err
		}
		for _, run := range orchestrator.RunAll(ctx) {
			if err := aggregator.RecordWorkflow(run); err != nil {
				return nil, err
			}
		}
	}

	r := aggregator.Finalize()
	metrics.Get().RecordReport(r)
	a.reports = append(a.reports, r)

	r.Print(a.Out)

	if err := a.storeReport(ctx, spec, r); err != nil {
		return r, err
	}
	return r, nil
}

// storeReport writes the finalized report to the result file sink and, if
// configured, to postgres.
func (a *App) storeReport(ctx *benchcontext.Context, spec *configuration.BenchmarkSpec, r *report.BenchmarkReport) error {
	envelope := sink.BuildEnvelope(spec, r, a.Clock)

	fileSink := sink.NewFileSink(a.Params.Harness.OutputDir)
	fileSink.Clock = a.Clock
	path, err := fileSink.Write(envelope)
	if err != nil {
		return err
	}
	ctx.Log.WithField("path", path).Info("wrote benchmark result file")

	if a.Params.Harness.Postgres != nil {
		pgSink, err := a.postgresSink(ctx)
		if err != nil {
			return err
		}
		if err := pgSink.Store(ctx, envelope); err != nil {
			return err
		}
		ctx.Log.Info("stored benchmark report in postgres")
	}
	return nil
}

// postgresSink opens the postgres pool on first use and keeps it for the
// lifetime of the app.
func (a *App) postgresSink(ctx *benchcontext.Context) (*sink.PostgresSink, error) {
	if a.pgSink != nil {
		return a.pgSink, nil
	}
	db, err := database.OpenPgxPool(*a.Params.Harness.Postgres)
	if err != nil {
		return nil, err
	}
	pgSink, err := sink.NewPostgresSink(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	a.db = db
	a.pgSink = pgSink
	return pgSink, nil
}

// WriteJUnitFile writes the reports of all benchmarks run so far to a JUnit
// XML file, one test suite per benchmark.
func (a *App) WriteJUnitFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	return report.WriteJUnit(f, a.reports)
}

// NumFailed returns the total number of failed load tests and workflow runs
// across all benchmarks run so far.
func (a *App) NumFailed() int {
	rv := 0
	for _, r := range a.reports {
		rv += r.FailedLoadTests() + r.FailedWorkflows()
	}
	return rv
}

func specHeader(spec *configuration.BenchmarkSpec) string {
	numWorkItems := 0
	if spec.Workflow != nil {
		numWorkItems = len(spec.Workflow.WorkItems)
	}
	return fmt.Sprintf("%s (%d load tests, %d work items)", spec.Name, len(spec.LoadTests), numWorkItems)
}
