package cmd

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/configuration"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/metrics"
	commonapp "github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/app"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/logging"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "benchsuite",
		Short: "benchsuite measures the performance of a deployment of the book pipeline.",
		Long: `benchsuite measures the performance of a deployment of the book pipeline.

Benchmarks are described by spec files. Each spec lists the services under
test, the load tests to drive against individual endpoints, and the work items
to push through the ingest, index, search workflow.

Harness-level configuration (result directory, metrics, sinks) can be saved in
a config file so it doesn't have to be specified every command.

Example structure:
outputDir: ./results
metricsPort: 9000
postgres:
  connection:
    host: localhost
    port: "5432"

The location of this file can be passed in using the --config argument.`,
	}

	cmd.PersistentFlags().String("config", "", "Harness config file.")

	cmd.AddCommand(
		versionCmd(benchsuite.New()),
		runCmd(benchsuite.New()),
	)

	return cmd
}

// Print version info and exit.
func versionCmd(app *benchsuite.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version.",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, app)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Version()
		},
	}
	return cmd
}

// Run benchmark specs and print per-benchmark reports plus a summary on exit.
func runCmd(app *benchsuite.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run benchmark specs against a deployment of the pipeline.",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, app)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			specsPattern, err := cmd.Flags().GetString("specs")
			if err != nil {
				return err
			}
			junitPath, err := cmd.Flags().GetString("junit")
			if err != nil {
				return err
			}

			// Load every spec up front so a malformed file fails the run
			// before any measurement starts.
			specs, err := configuration.SpecsFromPattern(specsPattern)
			if err != nil {
				return err
			}
			if len(specs) == 0 {
				return errors.Errorf("no spec files matched %s", specsPattern)
			}

			// Create a context that is cancelled on SIGINT/SIGTERM.
			// Ensures running benchmarks stop probing on ctrl-C.
			ctx := commonapp.CreateContextWithShutdown()

			if port := app.Params.Harness.MetricsPort; port != 0 {
				shutdownMetrics := metrics.ServeMetrics(port)
				defer shutdownMetrics()
			}
			defer app.Close()

			numSuccesses := 0
			numFailures := 0
			start := time.Now()
			for _, spec := range specs {
				benchmarkStart := time.Now()
				r, err := app.Benchmark(ctx, spec)
				fmt.Printf("\nRuntime: %s\n", time.Since(benchmarkStart))

				numFailed := 0
				if r != nil {
					numFailed = r.FailedLoadTests() + r.FailedWorkflows()
				}
				switch {
				case err != nil:
					numFailures++
					logging.WithStacktrace(ctx.Log, err).Error("benchmark aborted")
					fmt.Printf("BENCHMARK FAILED: %s\n", err)
				case numFailed > 0:
					numFailures++
					fmt.Printf("BENCHMARK FAILED: %d measurement(s) failed\n", numFailed)
				default:
					numSuccesses++
					fmt.Print("BENCHMARK SUCCEEDED\n")
				}
			}

			fmt.Printf("\n======= SUMMARY =======\n")
			fmt.Printf("Ran %d benchmark(s) in %s\n", numSuccesses+numFailures, time.Since(start))
			fmt.Printf("Successes: %d\n", numSuccesses)
			fmt.Printf("Failures: %d\n", numFailures)

			if junitPath != "" {
				if err := app.WriteJUnitFile(junitPath); err != nil {
					return err
				}
				fmt.Printf("Wrote JUnit results to %s\n", junitPath)
			}

			if numFailures > 0 {
				return errors.Errorf("%d benchmark(s) failed", numFailures)
			}
			return nil
		},
	}

	cmd.Flags().String("specs", "", "Benchmark spec file pattern, e.g., './specs/*.yaml'.")
	cmd.Flags().String("junit", "", "Write a JUnit XML results file to this path.")
	cmd.Flags().String("output-dir", "", "Directory result files are written to. Defaults to the working directory.")
	cmd.Flags().Uint16("metrics-port", 0, "If set, serve Prometheus metrics on this port for the duration of the run.")

	return cmd
}

// initParams loads the harness config file, if any, and applies command line
// overrides to it.
func initParams(cmd *cobra.Command, app *benchsuite.App) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	if configPath != "" {
		harness, err := configuration.HarnessConfigFromFilePath(configPath)
		if err != nil {
			return err
		}
		app.Params.Harness = harness
	}

	if cmd.Flags().Changed("output-dir") {
		outputDir, err := cmd.Flags().GetString("output-dir")
		if err != nil {
			return err
		}
		app.Params.Harness.OutputDir = outputDir
	}
	if cmd.Flags().Changed("metrics-port") {
		port, err := cmd.Flags().GetUint16("metrics-port")
		if err != nil {
			return err
		}
		app.Params.Harness.MetricsPort = port
	}
	return nil
}
