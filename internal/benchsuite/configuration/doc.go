/*
Package configuration defines the input configuration for the benchsuite harness.

Benchsuite drives synthetic load against the running book pipeline services
(ingestion, indexing, search), times multi-stage workflows that span those
services, and aggregates the measurements into a benchmark report.

# Configuration Structure

The main configuration type is BenchmarkSpec, one per spec file, which defines:

  - The services under test and their base urls
  - Load tests (request count, concurrency, pacing, per-request timeout)
  - The workflow work items and settle behaviour between pipeline stages
  - Readiness probing for the suite and per-endpoint gates
  - An optional suite deadline

# Example YAML Configuration

	name: gutenberg-baseline
	timeout: 5m
	requireReady: true
	services:
	  - name: ingestion
	    baseUrl: http://localhost:7001
	  - name: indexing
	    baseUrl: http://localhost:7002
	  - name: search
	    baseUrl: http://localhost:7003
	loadTests:
	  - name: ingestion-status
	    service: ingestion
	    path: /status
	    method: GET
	    requestCount: 20
	    concurrency: 5
	    interRequestDelay: 100ms
	    perRequestTimeout: 1s
	workflow:
	  workItems: ["1342", "84", "11", "74", "1080"]
	  queries:
	    "1342": "pride"
	  concurrency: 2
	  perRequestTimeout: 10s
	  ingestSettle:
	    readinessPath: /ingest/status/{id}
	    pollInterval: 500ms
	    pollAttempts: 20
	  indexSettle:
	    fallbackDelay: 3s
	readiness:
	  attempts: 30
	  interval: 1s

Spec files are loaded per file with viper and decoded with the custom hooks in
internal/common/config, so durations are plain strings ("500ms") and base urls
plain url strings.

# Validation

Each configuration struct has a Validate() method. Problems are reported as
bencherrors.ErrInvalidArgument values collected into a multierror, so a single
pass surfaces every invalid field. Validation runs before any measurement: an
invalid spec file fails the run without touching the services under test.
*/
package configuration
