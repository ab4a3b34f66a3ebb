package configuration

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/bencherrors"
)

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodHead:   true,
}

// Validate checks the whole spec and reports every problem found.
func (spec *BenchmarkSpec) Validate() error {
	var result *multierror.Error

	if len(spec.Services) == 0 {
		result = multierror.Append(result, invalidArgument("services", spec.Services, "no services provided"))
	}
	known := make(map[string]bool, len(spec.Services))
	for i, service := range spec.Services {
		if err := service.Validate(); err != nil {
			result = multierror.Append(result, err)
		}
		if known[service.Name] {
			result = multierror.Append(result, invalidArgument(
				fmt.Sprintf("services[%d].name", i), service.Name, "duplicate service name",
			))
		}
		known[service.Name] = true
	}

	if spec.Timeout < 0 {
		result = multierror.Append(result, invalidArgument("timeout", spec.Timeout, "must be non-negative"))
	}
	if len(spec.LoadTests) == 0 && spec.Workflow == nil {
		result = multierror.Append(result, invalidArgument(
			"loadTests", spec.LoadTests, "spec defines neither load tests nor a workflow",
		))
	}

	for _, lt := range spec.LoadTests {
		if err := lt.Validate(known); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if spec.Workflow != nil {
		if err := spec.Workflow.Validate(known); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := spec.Readiness.Validate(); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

func (s ServiceConfig) Validate() error {
	var result *multierror.Error

	if s.Name == "" {
		result = multierror.Append(result, invalidArgument("service.name", s.Name, "not provided"))
	}
	if s.BaseURL.Scheme != "http" && s.BaseURL.Scheme != "https" {
		result = multierror.Append(result, invalidArgument(
			"service.baseUrl", s.BaseURL.String(), "must be an absolute http or https url",
		))
	}
	if s.BaseURL.Host == "" {
		result = multierror.Append(result, invalidArgument(
			"service.baseUrl", s.BaseURL.String(), "missing host",
		))
	}
	if !strings.HasPrefix(s.StatusPath, "/") {
		result = multierror.Append(result, invalidArgument(
			"service.statusPath", s.StatusPath, "must start with /",
		))
	}

	return result.ErrorOrNil()
}

func (lt LoadTestSpec) Validate(knownServices map[string]bool) error {
	var result *multierror.Error

	if !knownServices[lt.Service] {
		result = multierror.Append(result, invalidArgument("loadTest.service", lt.Service, "unknown service"))
	}
	if !strings.HasPrefix(lt.Path, "/") {
		result = multierror.Append(result, invalidArgument("loadTest.path", lt.Path, "must start with /"))
	}
	if !allowedMethods[lt.Method] {
		result = multierror.Append(result, invalidArgument("loadTest.method", lt.Method, "unsupported method"))
	}
	if lt.RequestCount < 1 {
		result = multierror.Append(result, invalidArgument("loadTest.requestCount", lt.RequestCount, "must be at least 1"))
	}
	if lt.Concurrency < 1 {
		result = multierror.Append(result, invalidArgument("loadTest.concurrency", lt.Concurrency, "must be at least 1"))
	}
	if lt.InterRequestDelay < 0 {
		result = multierror.Append(result, invalidArgument("loadTest.interRequestDelay", lt.InterRequestDelay, "must be non-negative"))
	}
	if lt.PerRequestTimeout <= 0 {
		result = multierror.Append(result, invalidArgument("loadTest.perRequestTimeout", lt.PerRequestTimeout, "must be positive"))
	}

	return result.ErrorOrNil()
}

func (w *WorkflowSpec) Validate(knownServices map[string]bool) error {
	var result *multierror.Error

	if len(w.WorkItems) == 0 {
		result = multierror.Append(result, invalidArgument("workflow.workItems", w.WorkItems, "no work items provided"))
	}
	for i, item := range w.WorkItems {
		if item == "" {
			result = multierror.Append(result, invalidArgument(
				fmt.Sprintf("workflow.workItems[%d]", i), item, "empty work item",
			))
		}
	}
	if w.Concurrency < 1 {
		result = multierror.Append(result, invalidArgument("workflow.concurrency", w.Concurrency, "must be at least 1"))
	}
	if w.PerRequestTimeout <= 0 {
		result = multierror.Append(result, invalidArgument("workflow.perRequestTimeout", w.PerRequestTimeout, "must be positive"))
	}
	for field, service := range map[string]string{
		"workflow.ingestService": w.IngestService,
		"workflow.indexService":  w.IndexService,
		"workflow.searchService": w.SearchService,
	} {
		if !knownServices[service] {
			result = multierror.Append(result, invalidArgument(field, service, "unknown service"))
		}
	}
	for field, path := range map[string]string{
		"workflow.ingestPath": w.IngestPath,
		"workflow.indexPath":  w.IndexPath,
		"workflow.searchPath": w.SearchPath,
	} {
		if !strings.HasPrefix(path, "/") {
			result = multierror.Append(result, invalidArgument(field, path, "must start with /"))
		}
	}
	if err := w.IngestSettle.Validate("workflow.ingestSettle"); err != nil {
		result = multierror.Append(result, err)
	}
	if err := w.IndexSettle.Validate("workflow.indexSettle"); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

func (settle *SettleConfig) Validate(field string) error {
	var result *multierror.Error

	if settle.FallbackDelay < 0 {
		result = multierror.Append(result, invalidArgument(field+".fallbackDelay", settle.FallbackDelay, "must be non-negative"))
	}
	if settle.ReadinessPath != "" {
		if !strings.HasPrefix(settle.ReadinessPath, "/") {
			result = multierror.Append(result, invalidArgument(field+".readinessPath", settle.ReadinessPath, "must start with /"))
		}
		if settle.PollInterval <= 0 {
			result = multierror.Append(result, invalidArgument(field+".pollInterval", settle.PollInterval, "must be positive"))
		}
		if settle.PollAttempts < 1 {
			result = multierror.Append(result, invalidArgument(field+".pollAttempts", settle.PollAttempts, "must be at least 1"))
		}
	}

	return result.ErrorOrNil()
}

func (r ReadinessConfig) Validate() error {
	var result *multierror.Error

	if r.Attempts < 1 {
		result = multierror.Append(result, invalidArgument("readiness.attempts", r.Attempts, "must be at least 1"))
	}
	if r.Interval < 0 {
		result = multierror.Append(result, invalidArgument("readiness.interval", r.Interval, "must be non-negative"))
	}
	if r.CacheTTL < 0 {
		result = multierror.Append(result, invalidArgument("readiness.cacheTTL", r.CacheTTL, "must be non-negative"))
	}
	if r.ProbeTimeout <= 0 {
		result = multierror.Append(result, invalidArgument("readiness.probeTimeout", r.ProbeTimeout, "must be positive"))
	}

	return result.ErrorOrNil()
}

func invalidArgument(name string, value interface{}, message string) error {
	return errors.WithStack(&bencherrors.ErrInvalidArgument{
		Name:    name,
		Value:   value,
		Message: message,
	})
}
