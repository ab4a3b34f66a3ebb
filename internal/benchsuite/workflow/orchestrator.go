// Package workflow runs work items through the ingest, index, search pipeline
// and times each stage.
package workflow

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"

	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/configuration"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/probe"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/report"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/benchcontext"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/bencherrors"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/util"
)

// Orchestrator runs the pipeline workflow. Each work item moves through
// ingest, index, and search in order; a failed stage ends the run, and stages
// after it are not attempted. Between stages the orchestrator waits for the
// upstream service to settle, either by polling a readiness endpoint or by
// sleeping a fixed fallback delay.
type Orchestrator struct {
	Spec   configuration.WorkflowSpec
	Ingest configuration.ServiceConfig
	Index  configuration.ServiceConfig
	Search configuration.ServiceConfig
	Prober probe.Prober
	Clock  util.Clock
}

// NewOrchestratorFromSpec resolves the pipeline roles of spec.Workflow against
// the spec's services.
func NewOrchestratorFromSpec(spec *configuration.BenchmarkSpec, prober probe.Prober) (*Orchestrator, error) {
	w := spec.Workflow
	srv := &Orchestrator{
		Spec:   *w,
		Prober: prober,
		Clock:  &util.DefaultClock{},
	}
	for _, role := range []struct {
		name    string
		service string
		out     *configuration.ServiceConfig
	}{
		{"ingestService", w.IngestService, &srv.Ingest},
		{"indexService", w.IndexService, &srv.Index},
		{"searchService", w.SearchService, &srv.Search},
	} {
		service, ok := spec.Service(role.service)
		if !ok {
			return nil, errors.WithStack(&bencherrors.ErrInvalidArgument{
				Name:    role.name,
				Value:   role.service,
				Message: "no such service",
			})
		}
		*role.out = service
	}
	return srv, nil
}

// RunAll runs every work item, concurrently bounded by Spec.Concurrency.
// Results are ordered by work item regardless of completion order.
func (srv *Orchestrator) RunAll(ctx *benchcontext.Context) []*report.WorkflowRun {
	runs := make([]*report.WorkflowRun, len(srv.Spec.WorkItems))
	g, ctx := benchcontext.ErrGroup(ctx)
	if srv.Spec.Concurrency > 0 {
		g.SetLimit(srv.Spec.Concurrency)
	}
	for i, workItem := range srv.Spec.WorkItems {
		i, workItem := i, workItem
		g.Go(func() error {
			runs[i] = srv.Run(ctx, workItem)
			return nil
		})
	}
	_ = g.Wait()
	return runs
}

// Run moves one work item through the pipeline and returns its timed run.
// Failures are data, not errors: the run is always produced.
func (srv *Orchestrator) Run(ctx *benchcontext.Context, workItem string) *report.WorkflowRun {
	ctx = benchcontext.WithLogField(ctx, "workItem", workItem)
	var stages []report.WorkflowStage

	outcome := srv.Prober.Probe(ctx, probe.Target{
		URL:     srv.Ingest.Resolve(expandTemplate(srv.Spec.IngestPath, workItem, "")),
		Method:  http.MethodPost,
		Timeout: srv.Spec.PerRequestTimeout,
	})
	stages = append(stages, stageFromOutcome(report.StageIngest, outcome))
	if !outcome.Succeeded {
		ctx.Log.Warnf("ingest failed: %s", outcome.FailureReason)
		return report.BuildWorkflowRun(workItem, stages)
	}

	if stage, ok := srv.gate(ctx, srv.Spec.IngestSettle, srv.Ingest, workItem, report.StageIndex); !ok {
		stages = append(stages, stage)
		return report.BuildWorkflowRun(workItem, stages)
	}

	indexTarget := probe.Target{
		URL:     srv.Index.Resolve(expandTemplate(srv.Spec.IndexPath, workItem, "")),
		Method:  http.MethodPost,
		Timeout: srv.Spec.PerRequestTimeout,
	}
	if srv.Spec.VerifyIndexBody {
		indexTarget.VerifyBody = bodyStatusIs(configuration.IndexUpdatedBody)
	}
	outcome = srv.Prober.Probe(ctx, indexTarget)
	stages = append(stages, stageFromOutcome(report.StageIndex, outcome))
	if !outcome.Succeeded {
		ctx.Log.Warnf("index update failed: %s", outcome.FailureReason)
		return report.BuildWorkflowRun(workItem, stages)
	}

	if stage, ok := srv.gate(ctx, srv.Spec.IndexSettle, srv.Index, workItem, report.StageSearch); !ok {
		stages = append(stages, stage)
		return report.BuildWorkflowRun(workItem, stages)
	}

	outcome = srv.Prober.Probe(ctx, probe.Target{
		URL:     srv.Search.Resolve(expandTemplate(srv.Spec.SearchPath, workItem, srv.Spec.Query(workItem))),
		Method:  http.MethodGet,
		Timeout: srv.Spec.PerRequestTimeout,
	})
	stages = append(stages, stageFromOutcome(report.StageSearch, outcome))
	if !outcome.Succeeded {
		ctx.Log.Warnf("search failed: %s", outcome.FailureReason)
	}
	return report.BuildWorkflowRun(workItem, stages)
}

// gate waits for the upstream service to settle before the next stage. On
// gate failure the returned stage records next as attempted and failed,
// spanning the gate duration, and ok is false.
func (srv *Orchestrator) gate(ctx *benchcontext.Context, settle *configuration.SettleConfig, upstream configuration.ServiceConfig, workItem string, next report.StageName) (report.WorkflowStage, bool) {
	if settle == nil {
		return report.WorkflowStage{}, true
	}

	started := srv.Clock.Now()
	var err error
	if settle.ReadinessPath != "" {
		err = srv.pollSettled(ctx, settle, upstream, workItem)
	} else {
		err = srv.sleepSettle(ctx, settle.FallbackDelay)
	}
	if err != nil {
		ctx.Log.Warnf("%s not attempted, %s did not settle: %s", next, upstream.Name, err)
		return report.WorkflowStage{
			Name:      next,
			StartedAt: started,
			Elapsed:   srv.Clock.Now().Sub(started),
		}, false
	}
	return report.WorkflowStage{}, true
}

func (srv *Orchestrator) pollSettled(ctx *benchcontext.Context, settle *configuration.SettleConfig, upstream configuration.ServiceConfig, workItem string) error {
	target := probe.Target{
		URL:     upstream.Resolve(expandTemplate(settle.ReadinessPath, workItem, "")),
		Method:  http.MethodGet,
		Timeout: srv.Spec.PerRequestTimeout,
	}
	if settle.ReadyWhenStatus != "" {
		target.VerifyBody = bodyStatusIs(settle.ReadyWhenStatus)
	}
	return retry.Do(
		func() error {
			outcome := srv.Prober.Probe(ctx, target)
			if !outcome.Succeeded {
				return errors.Errorf("work item %s not settled on %s: %s", workItem, upstream.Name, outcome.FailureReason)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(settle.PollAttempts)),
		retry.Delay(settle.PollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
}

func (srv *Orchestrator) sleepSettle(ctx *benchcontext.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func stageFromOutcome(name report.StageName, outcome probe.Outcome) report.WorkflowStage {
	return report.WorkflowStage{
		Name:      name,
		StartedAt: outcome.StartedAt,
		Elapsed:   outcome.Elapsed,
		Succeeded: outcome.Succeeded,
	}
}

// bodyStatusIs verifies that a response body is a JSON document whose status
// field equals want.
func bodyStatusIs(want string) func(body []byte) error {
	return func(body []byte) error {
		var payload struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return errors.WithStack(err)
		}
		if payload.Status != want {
			return errors.Errorf("status is %q, want %q", payload.Status, want)
		}
		return nil
	}
}

// expandTemplate fills {id} and {query} endpoint template placeholders.
func expandTemplate(template, workItem, query string) string {
	rv := strings.ReplaceAll(template, "{id}", url.PathEscape(workItem))
	return strings.ReplaceAll(rv, "{query}", url.QueryEscape(query))
}
