package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/reefctl-io/reefctl/internal/appdef"
	"github.com/reefctl-io/reefctl/internal/logging"
	"github.com/reefctl-io/reefctl/internal/nas"
)

// DefaultPollInterval is the fixed delay between job status polls.
const DefaultPollInterval = 1 * time.Second

// Orchestrator submits create/update jobs and watches each to its terminal
// state. Applications are processed strictly one at a time in plan order;
// a failed application is recorded and the batch continues.
type Orchestrator struct {
	api          nas.API
	pollInterval time.Duration
	callback     Callback
}

// NewOrchestrator wires an orchestrator to the platform API. callback may
// be nil; interval <= 0 selects DefaultPollInterval.
func NewOrchestrator(api nas.API, interval time.Duration, callback Callback) *Orchestrator {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Orchestrator{api: api, pollInterval: interval, callback: callback}
}

func (o *Orchestrator) emit(event Event) {
	if o.callback != nil {
		o.callback(event)
	}
}

// Execute runs every actionable result sequentially and returns one outcome
// per result, in order. The only error return is context cancellation;
// per-application failures live in the outcomes.
func (o *Orchestrator) Execute(ctx context.Context, results []*appdef.DriftResult) ([]*appdef.JobOutcome, error) {
	outcomes := make([]*appdef.JobOutcome, 0, len(results))
	for _, res := range results {
		if err := ctx.Err(); err != nil {
			return outcomes, fmt.Errorf("run cancelled: %w", err)
		}
		outcomes = append(outcomes, o.executeOne(ctx, res))
	}
	return outcomes, nil
}

func (o *Orchestrator) executeOne(ctx context.Context, res *appdef.DriftResult) *appdef.JobOutcome {
	outcome := &appdef.JobOutcome{
		AppName: res.App.Name,
		Action:  res.Action,
	}

	jobID, err := o.submit(ctx, res)
	if err != nil {
		// The platform rejected the request outright; there is no job to
		// watch and nothing to roll back.
		logging.Error("submission rejected", "app", res.App.Name, "action", res.Action, "error", err)
		outcome.FinalState = appdef.JobFailed
		outcome.Err = fmt.Sprintf("submission rejected: %v", err)
		o.emit(Event{Type: EventOutcome, App: outcome.AppName, Action: res.Action, State: outcome.FinalState, Err: err})
		return outcome
	}
	outcome.JobID = jobID
	logging.Info("job submitted", "app", res.App.Name, "action", res.Action, "job_id", jobID)

	if err := o.watch(ctx, outcome); err != nil {
		outcome.FinalState = appdef.JobFailed
		outcome.Err = err.Error()
	}
	o.emit(Event{Type: EventOutcome, App: outcome.AppName, Action: res.Action, JobID: jobID, State: outcome.FinalState, Message: outcome.Err})
	return outcome
}

func (o *Orchestrator) submit(ctx context.Context, res *appdef.DriftResult) (int64, error) {
	switch res.Action {
	case appdef.ActionCreate:
		return o.api.CreateApp(ctx, res.App.CreatePayload())
	case appdef.ActionUpdate:
		return o.api.UpdateApp(ctx, res.App.Name, res.App.UpdatePayload())
	default:
		return 0, fmt.Errorf("action %s is not executable", res.Action)
	}
}
