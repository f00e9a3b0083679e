package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/reefctl-io/reefctl/internal/appdef"
	"github.com/reefctl-io/reefctl/internal/loader"
	"github.com/reefctl-io/reefctl/internal/logging"
	"github.com/reefctl-io/reefctl/internal/nas"
)

// Driver sequences a full reconciliation run: preflight, load, fetch,
// classify, then either report the plan (dry run) or execute it.
type Driver struct {
	API          nas.API
	ComposeDir   string
	CatalogDir   string
	DryRun       bool
	PollInterval time.Duration
	Callback     Callback
}

// Failure names one application that did not reconcile, with its cause.
type Failure struct {
	App    string
	Reason string
}

// Summary is the aggregated result of a run. Per-application failures are
// reported here rather than raised: an error return means the run itself
// could not proceed (preflight, fetch), not that some applications failed.
type Summary struct {
	NothingToDo bool
	DryRun      bool

	Planned PlanSummary

	Created int
	Updated int
	Skipped int
	Failed  int

	Failures   []Failure
	LoadErrors []string
	Conflicts  []string
}

// OK reports whether every processed application ended SKIP or SUCCESS.
func (s *Summary) OK() bool {
	return s.Failed == 0
}

// Run executes the full reconciliation.
func (d *Driver) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{DryRun: d.DryRun}

	// A platform whose app service is down cannot answer the inventory
	// query truthfully, so this aborts before any diffing.
	if err := d.preflight(ctx); err != nil {
		return nil, err
	}

	report, err := loader.Load(d.ComposeDir, d.CatalogDir)
	if err != nil {
		return nil, err
	}
	for _, fe := range report.Errors {
		summary.LoadErrors = append(summary.LoadErrors, fe.Error())
	}
	for _, c := range report.Conflicts {
		logging.Warn("duplicate application name, last-loaded source wins",
			"app", c.Name, "kept", c.Kept, "dropped", c.Dropped)
		summary.Conflicts = append(summary.Conflicts,
			fmt.Sprintf("%s: using %s, ignoring %s", c.Name, c.Kept, c.Dropped))
	}

	if len(report.Definitions) == 0 {
		summary.NothingToDo = true
		return summary, nil
	}

	remote, err := nas.FetchDeployed(ctx, d.API)
	if err != nil {
		return nil, err
	}

	plan := Classify(report.Definitions, remote)
	summary.Planned = plan.Summary
	for _, res := range plan.Results {
		d.emit(Event{
			Type:   EventClassified,
			App:    res.App.Name,
			Action: res.Action,
			Reason: res.Reason,
		})
	}

	if d.DryRun {
		summary.Skipped = plan.Summary.Skip
		return summary, nil
	}

	orch := NewOrchestrator(d.API, d.PollInterval, d.Callback)
	outcomes, err := orch.Execute(ctx, plan.Actionable())
	d.tally(summary, plan, outcomes)
	if err != nil {
		return summary, err
	}
	return summary, nil
}

func (d *Driver) preflight(ctx context.Context) error {
	status, err := d.API.DockerStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to check app service status: %w", err)
	}
	switch status {
	case nas.DockerServiceRunning:
		return nil
	case "UNCONFIGURED":
		return fmt.Errorf("app service is UNCONFIGURED; configure it on the platform and try again")
	default:
		return fmt.Errorf("app service is not healthy (status=%s)", status)
	}
}

func (d *Driver) tally(summary *Summary, plan *Plan, outcomes []*appdef.JobOutcome) {
	summary.Skipped = plan.Summary.Skip
	for _, out := range outcomes {
		if out.Failed() {
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{App: out.AppName, Reason: out.Err})
			continue
		}
		switch out.Action {
		case appdef.ActionCreate:
			summary.Created++
		case appdef.ActionUpdate:
			summary.Updated++
		}
	}
}

func (d *Driver) emit(event Event) {
	if d.Callback != nil {
		d.Callback(event)
	}
}
