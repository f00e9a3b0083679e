package cli

import (
	"fmt"

	"github.com/reefctl-io/reefctl/internal/appdef"
	"github.com/reefctl-io/reefctl/internal/engine"
)

// renderEvent returns the callback that turns engine events into console
// lines. Dry-run classifications read as a plan; execute classifications
// read as actions in progress, matching what the orchestrator then does.
func renderEvent(dryRun bool) engine.Callback {
	return func(e engine.Event) {
		switch e.Type {
		case engine.EventClassified:
			renderClassification(e, dryRun)
		case engine.EventProgress:
			if e.Message != "" {
				fmt.Printf("[job %d] %s %.0f%% - %s\n", e.JobID, e.State, e.Percent, e.Message)
			} else {
				fmt.Printf("[job %d] %s %.0f%%\n", e.JobID, e.State, e.Percent)
			}
		case engine.EventLogs:
			fmt.Printf("[job %d logs]\n%s\n", e.JobID, e.Logs)
		case engine.EventOutcome:
			renderOutcome(e)
		}
	}
}

func renderClassification(e engine.Event, dryRun bool) {
	if dryRun {
		switch e.Action {
		case appdef.ActionCreate:
			fmt.Printf("[CREATE] %s -- would deploy (%s)\n", e.App, e.Reason)
		case appdef.ActionUpdate:
			fmt.Printf("[UPDATE] %s -- would update (%s)\n", e.App, e.Reason)
		default:
			fmt.Printf("[SKIP] %s -- up to date\n", e.App)
		}
		return
	}
	switch e.Action {
	case appdef.ActionCreate:
		fmt.Printf("[CREATE] %s -- App is defined, but not deployed. Deploying...\n", e.App)
	case appdef.ActionUpdate:
		fmt.Printf("[UPDATE] %s -- Config has drifted. Updating....\n", e.App)
	default:
		fmt.Printf("[SKIP] %s -- App exists, and the config is up to date.\n", e.App)
	}
}

func renderOutcome(e engine.Event) {
	if e.JobID == 0 {
		fmt.Printf("[FAILED] %s -- %v\n", e.App, e.Err)
		return
	}
	if e.State == appdef.JobSuccess {
		fmt.Printf("[job %d] Finished.\n", e.JobID)
		return
	}
	fmt.Printf("[job %d] %s. error = %q\n", e.JobID, e.State, e.Message)
}

func renderSummary(s *engine.Summary) {
	for _, msg := range s.LoadErrors {
		fmt.Printf("[LOAD ERROR] %s\n", msg)
	}
	for _, msg := range s.Conflicts {
		fmt.Printf("[CONFLICT] %s\n", msg)
	}

	if s.NothingToDo {
		fmt.Println("Nothing to do. No application definitions were found.")
		return
	}

	if s.DryRun {
		fmt.Println("\nDry run complete. No changes were made.")
		fmt.Println("\nPlan summary:")
		fmt.Printf("  Create: %d\n", s.Planned.Create)
		fmt.Printf("  Update: %d\n", s.Planned.Update)
		fmt.Printf("  Skip:   %d\n", s.Planned.Skip)
		return
	}

	fmt.Println("\nSummary:")
	fmt.Printf("  Created: %d\n", s.Created)
	fmt.Printf("  Updated: %d\n", s.Updated)
	fmt.Printf("  Skipped: %d\n", s.Skipped)
	fmt.Printf("  Failed:  %d\n", s.Failed)

	if len(s.Failures) > 0 {
		fmt.Println("\nFailed applications:")
		for _, f := range s.Failures {
			fmt.Printf("  %s: %s\n", f.App, f.Reason)
		}
	}
}
