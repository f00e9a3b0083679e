package engine

import (
	"strings"

	"github.com/reefctl-io/reefctl/internal/appdef"
	"github.com/reefctl-io/reefctl/internal/logging"
)

// Plan is the classification of every loaded definition against the
// deployed inventory, in discovery order.
type Plan struct {
	Results []*appdef.DriftResult
	Summary PlanSummary
}

// PlanSummary counts planned actions.
type PlanSummary struct {
	Create int
	Update int
	Skip   int
}

// ReasonAbsent is the reason attached to every CREATE classification.
const ReasonAbsent = "absent remotely"

// Classify compares each definition against the deployed inventory and
// decides CREATE, UPDATE or SKIP. Pure function of its inputs: repeated
// classification of unchanged state yields an identical plan.
func Classify(defs []*appdef.Definition, remote map[string]*appdef.RemoteApp) *Plan {
	plan := &Plan{Results: make([]*appdef.DriftResult, 0, len(defs))}

	for _, def := range defs {
		res := &appdef.DriftResult{App: def}
		app, deployed := remote[def.Name]
		switch {
		case !deployed:
			res.Action = appdef.ActionCreate
			res.Reason = ReasonAbsent
			plan.Summary.Create++
		default:
			res.Remote = app
			// Only fields the definition specifies count; the platform owns
			// whatever else it defaulted into the snapshot.
			if drifted := appdef.DiffPaths(def.DesiredConfig(), app.Config); len(drifted) > 0 {
				res.Action = appdef.ActionUpdate
				res.Reason = "config drift in " + strings.Join(drifted, ", ")
				plan.Summary.Update++
			} else {
				res.Action = appdef.ActionSkip
				res.Reason = "config is up to date"
				plan.Summary.Skip++
			}
		}
		logging.Debug("classified app", "app", def.Name, "action", res.Action, "reason", res.Reason)
		plan.Results = append(plan.Results, res)
	}
	return plan
}

// Actionable returns the results requiring a job, in plan order.
func (p *Plan) Actionable() []*appdef.DriftResult {
	var out []*appdef.DriftResult
	for _, res := range p.Results {
		if res.Action != appdef.ActionSkip {
			out = append(out, res)
		}
	}
	return out
}
