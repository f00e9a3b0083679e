package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/reefctl-io/reefctl/internal/appdef"
)

// watch polls a submitted job to its terminal state, appending each distinct
// progress update to the outcome and emitting it immediately. The delay
// between polls is fixed; an update is emitted only when state, percent or
// message changed since the prior poll, so a long-running job does not spam
// the operator.
func (o *Orchestrator) watch(ctx context.Context, outcome *appdef.JobOutcome) error {
	var (
		lastState   appdef.JobState
		lastPercent = -1.0
		lastMessage string
		lastLogs    string
	)

	for {
		status, err := o.api.JobStatus(ctx, outcome.JobID)
		if err != nil {
			return fmt.Errorf("failed to poll job %d: %w", outcome.JobID, err)
		}

		state := appdef.JobState(status.State)
		if state != lastState || status.Percent != lastPercent || status.Message != lastMessage {
			outcome.Progress = append(outcome.Progress, appdef.ProgressEntry{
				Percent: status.Percent,
				Message: status.Message,
			})
			o.emit(Event{
				Type:    EventProgress,
				App:     outcome.AppName,
				JobID:   outcome.JobID,
				State:   state,
				Percent: status.Percent,
				Message: status.Message,
			})
			lastState, lastPercent, lastMessage = state, status.Percent, status.Message
		}

		if status.LogsExcerpt != "" && status.LogsExcerpt != lastLogs {
			o.emit(Event{
				Type:  EventLogs,
				App:   outcome.AppName,
				JobID: outcome.JobID,
				Logs:  status.LogsExcerpt,
			})
			lastLogs = status.LogsExcerpt
		}

		if state.Terminal() {
			outcome.FinalState = state
			if state != appdef.JobSuccess {
				outcome.Err = status.Error
				if outcome.Err == "" {
					outcome.Err = fmt.Sprintf("job ended %s", state)
				}
			}
			return nil
		}

		select {
		case <-ctx.Done():
			// The job keeps running remotely; abandoning the poll is the
			// only cancellation path and leaves it in an indeterminate state.
			return fmt.Errorf("polling cancelled, job %d still running remotely: %w", outcome.JobID, ctx.Err())
		case <-time.After(o.pollInterval):
		}
	}
}
