package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reefctl-io/reefctl/internal/appdef"
	"github.com/reefctl-io/reefctl/internal/nas"
)

// fakeAPI is a scripted in-memory platform. Jobs play back a fixed status
// sequence; the last status repeats once the script runs out.
type fakeAPI struct {
	status  string
	apps    []nas.AppEntry
	configs map[string]map[string]any

	createErr map[string]error
	updateErr map[string]error

	jobScripts map[int64][]nas.JobStatus
	jobCursor  map[int64]int
	nextJobID  int64

	createCalls int
	updateCalls int
	submitted   []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		status:     nas.DockerServiceRunning,
		configs:    make(map[string]map[string]any),
		createErr:  make(map[string]error),
		updateErr:  make(map[string]error),
		jobScripts: make(map[int64][]nas.JobStatus),
		jobCursor:  make(map[int64]int),
	}
}

func (f *fakeAPI) DockerStatus(ctx context.Context) (string, error) {
	return f.status, nil
}

func (f *fakeAPI) QueryApps(ctx context.Context) ([]nas.AppEntry, error) {
	return f.apps, nil
}

func (f *fakeAPI) AppConfig(ctx context.Context, name string) (map[string]any, error) {
	cfg, ok := f.configs[name]
	if !ok {
		return nil, fmt.Errorf("no such app: %s", name)
	}
	return cfg, nil
}

func (f *fakeAPI) CreateApp(ctx context.Context, payload map[string]any) (int64, error) {
	f.createCalls++
	name, _ := payload["app_name"].(string)
	if err := f.createErr[name]; err != nil {
		return 0, err
	}
	f.submitted = append(f.submitted, name)
	return f.newJob(), nil
}

func (f *fakeAPI) UpdateApp(ctx context.Context, name string, payload map[string]any) (int64, error) {
	f.updateCalls++
	if err := f.updateErr[name]; err != nil {
		return 0, err
	}
	f.submitted = append(f.submitted, name)
	return f.newJob(), nil
}

func (f *fakeAPI) JobStatus(ctx context.Context, id int64) (nas.JobStatus, error) {
	script, ok := f.jobScripts[id]
	if !ok || len(script) == 0 {
		return nas.JobStatus{State: "SUCCESS", Percent: 100}, nil
	}
	i := f.jobCursor[id]
	if i >= len(script) {
		i = len(script) - 1
	}
	f.jobCursor[id] = i + 1
	return script[i], nil
}

// newJob allocates a job id. Callers that scripted statuses under the next
// id get them; everything else succeeds immediately.
func (f *fakeAPI) newJob() int64 {
	f.nextJobID++
	return f.nextJobID
}

func (f *fakeAPI) scriptNextJob(statuses ...nas.JobStatus) {
	f.jobScripts[f.nextJobID+1] = statuses
}

func composeDef(name string, config map[string]any) *appdef.Definition {
	return &appdef.Definition{
		Name:       name,
		Source:     appdef.SourceCompose,
		Config:     config,
		OriginPath: name + ".yaml",
	}
}

func createResult(name string) *appdef.DriftResult {
	return &appdef.DriftResult{
		App:    composeDef(name, map[string]any{"services": map[string]any{}}),
		Action: appdef.ActionCreate,
		Reason: ReasonAbsent,
	}
}

func TestOrchestrator_PartialFailure(t *testing.T) {
	api := newFakeAPI()
	api.createErr["beta"] = fmt.Errorf("validation failed: port already in use")

	orch := NewOrchestrator(api, time.Millisecond, nil)
	results := []*appdef.DriftResult{
		createResult("alpha"),
		createResult("beta"),
		createResult("gamma"),
	}

	outcomes, err := orch.Execute(context.Background(), results)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.Equal(t, appdef.JobSuccess, outcomes[0].FinalState)
	assert.Equal(t, appdef.JobFailed, outcomes[1].FinalState)
	assert.Contains(t, outcomes[1].Err, "submission rejected")
	assert.Zero(t, outcomes[1].JobID)

	// The batch continues past the failure.
	assert.Equal(t, appdef.JobSuccess, outcomes[2].FinalState)
	assert.Equal(t, []string{"alpha", "gamma"}, api.submitted)
}

func TestOrchestrator_ProgressEmittedOnChangeOnly(t *testing.T) {
	api := newFakeAPI()
	api.scriptNextJob(
		nas.JobStatus{State: "RUNNING", Percent: 0},
		nas.JobStatus{State: "RUNNING", Percent: 0},
		nas.JobStatus{State: "RUNNING", Percent: 70, Message: "Updating docker resources"},
		nas.JobStatus{State: "RUNNING", Percent: 70, Message: "Updating docker resources"},
		nas.JobStatus{State: "SUCCESS", Percent: 100, Message: "Update completed for 'nginx'"},
	)

	var progress []Event
	orch := NewOrchestrator(api, time.Millisecond, func(e Event) {
		if e.Type == EventProgress {
			progress = append(progress, e)
		}
	})

	outcomes, err := orch.Execute(context.Background(), []*appdef.DriftResult{createResult("nginx")})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, appdef.JobSuccess, outcomes[0].FinalState)

	// Five polls, three distinct updates.
	require.Len(t, progress, 3)
	assert.Equal(t, 0.0, progress[0].Percent)
	assert.Equal(t, 70.0, progress[1].Percent)
	assert.Equal(t, "Updating docker resources", progress[1].Message)
	assert.Equal(t, appdef.JobSuccess, progress[2].State)

	assert.Equal(t, []appdef.ProgressEntry{
		{Percent: 0},
		{Percent: 70, Message: "Updating docker resources"},
		{Percent: 100, Message: "Update completed for 'nginx'"},
	}, outcomes[0].Progress)
}

func TestOrchestrator_JobFailureRecorded(t *testing.T) {
	api := newFakeAPI()
	api.scriptNextJob(
		nas.JobStatus{State: "RUNNING", Percent: 10},
		nas.JobStatus{State: "FAILED", Percent: 10, Error: "image pull failed"},
	)

	orch := NewOrchestrator(api, time.Millisecond, nil)
	outcomes, err := orch.Execute(context.Background(), []*appdef.DriftResult{createResult("broken")})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, appdef.JobFailed, outcomes[0].FinalState)
	assert.Equal(t, "image pull failed", outcomes[0].Err)
	assert.True(t, outcomes[0].Failed())
}

func TestOrchestrator_LogsExcerptEmittedOncePerChange(t *testing.T) {
	api := newFakeAPI()
	api.scriptNextJob(
		nas.JobStatus{State: "RUNNING", Percent: 10, LogsExcerpt: "pulling image"},
		nas.JobStatus{State: "RUNNING", Percent: 20, LogsExcerpt: "pulling image"},
		nas.JobStatus{State: "SUCCESS", Percent: 100, LogsExcerpt: "done"},
	)

	var logs []string
	orch := NewOrchestrator(api, time.Millisecond, func(e Event) {
		if e.Type == EventLogs {
			logs = append(logs, e.Logs)
		}
	})

	_, err := orch.Execute(context.Background(), []*appdef.DriftResult{createResult("app")})
	require.NoError(t, err)
	assert.Equal(t, []string{"pulling image", "done"}, logs)
}
