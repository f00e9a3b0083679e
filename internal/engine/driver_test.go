package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reefctl-io/reefctl/internal/appdef"
	"github.com/reefctl-io/reefctl/internal/nas"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDriver_DryRunSubmitsNothing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "nginx.yaml", "services:\n  nginx:\n    image: nginx:1.25\n")
	writeFile(t, dir, "redis.yaml", "services:\n  redis:\n    image: redis:7\n")

	api := newFakeAPI()
	// nginx deployed but drifted, redis absent: one UPDATE and one CREATE.
	api.apps = []nas.AppEntry{{ID: "nginx", Name: "nginx", State: "RUNNING"}}
	api.configs["nginx"] = map[string]any{
		"services": map[string]any{"nginx": map[string]any{"image": "nginx:1.24"}},
	}

	var classified []Event
	driver := &Driver{
		API:        api,
		ComposeDir: dir,
		DryRun:     true,
		Callback: func(e Event) {
			if e.Type == EventClassified {
				classified = append(classified, e)
			}
		},
	}

	summary, err := driver.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, api.createCalls)
	assert.Zero(t, api.updateCalls)
	assert.True(t, summary.DryRun)
	assert.Equal(t, 1, summary.Planned.Create)
	assert.Equal(t, 1, summary.Planned.Update)
	require.Len(t, classified, 2)
	assert.Equal(t, appdef.ActionUpdate, classified[0].Action)
	assert.Equal(t, "nginx", classified[0].App)
	assert.Equal(t, appdef.ActionCreate, classified[1].Action)
	assert.Equal(t, "redis", classified[1].App)
}

func TestDriver_NothingToDo(t *testing.T) {
	api := newFakeAPI()
	driver := &Driver{
		API:        api,
		ComposeDir: filepath.Join(t.TempDir(), "missing"),
		CatalogDir: t.TempDir(),
	}

	summary, err := driver.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.NothingToDo)
	assert.True(t, summary.OK())
	assert.Zero(t, api.createCalls)
	assert.Zero(t, api.updateCalls)
}

func TestDriver_UpdateScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "nginx.yaml", "services:\n  nginx:\n    image: nginx:1.25\n")

	api := newFakeAPI()
	api.apps = []nas.AppEntry{{ID: "nginx", Name: "nginx", State: "RUNNING"}}
	api.configs["nginx"] = map[string]any{
		"services": map[string]any{"nginx": map[string]any{"image": "nginx:1.24"}},
	}
	api.scriptNextJob(
		nas.JobStatus{State: "RUNNING", Percent: 0},
		nas.JobStatus{State: "RUNNING", Percent: 70, Message: "Updating docker resources"},
		nas.JobStatus{State: "SUCCESS", Percent: 100, Message: "Update completed for 'nginx'"},
	)

	var events []Event
	driver := &Driver{
		API:          api,
		ComposeDir:   dir,
		PollInterval: time.Millisecond,
		Callback:     func(e Event) { events = append(events, e) },
	}

	summary, err := driver.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 0, summary.Created)
	assert.Equal(t, 0, summary.Failed)
	assert.True(t, summary.OK())
	assert.Equal(t, 1, api.updateCalls)

	var classified, progress []Event
	for _, e := range events {
		switch e.Type {
		case EventClassified:
			classified = append(classified, e)
		case EventProgress:
			progress = append(progress, e)
		}
	}
	require.Len(t, classified, 1)
	assert.Equal(t, appdef.ActionUpdate, classified[0].Action)
	assert.Contains(t, classified[0].Reason, "services.nginx.image")
	require.Len(t, progress, 3)
	assert.Equal(t, 70.0, progress[1].Percent)
	assert.Equal(t, "Updating docker resources", progress[1].Message)
}

func TestDriver_PartialFailureSummary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "alpha.yaml", "services:\n  alpha:\n    image: alpha:1\n")
	writeFile(t, dir, "beta.yaml", "services:\n  beta:\n    image: beta:1\n")
	writeFile(t, dir, "gamma.yaml", "services:\n  gamma:\n    image: gamma:1\n")

	api := newFakeAPI()
	api.createErr["beta"] = assert.AnError

	driver := &Driver{
		API:          api,
		ComposeDir:   dir,
		PollInterval: time.Millisecond,
	}

	summary, err := driver.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 1, summary.Failed)
	assert.False(t, summary.OK())
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "beta", summary.Failures[0].App)
	assert.Contains(t, summary.Failures[0].Reason, "submission rejected")
}

func TestDriver_PreflightBlocksRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "nginx.yaml", "services: {}\n")

	api := newFakeAPI()
	api.status = "UNCONFIGURED"

	driver := &Driver{API: api, ComposeDir: dir}
	_, err := driver.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNCONFIGURED")
	assert.Zero(t, api.createCalls)
}

func TestDriver_LoadErrorsDoNotAbort(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.yaml", "services:\n  good:\n    image: good:1\n")
	writeFile(t, dir, "broken.yaml", "services: [unclosed\n")

	api := newFakeAPI()
	driver := &Driver{API: api, ComposeDir: dir, PollInterval: time.Millisecond}

	summary, err := driver.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)
	require.Len(t, summary.LoadErrors, 1)
	assert.Contains(t, summary.LoadErrors[0], "broken.yaml")
}
