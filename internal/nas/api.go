package nas

import (
	"context"
	"encoding/json"
	"fmt"
)

// API is the typed platform surface the engine consumes. *Client implements
// it; engine tests substitute a fake.
type API interface {
	// DockerStatus reports the state of the platform's application service.
	DockerStatus(ctx context.Context) (string, error)
	// QueryApps lists the deployed applications.
	QueryApps(ctx context.Context) ([]AppEntry, error)
	// AppConfig returns the current configuration snapshot of one app.
	AppConfig(ctx context.Context, name string) (map[string]any, error)
	// CreateApp submits a deployment request and returns the job id.
	CreateApp(ctx context.Context, payload map[string]any) (int64, error)
	// UpdateApp submits an update request and returns the job id.
	UpdateApp(ctx context.Context, name string, payload map[string]any) (int64, error)
	// JobStatus returns the current status of a job.
	JobStatus(ctx context.Context, id int64) (JobStatus, error)
}

// AppEntry is one deployed application as listed by the platform.
type AppEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// JobStatus is one observation of a platform job.
type JobStatus struct {
	State       string
	Percent     float64
	Message     string
	LogsExcerpt string
	Error       string
}

// DockerServiceRunning is the app-service state required before any
// deployment can be attempted.
const DockerServiceRunning = "RUNNING"

func (c *Client) DockerStatus(ctx context.Context) (string, error) {
	var res struct {
		Status string `json:"status"`
	}
	if err := c.Call(ctx, "docker.status", nil, &res); err != nil {
		return "", err
	}
	return res.Status, nil
}

func (c *Client) QueryApps(ctx context.Context) ([]AppEntry, error) {
	var apps []AppEntry
	if err := c.Call(ctx, "app.query", []any{[]any{}, map[string]any{}}, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

func (c *Client) AppConfig(ctx context.Context, name string) (map[string]any, error) {
	var cfg map[string]any
	if err := c.Call(ctx, "app.config", []any{name}, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Client) CreateApp(ctx context.Context, payload map[string]any) (int64, error) {
	var jobID int64
	if err := c.Call(ctx, "app.create", []any{payload}, &jobID); err != nil {
		return 0, err
	}
	return jobID, nil
}

func (c *Client) UpdateApp(ctx context.Context, name string, payload map[string]any) (int64, error) {
	var jobID int64
	if err := c.Call(ctx, "app.update", []any{name, payload}, &jobID); err != nil {
		return 0, err
	}
	return jobID, nil
}

func (c *Client) JobStatus(ctx context.Context, id int64) (JobStatus, error) {
	params := []any{
		[]any{[]any{"id", "=", id}},
		map[string]any{"get": true, "extra": map[string]any{"raw_result": false}},
	}
	var job struct {
		State    string `json:"state"`
		Progress struct {
			Percent     float64 `json:"percent"`
			Description string  `json:"description"`
		} `json:"progress"`
		LogsExcerpt string          `json:"logs_excerpt"`
		Error       string          `json:"error"`
		ExcInfo     json.RawMessage `json:"exc_info"`
	}
	if err := c.Call(ctx, "core.get_jobs", params, &job); err != nil {
		return JobStatus{}, fmt.Errorf("job %d: %w", id, err)
	}
	return JobStatus{
		State:       job.State,
		Percent:     job.Progress.Percent,
		Message:     job.Progress.Description,
		LogsExcerpt: job.LogsExcerpt,
		Error:       job.Error,
	}, nil
}
