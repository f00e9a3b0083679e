// Package appdef holds the data model shared by the loader, the drift
// classifier and the job orchestrator: desired application definitions,
// remote application snapshots, and the per-application results of a run.
package appdef

// SourceKind identifies where a definition came from.
type SourceKind string

const (
	// SourceCompose is a hand-authored compose file; the application name is
	// the file stem.
	SourceCompose SourceKind = "compose"
	// SourceCatalog is a platform-exported catalog definition; the
	// application name comes from the document itself.
	SourceCatalog SourceKind = "catalog"
)

// Definition is one desired application, as loaded from disk. Immutable
// after loading.
type Definition struct {
	Name       string
	Source     SourceKind
	Config     map[string]any // full parsed document
	OriginPath string
}

// DesiredConfig returns the portion of the document that is compared against
// the remote snapshot. For compose definitions that is the whole document;
// for catalog definitions it is the "values" object.
func (d *Definition) DesiredConfig() map[string]any {
	if d.Source == SourceCatalog {
		if vals, ok := d.Config["values"].(map[string]any); ok {
			return vals
		}
		return map[string]any{}
	}
	return d.Config
}

// RemoteApp is a read-only mirror of one deployed application, refreshed
// once per run.
type RemoteApp struct {
	Name   string
	ID     string
	State  string
	Config map[string]any // snapshot as reported by the platform
}

// Action is the reconciliation decision for one application.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionSkip   Action = "SKIP"
)

// DriftResult is the classification of one definition against remote state.
type DriftResult struct {
	App    *Definition
	Remote *RemoteApp // nil when the app is absent remotely
	Action Action
	Reason string
}

// JobState is a platform-reported job state.
type JobState string

const (
	JobRunning JobState = "RUNNING"
	JobSuccess JobState = "SUCCESS"
	JobFailed  JobState = "FAILED"
	JobAborted JobState = "ABORTED"
)

// Terminal reports whether s ends a job.
func (s JobState) Terminal() bool {
	return s == JobSuccess || s == JobFailed || s == JobAborted
}

// ProgressEntry is one observed progress update of a job.
type ProgressEntry struct {
	Percent float64
	Message string
}

// JobOutcome records what happened to one executed DriftResult. FinalState
// is JobFailed with JobID zero when the submission itself was rejected.
type JobOutcome struct {
	AppName    string
	Action     Action
	JobID      int64
	FinalState JobState
	Err        string
	Progress   []ProgressEntry
}

// Failed reports whether the application's job did not succeed.
func (o *JobOutcome) Failed() bool {
	return o.FinalState != JobSuccess
}
