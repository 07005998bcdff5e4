package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobKind identifies the operation a job runs.
type JobKind string

const (
	JobLocalize JobKind = "localize"
	JobMerge    JobKind = "merge"
)

// JobState is the lifecycle state of a job.
type JobState string

const (
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

// DefaultJobHistory is how many finished and running jobs are remembered.
const DefaultJobHistory = 100

// Job records one localize or merge run.
type Job struct {
	ID         string    `json:"id"`
	Kind       JobKind   `json:"kind"`
	Path       string    `json:"path"`
	Locales    []string  `json:"locales,omitempty"`
	State      JobState  `json:"state"`
	Outputs    []string  `json:"outputs,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
	ClientIP   string    `json:"clientIp,omitempty"`
	UserAgent  string    `json:"userAgent,omitempty"`
}

// Duration returns how long the job ran, or has been running.
func (j Job) Duration() time.Duration {
	if j.FinishedAt.IsZero() {
		return time.Since(j.StartedAt)
	}
	return j.FinishedAt.Sub(j.StartedAt)
}

type jobTracker struct {
	mu   sync.Mutex
	jobs []*Job
	max  int
}

func newJobTracker(max int) *jobTracker {
	if max <= 0 {
		max = DefaultJobHistory
	}
	return &jobTracker{max: max}
}

func (t *jobTracker) start(ctx context.Context, kind JobKind, path string, locales []string) *Job {
	job := &Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		Path:      path,
		Locales:   append([]string(nil), locales...),
		State:     JobRunning,
		StartedAt: time.Now().UTC(),
		ClientIP:  ClientIPFromContext(ctx),
		UserAgent: UserAgentFromContext(ctx),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs = append(t.jobs, job)
	if len(t.jobs) > t.max {
		t.jobs = append([]*Job(nil), t.jobs[len(t.jobs)-t.max:]...)
	}
	return job
}

func (t *jobTracker) finish(job *Job, outputs []string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job.FinishedAt = time.Now().UTC()
	job.Outputs = append([]string(nil), outputs...)
	if err != nil {
		job.State = JobFailed
		job.Error = err.Error()
		return
	}
	job.State = JobSucceeded
}

// list returns copies of the tracked jobs, newest first.
func (t *jobTracker) list() []Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Job, 0, len(t.jobs))
	for i := len(t.jobs) - 1; i >= 0; i-- {
		out = append(out, *t.jobs[i])
	}
	return out
}

func (t *jobTracker) get(id string) (Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, j := range t.jobs {
		if j.ID == id {
			return *j, true
		}
	}
	return Job{}, false
}
