package report

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/crm-core/internal/task"
)

// DefaultJobHistory is how many report jobs the tracker remembers.
const DefaultJobHistory = 256

// Job describes a report started through the orchestrator.
type Job struct {
	ID          uuid.UUID       `json:"id"`
	Kind        Kind            `json:"kind"`
	Status      task.TaskStatus `json:"status"`
	Result      string          `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

type trackedJob struct {
	kind        Kind
	future      *task.Future[string]
	submittedAt time.Time
}

func (j trackedJob) snapshot() Job {
	job := Job{
		ID:          j.future.ID(),
		Kind:        j.kind,
		Status:      j.future.Status(),
		SubmittedAt: j.submittedAt,
	}
	if result, err, done := j.future.Result(); done {
		job.Result = result
		if err != nil {
			job.Error = err.Error()
		}
	}
	return job
}

// jobTracker keeps the most recent jobs, evicting the oldest first.
type jobTracker struct {
	mu    sync.Mutex
	limit int
	order []uuid.UUID
	jobs  map[uuid.UUID]trackedJob
}

func newJobTracker(limit int) *jobTracker {
	if limit <= 0 {
		limit = DefaultJobHistory
	}
	return &jobTracker{
		limit: limit,
		jobs:  make(map[uuid.UUID]trackedJob, limit),
	}
}

func (t *jobTracker) add(kind Kind, f *task.Future[string], at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.jobs[f.ID()] = trackedJob{kind: kind, future: f, submittedAt: at}
	t.order = append(t.order, f.ID())
	for len(t.order) > t.limit {
		delete(t.jobs, t.order[0])
		t.order = t.order[1:]
	}
}

func (t *jobTracker) get(id uuid.UUID) (Job, bool) {
	t.mu.Lock()
	j, ok := t.jobs[id]
	t.mu.Unlock()
	if !ok {
		return Job{}, false
	}
	return j.snapshot(), true
}

// list returns jobs newest first.
func (t *jobTracker) list() []Job {
	t.mu.Lock()
	tracked := make([]trackedJob, 0, len(t.order))
	for i := len(t.order) - 1; i >= 0; i-- {
		tracked = append(tracked, t.jobs[t.order[i]])
	}
	t.mu.Unlock()

	out := make([]Job, len(tracked))
	for i, j := range tracked {
		out[i] = j.snapshot()
	}
	return out
}
