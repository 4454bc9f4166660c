package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/orbweave/orbweave/pkg/arranger"
	"github.com/orbweave/orbweave/pkg/cache"
	"github.com/orbweave/orbweave/pkg/layout"
	"github.com/orbweave/orbweave/pkg/observability"
)

// Job states reported to polling clients.
const (
	JobRunning    = "running"
	JobComplete   = "complete"
	JobFailed     = "failed"
	JobTerminated = "terminated"
)

// retention is how long finished jobs stay queryable before the registry
// drops them.
const retention = 10 * time.Minute

// Job tracks one background arrangement.
type Job struct {
	ID string

	mu       sync.Mutex
	status   string
	progress float64
	result   *layout.Result
	errMsg   string
	done     time.Time
	dropped  bool // set by terminate; suppresses snapshot persistence

	arr *arranger.Arranger
}

// jobSnapshot is the JSON view of a job returned by the API.
type jobSnapshot struct {
	ID       string         `json:"id"`
	Status   string         `json:"status"`
	Progress float64        `json:"progress"`
	Result   *layout.Result `json:"result,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func (j *Job) snapshot() jobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return jobSnapshot{
		ID:       j.ID,
		Status:   j.status,
		Progress: j.progress,
		Result:   j.result,
		Error:    j.errMsg,
	}
}

// consume applies the arranger's frame stream to the job state. Terminal
// snapshots are persisted before they become observable, so a poll that
// sees a finished status can rely on the cached copy existing.
func (r *jobRegistry) consume(job *Job, ch <-chan arranger.Message) {
	for msg := range ch {
		job.mu.Lock()
		switch msg.Type {
		case arranger.MessageProgress:
			job.progress = msg.Progress
		case arranger.MessageComplete:
			job.status = JobComplete
			job.progress = 1
			job.result = msg.Result
			job.done = time.Now()
			r.persistLocked(job)
		case arranger.MessageError:
			job.status = JobFailed
			job.errMsg = msg.Error
			job.done = time.Now()
			r.persistLocked(job)
		}
		job.mu.Unlock()
	}

	// Stream closed without a terminal frame: the job was terminated.
	job.mu.Lock()
	if job.status == JobRunning {
		job.status = JobTerminated
		job.done = time.Now()
	}
	job.mu.Unlock()
}

// jobRegistry holds all known jobs. Each job owns its own arranger, so
// concurrent jobs never contend for a busy slot. Finished snapshots are
// persisted to the cache so results stay queryable past retention.
type jobRegistry struct {
	mu   sync.RWMutex
	jobs map[string]*Job

	cache cache.Cache
	keyer cache.Keyer
}

func newJobRegistry(c cache.Cache, k cache.Keyer) *jobRegistry {
	if c == nil {
		c = cache.NewNullCache()
	}
	if k == nil {
		k = cache.NewDefaultKeyer()
	}
	return &jobRegistry{jobs: make(map[string]*Job), cache: c, keyer: k}
}

func (r *jobRegistry) snapshotKey(id string) string {
	return r.keyer.HTTPKey("jobs", id)
}

// persistLocked stores a finished job's snapshot under its HTTP key.
// Caller holds job.mu; r.mu must not be taken here, sweepLocked holds it
// in the opposite order. Terminated jobs are not persisted.
func (r *jobRegistry) persistLocked(job *Job) {
	if job.dropped {
		return
	}

	data, err := json.Marshal(jobSnapshot{
		ID:       job.ID,
		Status:   job.status,
		Progress: job.progress,
		Result:   job.result,
		Error:    job.errMsg,
	})
	if err != nil {
		return
	}
	ctx := context.Background()
	if r.cache.Set(ctx, r.snapshotKey(job.ID), data, cache.HTTPTTL) == nil {
		observability.Cache().OnCacheSet(ctx, "http", len(data))
	}
}

// lookup fetches the persisted snapshot of a job the registry no longer
// holds.
func (r *jobRegistry) lookup(ctx context.Context, id string) ([]byte, bool) {
	data, ok, err := r.cache.Get(ctx, r.snapshotKey(id))
	if err != nil || !ok {
		observability.Cache().OnCacheMiss(ctx, "http")
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "http")
	return data, true
}

// start creates a job, kicks off the arrangement, and begins consuming
// its frame stream.
func (r *jobRegistry) start(req arranger.Request) (*Job, error) {
	job := &Job{
		ID:     uuid.NewString(),
		status: JobRunning,
		arr:    arranger.New(),
	}

	ch, err := job.arr.Arrange(req)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sweepLocked()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	go r.consume(job, ch)
	return job, nil
}

func (r *jobRegistry) get(id string) (*Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	return job, ok
}

// terminate stops a job and removes it from the registry along with its
// persisted snapshot. Reports false if the job is unknown.
func (r *jobRegistry) terminate(ctx context.Context, id string) bool {
	r.mu.Lock()
	job, ok := r.jobs[id]
	if ok {
		delete(r.jobs, id)
	}
	r.mu.Unlock()

	if ok {
		// Mark the job dropped before touching the cache so a terminal
		// frame racing with this delete cannot re-persist the snapshot.
		job.mu.Lock()
		job.dropped = true
		if job.status == JobRunning {
			job.status = JobTerminated
			job.done = time.Now()
		}
		job.mu.Unlock()
		job.arr.Terminate()
	}

	_, persisted, _ := r.cache.Get(ctx, r.snapshotKey(id))
	_ = r.cache.Delete(ctx, r.snapshotKey(id))
	return ok || persisted
}

// sweepLocked drops finished jobs past the retention window.
// Caller holds the write lock.
func (r *jobRegistry) sweepLocked() {
	cutoff := time.Now().Add(-retention)
	for id, job := range r.jobs {
		job.mu.Lock()
		expired := job.status != JobRunning && !job.done.IsZero() && job.done.Before(cutoff)
		job.mu.Unlock()
		if expired {
			delete(r.jobs, id)
		}
	}
}
