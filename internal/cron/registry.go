package cron

import (
	"context"
	"sync"
	"time"
)

// Job is a unit of work run by the scheduler.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type entry struct {
	job     Job
	every   time.Duration
	lastRun time.Time
}

// Registry holds the scheduled jobs and how often each may run. A job with
// no interval runs on every tick.
type Registry struct {
	mu      sync.Mutex
	entries []*entry
}

// NewRegistry registers jobs that run on every tick. Nil jobs are skipped.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{}
	for _, job := range jobs {
		registry.Register(job)
	}
	return registry
}

func (r *Registry) Register(job Job) {
	r.RegisterEvery(job, 0)
}

// RegisterEvery adds a job that runs at most once per interval. The first
// tick always runs it.
func (r *Registry) RegisterEvery(job Job, every time.Duration) {
	if job == nil {
		return
	}
	if every < 0 {
		every = 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, &entry{job: job, every: every})
}

// Due returns, in registration order, the jobs whose interval has elapsed at
// now and marks them as run.
func (r *Registry) Due(now time.Time) []Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	jobs := make([]Job, 0, len(r.entries))
	for _, e := range r.entries {
		if e.every > 0 && !e.lastRun.IsZero() && now.Sub(e.lastRun) < e.every {
			continue
		}
		e.lastRun = now
		jobs = append(jobs, e.job)
	}
	return jobs
}

// Jobs returns every registered job in registration order.
func (r *Registry) Jobs() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	jobs := make([]Job, 0, len(r.entries))
	for _, e := range r.entries {
		jobs = append(jobs, e.job)
	}
	return jobs
}
