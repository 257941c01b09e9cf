package cron

import (
	"testing"
	"time"
)

func TestRegistryKeepsOrderAndSkipsNil(t *testing.T) {
	jobA := &testJob{name: "a"}
	jobB := &testJob{name: "b"}
	registry := NewRegistry(jobA, nil)
	registry.Register(nil)
	registry.Register(jobB)

	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0] != jobA || jobs[1] != jobB {
		t.Fatalf("jobs returned out of order")
	}
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("internal slice leaked")
	}
}

func TestRegistryDueHonoursInterval(t *testing.T) {
	every := &testJob{name: "every"}
	sweep := &testJob{name: "sweep"}
	registry := NewRegistry(every)
	registry.RegisterEvery(sweep, 10*time.Minute)

	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	steps := []struct {
		at   time.Duration
		want []Job
	}{
		{0, []Job{every, sweep}},
		{30 * time.Second, []Job{every}},
		{9 * time.Minute, []Job{every}},
		{10 * time.Minute, []Job{every, sweep}},
		{15 * time.Minute, []Job{every}},
	}
	for _, step := range steps {
		got := registry.Due(start.Add(step.at))
		if len(got) != len(step.want) {
			t.Fatalf("at %s: expected %d jobs, got %d", step.at, len(step.want), len(got))
		}
		for i := range got {
			if got[i] != step.want[i] {
				t.Fatalf("at %s: job %d mismatch", step.at, i)
			}
		}
	}
}
