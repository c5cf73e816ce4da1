package batch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/peacetifal/peacetifal-backend/pkg/logger"
)

type fakeLock struct {
	acquired bool
	denied   bool
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.denied || f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.acquired = false; return nil }

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "batch-test"})
	registry := NewRegistry(&testJob{name: "success"}, &testJob{name: "fail", err: errors.New("boom")})
	service, err := NewService(ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     &fakeLock{},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	err = service.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected the failing job error to surface")
	}
	if !strings.Contains(err.Error(), "fail: boom") {
		t.Fatalf("expected aggregated job error, got %v", err)
	}
	for _, job := range registry.Jobs() {
		typed, ok := job.(*testJob)
		if !ok {
			t.Fatalf("job type mismatch")
		}
		if typed.runs != 1 {
			t.Fatalf("expected job %q to run once, ran %d", typed.name, typed.runs)
		}
	}
}

func TestServiceSkipsCycleWhenLockHeld(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "batch-test"})
	job := &testJob{name: "only"}
	service, err := NewService(ServiceParams{
		Logger:   logg,
		Registry: NewRegistry(job),
		Lock:     &fakeLock{denied: true},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected no runs while lock is held, got %d", job.runs)
	}
}
