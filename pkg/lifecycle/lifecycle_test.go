package lifecycle_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/JaimeStill/triage/pkg/lifecycle"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStartupAndShutdownHooks(t *testing.T) {
	lc := lifecycle.New()
	var started, stopped atomic.Int32

	for range 3 {
		lc.OnStartup(func() { started.Add(1) })
		lc.OnShutdown(func() {
			<-lc.Context().Done()
			stopped.Add(1)
		})
	}

	if lc.Ready() {
		t.Fatal("Ready() before WaitForStartup")
	}

	lc.WaitForStartup()
	if got := started.Load(); got != 3 {
		t.Errorf("started = %d, want 3", got)
	}
	if !lc.Ready() {
		t.Fatal("Ready() = false after startup")
	}
	if stopped.Load() != 0 {
		t.Error("shutdown hooks ran before Shutdown")
	}

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if got := stopped.Load(); got != 3 {
		t.Errorf("stopped = %d, want 3", got)
	}
	if lc.Ready() {
		t.Error("Ready() = true after shutdown")
	}
}

func TestShutdownTimeout(t *testing.T) {
	lc := lifecycle.New()
	release := make(chan struct{})
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		<-release
	})

	if err := lc.Shutdown(10 * time.Millisecond); err == nil {
		t.Error("expected timeout error")
	}
	close(release)
}

func TestReadiness(t *testing.T) {
	lc := lifecycle.New()
	errDown := errors.New("down")
	var healthy atomic.Bool

	lc.AddCheck("database", lifecycle.CheckFunc(func(context.Context) error {
		if healthy.Load() {
			return nil
		}
		return errDown
	}))
	lc.AddCheck("cache", lifecycle.CheckFunc(func(context.Context) error { return nil }))

	failures, ok := lc.Readiness(context.Background())
	if ok {
		t.Fatal("ready before startup")
	}
	if _, found := failures["lifecycle"]; !found {
		t.Errorf("failures = %v, want lifecycle entry", failures)
	}

	lc.WaitForStartup()

	failures, ok = lc.Readiness(context.Background())
	if ok || !errors.Is(failures["database"], errDown) || len(failures) != 1 {
		t.Errorf("failures = %v, ok = %v", failures, ok)
	}

	healthy.Store(true)
	failures, ok = lc.Readiness(context.Background())
	if !ok || len(failures) != 0 {
		t.Errorf("failures = %v, ok = %v", failures, ok)
	}

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
