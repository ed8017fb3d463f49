package timeouts_test

import (
	"context"
	"testing"
	"time"

	"github.com/hakbangquest/hakbangweb/internal/app/system/timeouts"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaults_Ordered(t *testing.T) {
	timeouts.Reset()
	got := []time.Duration{timeouts.Ping(), timeouts.Short(), timeouts.Medium(), timeouts.Long(), timeouts.Batch()}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Errorf("class %d (%v) should be longer than class %d (%v)", i, got[i], i-1, got[i-1])
		}
	}
}

func TestConfigureFromEnv(t *testing.T) {
	timeouts.Reset()
	t.Cleanup(timeouts.Reset)
	medium, long := timeouts.Medium(), timeouts.Long()

	t.Setenv(timeouts.EnvPrefix+"SHORT", "750ms")
	t.Setenv(timeouts.EnvPrefix+"BATCH", "2m")
	t.Setenv(timeouts.EnvPrefix+"LONG", "not-a-duration")
	t.Setenv(timeouts.EnvPrefix+"MEDIUM", "-5s")

	if n := timeouts.ConfigureFromEnv(); n != 2 {
		t.Errorf("configured %d timeouts, want 2", n)
	}
	if got := timeouts.Short(); got != 750*time.Millisecond {
		t.Errorf("Short = %v", got)
	}
	if got := timeouts.Batch(); got != 2*time.Minute {
		t.Errorf("Batch = %v", got)
	}
	if got := timeouts.Long(); got != long {
		t.Errorf("Long = %v, want unchanged %v", got, long)
	}
	if got := timeouts.Medium(); got != medium {
		t.Errorf("Medium = %v, want unchanged %v", got, medium)
	}
}

func TestConfigureFromEnv_NothingSet(t *testing.T) {
	timeouts.Reset()
	t.Cleanup(timeouts.Reset)
	for _, c := range []string{"PING", "SHORT", "MEDIUM", "LONG", "BATCH"} {
		t.Setenv(timeouts.EnvPrefix+c, "")
	}
	if n := timeouts.ConfigureFromEnv(); n != 0 {
		t.Errorf("configured %d timeouts, want 0", n)
	}
}

func TestWithTimeout_LogsDeadline(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ctx, cancel := timeouts.WithTimeout(context.Background(), time.Millisecond, zap.New(core), "audit list")

	<-ctx.Done()
	cancel()

	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("Err = %v", ctx.Err())
	}
	entries := logs.FilterMessage("operation timed out").All()
	if len(entries) != 1 || entries[0].ContextMap()["operation"] != "audit list" {
		t.Errorf("expected one timeout warning, got %v", entries)
	}
}

func TestWithTimeout_QuietOnCancel(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	_, cancel := timeouts.WithTimeout(context.Background(), time.Hour, zap.New(core), "quick")
	cancel()

	if logs.Len() != 0 {
		t.Errorf("unexpected log entries: %v", logs.All())
	}
}
