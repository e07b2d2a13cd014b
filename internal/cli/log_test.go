package cli

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/moto/pkg/session"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", LogInfo, func(l *log.Logger) { l.Info("stream started") }, true},
		{"debug at info level", LogInfo, func(l *log.Logger) { l.Debug("frame", "n", 1) }, false},
		{"debug at debug level", LogDebug, func(l *log.Logger) { l.Debug("frame", "n", 1) }, true},
		{"warn at info level", LogInfo, func(l *log.Logger) { l.Warn("audits disabled") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			assert.Equal(t, tt.wantLog, buf.Len() > 0)
		})
	}
}

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, LogInfo).Info("snapshot cached", "seed", 42)

	out := buf.String()
	assert.Regexp(t, regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} `), out)
	assert.Contains(t, out, "snapshot cached")
	assert.Contains(t, out, "seed=42")
}

func TestProgressReportsElapsed(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, LogInfo))
	prog.start = prog.start.Add(-1500 * time.Millisecond)
	prog.done("Rendered 3 particle frames")

	assert.Regexp(t, `Rendered 3 particle frames \(1\.5\d*s\)`, buf.String())
}

func TestLoggerFromContext(t *testing.T) {
	assert.NotNil(t, loggerFromContext(context.Background()), "missing logger falls back to the default")

	var buf bytes.Buffer
	custom := newLogger(&buf, LogInfo)
	ctx := withLogger(context.Background(), custom)
	assert.Same(t, custom, loggerFromContext(ctx))
}

// failingSessions reports every cleanup once on cleaned and then fails.
type failingSessions struct {
	*session.MemoryStore
	cleaned chan struct{}
}

func (f *failingSessions) Cleanup(context.Context) error {
	select {
	case f.cleaned <- struct{}{}:
	default:
	}
	return errors.New("disk full")
}

func TestSweepLogsThroughContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(withLogger(context.Background(), newLogger(&buf, LogInfo)))
	defer cancel()

	store := &failingSessions{MemoryStore: session.NewMemoryStore(), cleaned: make(chan struct{}, 1)}
	done := make(chan error, 1)
	go func() { done <- sweepSessions(ctx, store, time.Millisecond) }()

	select {
	case <-store.cleaned:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep never ran")
	}
	cancel()
	require.NoError(t, <-done)

	assert.Contains(t, buf.String(), "session cleanup failed")
	assert.Contains(t, buf.String(), "disk full")
}
