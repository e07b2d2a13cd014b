package cli

import (
	"bytes"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/moto/pkg/cache"
	"github.com/matzehuels/moto/pkg/session"
)

// isolate points every XDG directory at a temp dir and clears the env
// overrides the config reads.
func isolate(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, k := range []string{"XDG_CONFIG_HOME", "XDG_DATA_HOME", "XDG_CACHE_HOME"} {
		t.Setenv(k, filepath.Join(root, strings.ToLower(k)))
	}
	for _, k := range []string{"MOTO_STORE_DSN", "MOTO_REDIS_ADDR", "MOTO_ADDR", "API_KEY", "GEMINI_API_KEY", passwordEnv} {
		t.Setenv(k, "")
	}
	return root
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestCacheClearCommand(t *testing.T) {
	isolate(t)
	dir, err := cacheDir()
	require.NoError(t, err)
	fc, err := cache.NewFileCache(dir)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, fc.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, fc.Set(ctx, "b", []byte("2"), 0))

	require.NoError(t, execute(t, "cache", "clear"))

	_, ok, err := fc.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok, "entry survived cache clear")
}

func TestAccountCommands(t *testing.T) {
	isolate(t)

	require.NoError(t, execute(t, "signup", "--email", "ada@example.com", "--password", "hunter22", "--name", "Ada"))

	sess, err := session.NewCLIStore("")
	require.NoError(t, err)
	cur, err := sess.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cur, "signup should leave a current session")
	assert.Equal(t, "ada@example.com", cur.Email)

	require.NoError(t, execute(t, "whoami"))
	require.NoError(t, execute(t, "stats", "set", "--goal", "20000", "--clients", "4"))
	require.NoError(t, execute(t, "stats", "get"))

	require.NoError(t, execute(t, "logout"))
	cur, err = sess.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cur, "logout should forget the session")

	assert.Error(t, execute(t, "stats"), "stats needs a session")
	assert.Error(t, execute(t, "login", "--email", "ada@example.com", "--password", "wrong!!"))
	require.NoError(t, execute(t, "login", "--email", "ada@example.com", "--password", "hunter22"))
}

func TestSnapshotFormat(t *testing.T) {
	tests := []struct {
		flag, output, want string
		wantErr            bool
	}{
		{"", "out.png", formatPNG, false},
		{"", "out.SVG", formatSVG, false},
		{"", "out", formatPNG, false},
		{"svg", "out.png", formatSVG, false},
		{"", "out.gif", "", true},
	}
	for _, tt := range tests {
		got, err := snapshotFormat(tt.flag, tt.output)
		if (err != nil) != tt.wantErr {
			t.Errorf("snapshotFormat(%q, %q) error = %v", tt.flag, tt.output, err)
			continue
		}
		if got != tt.want {
			t.Errorf("snapshotFormat(%q, %q) = %q, want %q", tt.flag, tt.output, got, tt.want)
		}
	}
}

func TestSnapshotIsDeterministic(t *testing.T) {
	c := New(io.Discard, LogInfo)
	opts := snapshotOptions{format: formatSVG, width: 600, seed: 7, at: 500 * time.Millisecond, scale: 1, particles: true}

	a, err := c.renderSnapshot(opts)
	require.NoError(t, err)
	b, err := c.renderSnapshot(opts)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a, b), "same options rendered different frames")

	opts.seed = 8
	other, err := c.renderSnapshot(opts)
	require.NoError(t, err)
	assert.False(t, bytes.Equal(a, other), "seed did not change the frame")
}

func TestSnapshotCommand(t *testing.T) {
	root := isolate(t)
	out := filepath.Join(root, "frame.png")
	frames := filepath.Join(root, "frames")

	require.NoError(t, execute(t, "snapshot", "-o", out, "--width", "400", "--frames-dir", frames, "--frames", "3"))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), "output is not a PNG")

	entries, err := os.ReadDir(frames)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestAuditInput(t *testing.T) {
	got, err := auditInput([]string{"shop"}, strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "shop", got)

	got, err = auditInput([]string{"-"}, strings.NewReader("from stdin"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", got)
}

func TestAuditWithoutKey(t *testing.T) {
	isolate(t)
	assert.Error(t, execute(t, "audit", "Headphone store"))
}

func TestHitProbe(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	p := &hitProbe{Cache: fc}
	ctx := context.Background()

	_, _, _ = p.Get(ctx, "k")
	assert.False(t, p.hit.Load())

	require.NoError(t, p.Set(ctx, "k", []byte("v"), 0))
	_, _, _ = p.Get(ctx, "k")
	assert.True(t, p.hit.Load())
}

func TestBrowserHost(t *testing.T) {
	tests := map[string]string{
		"[::]:8080":      "localhost:8080",
		"0.0.0.0:9000":   "localhost:9000",
		"127.0.0.1:3000": "127.0.0.1:3000",
	}
	for in, want := range tests {
		addr, err := net.ResolveTCPAddr("tcp", in)
		require.NoError(t, err)
		assert.Equal(t, want, browserHost(addr), in)
	}
}

func TestSweepSessionsStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweepSessions(ctx, session.NewMemoryStore(), time.Millisecond) }()

	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweepSessions did not stop")
	}
}

func TestCompletionCommand(t *testing.T) {
	isolate(t)
	for _, shell := range completionShells {
		t.Run(shell, func(t *testing.T) {
			var buf bytes.Buffer
			root := New(io.Discard, LogInfo).RootCommand()
			root.SetArgs([]string{"completion", shell})
			root.SetOut(&buf)
			root.SetErr(io.Discard)
			require.NoError(t, root.ExecuteContext(context.Background()))
			assert.Contains(t, buf.String(), appName)
		})
	}

	assert.Error(t, execute(t, "completion", "tcsh"))
}
