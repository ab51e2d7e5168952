package ytdlp

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shRunner runs a shell script in place of yt-dlp; the script sees the
// argument vector as "$@".
func shRunner(t *testing.T) *ExecRunner {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
	return &ExecRunner{Path: "/bin/sh", MaxOutput: DefaultMaxOutput}
}

func TestExecRunner_Success(t *testing.T) {
	r := shRunner(t)
	out, err := r.Run(context.Background(), []string{"-c", `echo "[download] Destination: /tmp/$1"; echo warn >&2`, "sh", "a.mp4"})
	require.NoError(t, err)
	assert.Equal(t, 0, out.ExitCode)
	assert.Equal(t, "[download] Destination: /tmp/a.mp4\n", out.Stdout)
	assert.Equal(t, "warn\n", out.Stderr)
}

func TestExecRunner_ArgumentsAreNotShellExpanded(t *testing.T) {
	r := shRunner(t)
	out, err := r.Run(context.Background(), []string{"-c", `printf '%s' "$1"`, "sh", "https://x.test/?a=1&b=$(id)"})
	require.NoError(t, err)
	assert.Equal(t, "https://x.test/?a=1&b=$(id)", out.Stdout)
}

func TestExecRunner_ExitError(t *testing.T) {
	r := shRunner(t)
	out, err := r.Run(context.Background(), []string{"-c", "echo 'ERROR: Video unavailable' >&2; exit 1"})
	var ee *ExitError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, 1, ee.ExitCode)
	assert.Equal(t, "ERROR: Video unavailable", ee.Error())
	assert.Equal(t, 1, out.ExitCode)
}

func TestExecRunner_ExitErrorWithoutStderr(t *testing.T) {
	r := shRunner(t)
	_, err := r.Run(context.Background(), []string{"-c", "exit 3"})
	var ee *ExitError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "exit code 3", ee.Error())
}

func TestExecRunner_StartFailure(t *testing.T) {
	r := &ExecRunner{Path: "/nonexistent/bin/yt-dlp-missing"}
	out, err := r.Run(context.Background(), []string{"--version"})
	assert.Nil(t, out)
	var se *StartError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, KindToolMissing, Classify(err).Kind)
}

func TestExecRunner_OutputLimit(t *testing.T) {
	r := shRunner(t)
	r.MaxOutput = 1024
	_, err := r.Run(context.Background(), []string{"-c", "i=0; while [ $i -lt 500 ]; do echo 0123456789; i=$((i+1)); done"})
	require.ErrorIs(t, err, ErrOutputLimit)
	assert.Equal(t, KindOutputLimit, Classify(err).Kind)
}

func TestExecRunner_Timeout(t *testing.T) {
	r := shRunner(t)
	r.Timeout = 200 * time.Millisecond
	start := time.Now()
	_, err := r.Run(context.Background(), []string{"-c", "exec sleep 10"})
	require.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecRunner_Cancelled(t *testing.T) {
	r := shRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	_, err := r.Run(ctx, []string{"-c", "exec sleep 10"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, KindCancelled, Classify(err).Kind)
}

func TestExecRunner_AlreadyCancelled(t *testing.T) {
	r := &ExecRunner{Path: "/nonexistent/bin/yt-dlp-missing"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Run(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestExecRunner_StreamFunc(t *testing.T) {
	r := shRunner(t)
	var mu sync.Mutex
	var lines []string
	r.StreamFunc = func(stream, line string) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, stream+":"+line)
	}
	_, err := r.Run(context.Background(), []string{"-c", `printf '[download]  10%%\r[download] 100%%\n'; printf 'tail'`})
	require.NoError(t, err)
	assert.Equal(t, []string{"stdout:[download]  10%", "stdout:[download] 100%", "stdout:tail"}, lines)
}

func TestExecRunner_PathOrDefault(t *testing.T) {
	assert.Equal(t, "yt-dlp", (&ExecRunner{}).PathOrDefault())
	assert.Equal(t, "/opt/yt-dlp", NewExecRunner("/opt/yt-dlp").PathOrDefault())
	assert.Equal(t, "yt-dlp", NewExecRunner("").PathOrDefault())
}

func TestExecRunner_ContextStream(t *testing.T) {
	r := shRunner(t)
	var mu sync.Mutex
	var base, extra []string
	r.StreamFunc = func(_, line string) {
		mu.Lock()
		defer mu.Unlock()
		base = append(base, line)
	}
	ctx := WithStream(context.Background(), func(_, line string) {
		mu.Lock()
		defer mu.Unlock()
		extra = append(extra, line)
	})
	_, err := r.Run(ctx, []string{"-c", "echo one"})
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, base)
	assert.Equal(t, []string{"one"}, extra)
}
