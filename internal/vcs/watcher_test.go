package vcs

import (
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clippy-ai/clippy/internal/event"
)

func initTestRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}
	run("init", "-b", "main")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")
	run("commit", "--allow-empty", "-m", "initial")
	return dir
}

func TestCurrentBranchNonGitDir(t *testing.T) {
	assert.Empty(t, CurrentBranch(t.TempDir()))
}

func TestNewWatcherNonGitDir(t *testing.T) {
	w, err := NewWatcher(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestNewWatcherGitRepo(t *testing.T) {
	dir := initTestRepo(t)

	w, err := NewWatcher(dir)
	require.NoError(t, err)
	require.NotNil(t, w)
	defer w.Stop()

	assert.Equal(t, "main", w.Branch())
}

func TestWatcherDetectsBranchSwitch(t *testing.T) {
	dir := initTestRepo(t)

	w, err := NewWatcher(dir)
	require.NoError(t, err)
	require.NotNil(t, w)
	defer w.Stop()

	changed := make(chan string, 1)
	unsub := event.Subscribe(event.BranchChanged, func(ev event.Event) {
		if data, ok := ev.Data.(event.BranchChangedData); ok {
			select {
			case changed <- data.Branch:
			default:
			}
		}
	})
	defer unsub()

	w.Start()

	cmd := exec.Command("git", "checkout", "-b", "feature")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git checkout: %s", out)

	select {
	case branch := <-changed:
		assert.Equal(t, "feature", branch)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for branch change event")
	}
	assert.Equal(t, "feature", w.Branch())
}

func TestWatcherStopIdempotent(t *testing.T) {
	dir := initTestRepo(t)

	w, err := NewWatcher(dir)
	require.NoError(t, err)
	require.NotNil(t, w)

	w.Start()
	require.NoError(t, w.Stop())
	// Second stop only closes the fsnotify watcher again.
	_ = w.Stop()
}
