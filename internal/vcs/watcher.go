// Package vcs watches the working directory's git checkout and reports
// branch switches.
package vcs

import (
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/clippy-ai/clippy/internal/event"
	"github.com/clippy-ai/clippy/internal/logging"
)

// Watcher tracks the checked-out branch by watching the git directory for
// HEAD updates.
type Watcher struct {
	mu      sync.RWMutex
	fs      *fsnotify.Watcher
	workDir string
	gitDir  string
	branch  string
	stop    chan struct{}
	done    chan struct{}
	started bool
}

// NewWatcher creates a watcher for workDir. It returns (nil, nil) when the
// directory is not inside a git checkout.
func NewWatcher(workDir string) (*Watcher, error) {
	gitDir := resolveGitDir(workDir)
	if gitDir == "" {
		log := logging.With("vcs")
		log.Debug().Str("dir", workDir).Msg("no git checkout, branch watching disabled")
		return nil, nil
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watching the directory rather than HEAD itself survives the
	// rename-over-HEAD that git uses when switching branches.
	if err := fs.Add(gitDir); err != nil {
		fs.Close()
		return nil, err
	}

	return &Watcher{
		fs:      fs,
		workDir: workDir,
		gitDir:  gitDir,
		branch:  CurrentBranch(workDir),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Start launches the watch loop. Calling Start twice is a no-op.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.started = true
	go w.loop()
}

func (w *Watcher) loop() {
	defer close(w.done)
	log := logging.With("vcs")

	for {
		select {
		case <-w.stop:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if filepath.Base(ev.Name) != "HEAD" {
				continue
			}
			w.refresh()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) refresh() {
	current := CurrentBranch(w.workDir)

	w.mu.Lock()
	previous := w.branch
	if current == previous {
		w.mu.Unlock()
		return
	}
	w.branch = current
	w.mu.Unlock()

	log := logging.With("vcs")
	log.Info().Str("from", previous).Str("to", current).Msg("branch switched")
	event.PublishSync(event.Event{
		Type: event.BranchChanged,
		Data: event.BranchChangedData{Repo: w.workDir, Branch: current},
	})
}

// Branch returns the branch observed by the watcher.
func (w *Watcher) Branch() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.branch
}

// Stop shuts the watcher down and waits for the loop to exit.
func (w *Watcher) Stop() error {
	select {
	case <-w.stop:
	default:
		close(w.stop)
	}

	w.mu.RLock()
	started := w.started
	w.mu.RUnlock()
	if started {
		<-w.done
	}
	return w.fs.Close()
}

// resolveGitDir locates the git directory for workDir, following worktree
// indirection.
func resolveGitDir(workDir string) string {
	out, err := gitOutput(workDir, "rev-parse", "--git-dir")
	if err != nil {
		return ""
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(workDir, out)
	}
	return out
}

// CurrentBranch returns the checked-out branch for a directory, or "" when
// it cannot be determined.
func CurrentBranch(workDir string) string {
	out, err := gitOutput(workDir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return ""
	}
	return out
}

func gitOutput(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
