// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workspace stores uploads and converted artifacts on disk.
//
// Each request gets its own job directory under the workspace root, so the
// converter's working directory and any media it extracts stay private to
// that request. Job directories are removed after a retention window.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	lockName = ".docconv.lock"
	inputDir = "upload"
)

var (
	// ErrInvalidName reports a job id or file name that could escape the
	// workspace.
	ErrInvalidName = errors.New("invalid name")

	// ErrNotFound reports an artifact that does not exist or has expired.
	ErrNotFound = errors.New("not found")

	// ErrLocked reports a workspace already held by another process.
	ErrLocked = errors.New("workspace is locked by another process")
)

// Workspace manages job directories under a root directory.
type Workspace struct {
	dir       string
	retention time.Duration
	logger    *zap.Logger
	lock      *flock.Flock
	now       func() time.Time

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// New creates the workspace root if needed.
func New(dir string, retention time.Duration, logger *zap.Logger) (*Workspace, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating workspace %s: %w", dir, err)
	}
	return &Workspace{
		dir:       dir,
		retention: retention,
		logger:    logger,
		lock:      flock.New(filepath.Join(dir, lockName)),
		now:       time.Now,
		timers:    make(map[string]*time.Timer),
	}, nil
}

// Dir returns the workspace root.
func (w *Workspace) Dir() string { return w.dir }

// Lock takes an exclusive lock on the workspace so two servers never sweep
// each other's jobs.
func (w *Workspace) Lock() error {
	ok, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire workspace lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLocked, w.lock.Path())
	}
	return nil
}

// Unlock releases the workspace lock.
func (w *Workspace) Unlock() error {
	return w.lock.Unlock()
}

// Job is one request's directory.
type Job struct {
	ID   string
	Dir  string
	base string
}

// InputPath returns where the upload is stored. Uploads live in a
// subdirectory so they never share a name with the artifact.
func (j *Job) InputPath(ext string) string {
	return filepath.Join(j.Dir, inputDir, "input"+ext)
}

// OutputPath returns where the converter writes the artifact.
func (j *Job) OutputPath(ext string) string {
	return filepath.Join(j.Dir, j.OutputName(ext))
}

// OutputName is the artifact's download name: the upload's base name with
// the output extension.
func (j *Job) OutputName(ext string) string {
	return j.base + ext
}

// Allocate creates a job directory for an upload named originalName.
func (w *Workspace) Allocate(originalName string) (*Job, error) {
	id := newID(w.now())
	dir := filepath.Join(w.dir, id)
	if err := os.MkdirAll(filepath.Join(dir, inputDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating job dir: %w", err)
	}
	return &Job{ID: id, Dir: dir, base: baseName(originalName)}, nil
}

// newID returns "<unix millis>-<12 hex chars>".
func newID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%d-%s", now.UnixMilli(), suffix)
}

// baseName strips the directory and extension from an uploaded file name
// and replaces characters that do not belong in a download name.
func baseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20, r == 0x7f, strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), ". ")
	if out == "" {
		return "converted"
	}
	return out
}

// Save copies r into the job's input file and returns its path and size.
func (w *Workspace) Save(job *Job, ext string, r io.Reader) (string, int64, error) {
	path := job.InputPath(ext)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("creating upload file: %w", err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", 0, fmt.Errorf("writing upload: %w", err)
	}
	return path, n, nil
}

// Remove deletes a job directory now.
func (w *Workspace) Remove(job *Job) {
	w.mu.Lock()
	if t, ok := w.timers[job.ID]; ok {
		t.Stop()
		delete(w.timers, job.ID)
	}
	w.mu.Unlock()
	w.remove(job.ID)
}

// ScheduleCleanup removes the job directory after the retention window.
func (w *Workspace) ScheduleCleanup(job *Job) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if t, ok := w.timers[job.ID]; ok {
		t.Stop()
	}
	id := job.ID
	w.timers[id] = time.AfterFunc(w.retention, func() {
		w.mu.Lock()
		delete(w.timers, id)
		w.mu.Unlock()
		w.remove(id)
	})
}

func (w *Workspace) remove(id string) {
	if err := os.RemoveAll(filepath.Join(w.dir, id)); err != nil {
		w.logger.Warn("failed to remove job dir", zap.String("job", id), zap.Error(err))
		return
	}
	w.logger.Debug("job dir removed", zap.String("job", id))
}

// Pending returns the number of scheduled cleanups.
func (w *Workspace) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.timers)
}

// Sweep removes job directories last modified more than one retention
// window before now. It returns the number removed.
func (w *Workspace) Sweep(now time.Time) (int, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, fmt.Errorf("reading workspace: %w", err)
	}
	removed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= w.retention {
			continue
		}
		if err := os.RemoveAll(filepath.Join(w.dir, e.Name())); err != nil {
			w.logger.Warn("sweep failed", zap.String("job", e.Name()), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		w.logger.Info("swept stale jobs", zap.Int("removed", removed))
	}
	return removed, nil
}

// Resolve returns the path of an artifact for download.
func (w *Workspace) Resolve(id, name string) (string, error) {
	if !validComponent(id) || !validComponent(name) {
		return "", ErrInvalidName
	}
	path := filepath.Join(w.dir, id, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrNotFound
	}
	return path, nil
}

func validComponent(s string) bool {
	return s != "" && s != "." && s != ".." &&
		!strings.ContainsAny(s, `/\`) && s != lockName
}

// Close stops pending cleanups and removes their job directories.
func (w *Workspace) Close() {
	w.mu.Lock()
	w.closed = true
	ids := make([]string, 0, len(w.timers))
	for id, t := range w.timers {
		t.Stop()
		ids = append(ids, id)
	}
	w.timers = map[string]*time.Timer{}
	w.mu.Unlock()

	for _, id := range ids {
		w.remove(id)
	}
}
