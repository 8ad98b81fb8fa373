// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestWorkspace(t *testing.T, retention time.Duration) *Workspace {
	t.Helper()
	w, err := New(filepath.Join(t.TempDir(), "file-converter"), retention, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(w.Close)
	return w
}

func TestAllocate(t *testing.T) {
	w := newTestWorkspace(t, time.Minute)

	job, err := w.Allocate("Quarterly Report.docx")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^\d+-[0-9a-f]{12}$`), job.ID)
	assert.DirExists(t, job.Dir)
	assert.Equal(t, filepath.Join(w.Dir(), job.ID), job.Dir)
	assert.Equal(t, "Quarterly Report.pdf", job.OutputName(".pdf"))
	assert.Equal(t, filepath.Join(job.Dir, "Quarterly Report.pdf"), job.OutputPath(".pdf"))
	assert.NotEqual(t, job.InputPath(".pdf"), job.OutputPath(".pdf"))

	other, err := w.Allocate("Quarterly Report.docx")
	require.NoError(t, err)
	assert.NotEqual(t, job.ID, other.ID)
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"notes.md", "notes"},
		{"archive.tar.gz", "archive.tar"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\photo.png`, "photo"},
		{"weird:na*me?.html", "weird_na_me_"},
		{".md", "converted"},
		{"", "converted"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, baseName(tt.in))
		})
	}
}

func TestSave(t *testing.T) {
	w := newTestWorkspace(t, time.Minute)
	job, err := w.Allocate("a.md")
	require.NoError(t, err)

	path, n, err := w.Save(job, ".md", strings.NewReader("# Hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Hello", string(data))

	_, _, err = w.Save(job, ".md", strings.NewReader("again"))
	assert.Error(t, err, "upload must not be overwritten")
}

func TestResolve(t *testing.T) {
	w := newTestWorkspace(t, time.Minute)
	job, err := w.Allocate("report.md")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(job.OutputPath(".html"), []byte("<p>"), 0o644))

	got, err := w.Resolve(job.ID, "report.html")
	require.NoError(t, err)
	assert.Equal(t, job.OutputPath(".html"), got)

	tests := []struct {
		name string
		id   string
		file string
		want error
	}{
		{"missing file", job.ID, "report.pdf", ErrNotFound},
		{"unknown job", "123-abc", "report.html", ErrNotFound},
		{"upload dir", job.ID, "upload", ErrNotFound},
		{"dot dot id", "..", "report.html", ErrInvalidName},
		{"dot dot name", job.ID, "..", ErrInvalidName},
		{"traversal in name", job.ID, "../x", ErrInvalidName},
		{"slash in name", job.ID, "upload/input.md", ErrInvalidName},
		{"backslash in name", job.ID, `upload\input.md`, ErrInvalidName},
		{"empty name", job.ID, "", ErrInvalidName},
		{"lock file", ".", lockName, ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.Resolve(tt.id, tt.file)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestResolve_DottedUploadName(t *testing.T) {
	w := newTestWorkspace(t, time.Minute)
	job, err := w.Allocate("report..final.md")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(job.OutputPath(".html"), []byte("<p>"), 0o644))

	name := job.OutputName(".html")
	assert.Equal(t, "report..final.html", name)

	got, err := w.Resolve(job.ID, name)
	require.NoError(t, err)
	assert.Equal(t, job.OutputPath(".html"), got)
}

func TestScheduleCleanup(t *testing.T) {
	w := newTestWorkspace(t, 20*time.Millisecond)
	job, err := w.Allocate("a.md")
	require.NoError(t, err)

	w.ScheduleCleanup(job)
	assert.Equal(t, 1, w.Pending())

	assert.Eventually(t, func() bool {
		_, err := os.Stat(job.Dir)
		return os.IsNotExist(err)
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return w.Pending() == 0 }, time.Second, 10*time.Millisecond)
}

func TestRemoveCancelsCleanup(t *testing.T) {
	w := newTestWorkspace(t, time.Hour)
	job, err := w.Allocate("a.md")
	require.NoError(t, err)

	w.ScheduleCleanup(job)
	w.Remove(job)
	assert.Equal(t, 0, w.Pending())
	assert.NoDirExists(t, job.Dir)
}

func TestClose(t *testing.T) {
	w, err := New(t.TempDir(), time.Hour, zaptest.NewLogger(t))
	require.NoError(t, err)
	job, err := w.Allocate("a.md")
	require.NoError(t, err)
	w.ScheduleCleanup(job)

	w.Close()
	assert.Equal(t, 0, w.Pending())
	assert.NoDirExists(t, job.Dir)

	again, err := w.Allocate("b.md")
	require.NoError(t, err)
	w.ScheduleCleanup(again)
	assert.Equal(t, 0, w.Pending(), "closed workspace schedules nothing")
}

func TestSweep(t *testing.T) {
	w := newTestWorkspace(t, time.Minute)
	stale, err := w.Allocate("old.md")
	require.NoError(t, err)
	fresh, err := w.Allocate("new.md")
	require.NoError(t, err)

	now := time.Now()
	old := now.Add(-2 * time.Minute)
	require.NoError(t, os.Chtimes(stale.Dir, old, old))

	n, err := w.Sweep(now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoDirExists(t, stale.Dir)
	assert.DirExists(t, fresh.Dir)
}

func TestLock(t *testing.T) {
	dir := t.TempDir()
	first, err := New(dir, time.Minute, zaptest.NewLogger(t))
	require.NoError(t, err)
	second, err := New(dir, time.Minute, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, first.Lock())
	assert.ErrorIs(t, second.Lock(), ErrLocked)

	require.NoError(t, first.Unlock())
	require.NoError(t, second.Lock())
	require.NoError(t, second.Unlock())
}
