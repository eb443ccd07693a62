package core_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iuboy/sessionlog/core"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local)

func newWriter(t *testing.T, sessionPath string, backend core.Disposer) (*core.CrashWriter, string, *bytes.Buffer) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "Crash")
	diag := &bytes.Buffer{}
	w := core.NewCrashWriter(core.CrashWriterOptions{
		Directory:   dir,
		SessionPath: sessionPath,
		SessionID:   "0d6c3a0e-session",
		Backend:     backend,
		Diagnostic:  diag,
		Now:         func() time.Time { return fixedNow },
	})
	return w, dir, diag
}

func TestCaptureWithoutException(t *testing.T) {
	sessionPath := filepath.Join(t.TempDir(), "session.log")
	require.NoError(t, os.WriteFile(sessionPath, []byte("one\ntwo\nthree\n"), 0644))

	w, dir, diag := newWriter(t, sessionPath, nil)
	path := w.Capture(core.Report{Message: "disk write failed"})

	require.Equal(t, filepath.Join(dir, "crash_2026-03-14_09-26-53.log"), path)
	content := readFile(t, path)

	assert.True(t, strings.HasPrefix(content, core.SessionSectionHeader+"\none\ntwo\nthree\n"))
	assert.Contains(t, content, core.CrashSectionHeader+"\nMessage: disk write failed\n")
	assert.NotContains(t, content, "Reason:")
	assert.Contains(t, content, "Session: 0d6c3a0e-session\n")
	assert.Contains(t, content, "Date: "+fixedNow.Format(core.DateLayout)+"\n")
	assert.Contains(t, content, "Exception:\n"+core.NoExceptionMarker+"\n")
	assert.Contains(t, content, core.ProcessSectionHeader+"\nPID: ")

	assert.Less(t, strings.Index(content, core.SessionSectionHeader), strings.Index(content, core.CrashSectionHeader))
	assert.Less(t, strings.Index(content, core.CrashSectionHeader), strings.Index(content, core.ProcessSectionHeader))
	assert.Empty(t, diag.String())
}

func TestCaptureIncludesStackTrace(t *testing.T) {
	w, _, _ := newWriter(t, "", nil)
	err := errors.Wrap(errors.New("short write"), "flush segment")

	content := readFile(t, w.Capture(core.Report{Err: err, Message: "flush failed"}))

	assert.Contains(t, content, "flush segment: short write")
	assert.Contains(t, content, fmt.Sprintf("%+v", err))
	assert.Contains(t, content, "TestCaptureIncludesStackTrace")
	assert.NotContains(t, content, core.SessionSectionHeader)
}

func TestCaptureReasonLine(t *testing.T) {
	w, _, _ := newWriter(t, "", nil)
	content := readFile(t, w.Capture(core.Report{
		Reason:  core.ReasonBackground,
		Message: "queue consumer stopped",
		Err:     errors.New("broker gone"),
	}))
	assert.Contains(t, content, "Message: queue consumer stopped\nReason: "+core.ReasonBackground+"\n")
}

func TestCaptureMissingSessionFile(t *testing.T) {
	w, _, diag := newWriter(t, filepath.Join(t.TempDir(), "never-created.log"), nil)
	path := w.Capture(core.Report{Message: "early failure"})

	require.NotEmpty(t, path)
	content := readFile(t, path)
	assert.True(t, strings.HasPrefix(content, core.CrashSectionHeader))
	assert.Empty(t, diag.String())
}

func TestCaptureConcatenatesRotatedSegments(t *testing.T) {
	dir := t.TempDir()
	sessionPath := filepath.Join(dir, "session.log")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "session-2026-03-14T09-00-00.000.log"), []byte("one\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "session-2026-03-14T09-10-00.000.log"), []byte("two\n"), 0644))
	require.NoError(t, os.WriteFile(sessionPath, []byte("three\n"), 0644))

	w, _, diag := newWriter(t, sessionPath, nil)
	content := readFile(t, w.Capture(core.Report{Message: "x"}))

	assert.True(t, strings.HasPrefix(content, core.SessionSectionHeader+"\none\ntwo\nthree\n\n\n"+core.CrashSectionHeader))
	assert.Equal(t, 1, strings.Count(content, core.SessionSectionHeader))
	assert.Empty(t, diag.String())
}

// flushOnDispose 模拟缓冲后端：Dispose 时才把内容写到会话文件
type flushOnDispose struct {
	path     string
	disposed int
}

func (f *flushOnDispose) Dispose() error {
	f.disposed++
	return os.WriteFile(f.path, []byte("flushed at dispose\n"), 0644)
}

func TestCaptureDisposesBeforeReading(t *testing.T) {
	sessionPath := filepath.Join(t.TempDir(), "session.log")
	backend := &flushOnDispose{path: sessionPath}

	w, _, _ := newWriter(t, sessionPath, backend)
	content := readFile(t, w.Capture(core.Report{Message: "x"}))

	assert.Equal(t, 1, backend.disposed)
	assert.Contains(t, content, core.SessionSectionHeader+"\nflushed at dispose\n")
}

func TestCaptureFlushesBufferedSession(t *testing.T) {
	opts := fileOnly(t)
	s := openSession(t, opts, nil)
	for i := 0; i < 50; i++ {
		s.Log(zap.InfoLevel, fmt.Sprintf("entry %02d", i))
	}

	w := core.NewCrashWriter(core.CrashWriterOptions{
		Directory:   opts.CrashLogsDirectory,
		SessionPath: s.Path(),
		Backend:     s,
		Diagnostic:  opts.DiagnosticOutput,
	})
	content := readFile(t, w.Capture(core.Report{Message: "x"}))

	assert.Equal(t, core.StateClosed, s.State())
	assert.Equal(t, 50, strings.Count(content, "\tINFO\t"))
	assert.Contains(t, content, "entry 49")
}

func TestCaptureSameSecondCollision(t *testing.T) {
	w, dir, _ := newWriter(t, "", nil)

	first := w.Capture(core.Report{Message: "first"})
	second := w.Capture(core.Report{Message: "second"})
	third := w.Capture(core.Report{Message: "third"})

	assert.Equal(t, filepath.Join(dir, "crash_2026-03-14_09-26-53.log"), first)
	assert.Equal(t, filepath.Join(dir, "crash_2026-03-14_09-26-53_1.log"), second)
	assert.Equal(t, filepath.Join(dir, "crash_2026-03-14_09-26-53_2.log"), third)
	assert.Contains(t, readFile(t, first), "Message: first")
	assert.Contains(t, readFile(t, second), "Message: second")
}

func TestConcurrentCapturesProduceDistinctFiles(t *testing.T) {
	sessionPath := filepath.Join(t.TempDir(), "session.log")
	require.NoError(t, os.WriteFile(sessionPath, []byte("shared\n"), 0644))
	w, dir, _ := newWriter(t, sessionPath, nil)

	const n = 8
	var wg sync.WaitGroup
	paths := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			paths[i] = w.Capture(core.Report{Message: fmt.Sprintf("fault %d", i)})
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i, p := range paths {
		require.NotEmpty(t, p)
		assert.False(t, seen[p], "duplicate crash log %s", p)
		seen[p] = true

		content := readFile(t, p)
		assert.Contains(t, content, fmt.Sprintf("Message: fault %d\n", i))
		assert.Contains(t, content, "shared\n")
		assert.Contains(t, content, core.ProcessSectionHeader)
	}
	assert.Len(t, crashFiles(t, dir), n)
}

func TestCaptureFailureIsReportedNotRaised(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	diag := &bytes.Buffer{}
	w := core.NewCrashWriter(core.CrashWriterOptions{Directory: blocker, Diagnostic: diag})

	var path string
	assert.NotPanics(t, func() { path = w.Capture(core.Report{Message: "x"}) })
	assert.Empty(t, path)
	assert.Contains(t, diag.String(), "sessionlog: failed to create crash log:")
}

type panickyBackend struct{}

func (panickyBackend) Dispose() error { panic("backend exploded") }

func TestCaptureRecoversInternalPanic(t *testing.T) {
	w, _, diag := newWriter(t, "", panickyBackend{})

	var path string
	assert.NotPanics(t, func() { path = w.Capture(core.Report{Message: "x"}) })
	assert.Empty(t, path)
	assert.Contains(t, diag.String(), "backend exploded")
}

func TestCrashFileName(t *testing.T) {
	assert.Equal(t, "crash_2026-03-14_09-26-53.log", core.CrashFileName("2026-03-14_09-26-53", 0))
	assert.Equal(t, "crash_2026-03-14_09-26-53_4.log", core.CrashFileName("2026-03-14_09-26-53", 4))
}
