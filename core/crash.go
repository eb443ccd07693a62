package core

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	crashFilePrefix    = "crash_"
	crashFileExt       = ".log"
	crashFileTimestamp = "2006-01-02_15-04-05"
	maxCrashSuffix     = 1000
)

// Disposer 崩溃捕获前需要关闭的后端
type Disposer interface {
	Dispose() error
}

// CrashWriter 崩溃捕获单元：关闭后端、读回会话日志、写出带时间戳的崩溃日志。
// Capture 之间互斥；任何内部失败只记录到诊断输出，不向调用方传播。
type CrashWriter struct {
	mu sync.Mutex

	dir         string
	sessionPath string
	sessionID   string
	backend     Disposer
	metrics     *Metrics
	diag        io.Writer

	// 测试中可替换
	now func() time.Time
}

// CrashWriterOptions 构造 CrashWriter 的参数
type CrashWriterOptions struct {
	Directory   string
	SessionPath string
	SessionID   string
	Backend     Disposer
	Metrics     *Metrics
	Diagnostic  io.Writer
	Now         func() time.Time
}

func NewCrashWriter(o CrashWriterOptions) *CrashWriter {
	w := &CrashWriter{
		dir:         o.Directory,
		sessionPath: o.SessionPath,
		sessionID:   o.SessionID,
		backend:     o.Backend,
		metrics:     o.Metrics,
		diag:        o.Diagnostic,
		now:         o.Now,
	}
	if w.diag == nil {
		w.diag = os.Stderr
	}
	if w.now == nil {
		w.now = time.Now
	}
	return w
}

// Capture 写出一份崩溃日志并返回其路径；失败时返回空字符串
func (w *CrashWriter) Capture(r Report) (path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	defer func() {
		if rec := recover(); rec != nil {
			w.note(fmt.Errorf("panic during crash capture: %v", rec))
			w.metrics.failed()
			path = ""
		}
	}()

	if r.CapturedAt.IsZero() {
		r.CapturedAt = w.now()
	}

	path, err := w.capture(r)
	if err != nil {
		w.note(err)
		w.metrics.failed()
		return ""
	}
	w.metrics.captured(r.Reason)
	return path
}

func (w *CrashWriter) capture(r Report) (string, error) {
	// 先关闭后端：Dispose 返回后会话文件完整且稳定，之后才能读取
	if w.backend != nil {
		if err := w.backend.Dispose(); err != nil {
			// 关闭失败时会话文件可能不完整，但仍然尽量写出崩溃日志
			w.note(fmt.Errorf("dispose session backend: %w", err))
		}
	}

	f, path, err := w.create(r.CapturedAt)
	if err != nil {
		return "", err
	}

	bw := bufio.NewWriter(f)
	if err := w.copySession(bw); err != nil {
		w.note(err)
	}
	writeCrashReason(bw, r, w.sessionID)
	fmt.Fprintln(bw)
	writeProcessSection(bw)

	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return path, fmt.Errorf("write crash log %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return path, fmt.Errorf("sync crash log %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return path, fmt.Errorf("close crash log %s: %w", path, err)
	}
	return path, nil
}

// create 以 O_EXCL 创建崩溃日志；同一秒内重名时追加 _1、_2 ... 后缀
func (w *CrashWriter) create(at time.Time) (*os.File, string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return nil, "", fmt.Errorf("create crash directory: %w", err)
	}
	stamp := at.Local().Format(crashFileTimestamp)
	for i := 0; i < maxCrashSuffix; i++ {
		path := filepath.Join(w.dir, CrashFileName(stamp, i))
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("create crash log: %w", err)
		}
	}
	return nil, "", fmt.Errorf("create crash log: too many crash logs for %s", stamp)
}

// CrashFileName crash_<时间戳>.log，n > 0 时追加序号
func CrashFileName(stamp string, n int) string {
	if n == 0 {
		return crashFilePrefix + stamp + crashFileExt
	}
	return fmt.Sprintf("%s%s_%d%s", crashFilePrefix, stamp, n, crashFileExt)
}

// copySession 按顺序原样复制会话日志的全部分段（轮转备份在前）；没有任何分段时跳过该段
func (w *CrashWriter) copySession(dst io.Writer) error {
	segments, err := SessionSegments(w.sessionPath)
	if err != nil {
		return fmt.Errorf("list session log: %w", err)
	}
	if len(segments) == 0 {
		return nil
	}

	fmt.Fprintln(dst, SessionSectionHeader)
	var errs []error
	for _, p := range segments {
		if err := copyFile(dst, p); err != nil {
			errs = append(errs, err)
		}
	}
	fmt.Fprintln(dst)
	fmt.Fprintln(dst)
	return errors.Join(errs...)
}

func copyFile(dst io.Writer, path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read session log: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(dst, f); err != nil {
		return fmt.Errorf("read session log %s: %w", path, err)
	}
	return nil
}

// note 诊断旁路：内部失败只记一行，不影响调用方
func (w *CrashWriter) note(err error) {
	fmt.Fprintf(w.diag, "sessionlog: failed to create crash log: %v\n", err)
}
