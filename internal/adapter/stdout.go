package adapter

import (
	"io"
	"os"
	"sync"

	"github.com/iuboy/sessionlog/core"
)

// streamAdapter 写入进程的标准流；Close 只刷新，不关闭 os.Stdout/os.Stderr
type streamAdapter struct {
	mu sync.Mutex
	w  *os.File
}

func newStdoutAdapter() (core.WriteSyncer, error) {
	return newStreamAdapter(os.Stdout)
}

// newDebugAdapter 调试流输出到 stderr
func newDebugAdapter() (core.WriteSyncer, error) {
	return newStreamAdapter(os.Stderr)
}

func newStreamAdapter(f *os.File) (core.WriteSyncer, error) {
	if f == nil {
		return nil, os.ErrInvalid
	}
	return &streamAdapter{w: f}, nil
}

func (s *streamAdapter) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *streamAdapter) Sync() error {
	// 终端和管道不支持 fsync，忽略该错误
	_ = s.w.Sync()
	return nil
}

func (s *streamAdapter) Close() error {
	return s.Sync()
}

var _ io.Closer = (*streamAdapter)(nil)
