package core

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/process"
)

// writeProcessSection 记录崩溃时的进程状态，单项采集失败时跳过该项
func writeProcessSection(w io.Writer) {
	pid := os.Getpid()
	fmt.Fprintln(w, ProcessSectionHeader)
	fmt.Fprintf(w, "PID: %d\n", pid)
	fmt.Fprintf(w, "Go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(w, "Goroutines: %d\n", runtime.NumGoroutine())

	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return
	}
	if mem, err := p.MemoryInfo(); err == nil && mem != nil {
		fmt.Fprintf(w, "RSS: %d\n", mem.RSS)
		fmt.Fprintf(w, "VMS: %d\n", mem.VMS)
	}
	if n, err := p.NumThreads(); err == nil {
		fmt.Fprintf(w, "Threads: %d\n", n)
	}
}
