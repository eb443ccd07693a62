package core

import (
	"fmt"
	"io"
	"time"

	"github.com/iuboy/sessionlog/fault"
	"github.com/pkg/errors"
)

// 故障原因
const (
	ReasonUnhandled  = "unhandled synchronous exception"
	ReasonBackground = "unobserved background-task exception"
)

// 崩溃日志的文本格式
const (
	SessionSectionHeader = "=== Session Log ==="
	CrashSectionHeader   = "=== Crash Reason ==="
	ProcessSectionHeader = "=== Process ==="
	NoExceptionMarker    = "No exception was supplied."
	DateLayout           = "2006-01-02 15:04:05.000 -07:00"
)

// Report 一次故障的描述，只用于生成崩溃日志文本
type Report struct {
	Reason     string
	Err        error
	Stack      []byte
	Message    string
	CapturedAt time.Time
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// HasStackTrace 判断错误链上是否带有 pkg/errors 记录的调用栈
func HasStackTrace(err error) bool {
	for err != nil {
		if _, ok := err.(stackTracer); ok {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// writeCrashReason 写入崩溃原因段
func writeCrashReason(w io.Writer, r Report, sessionID string) {
	fmt.Fprintln(w, CrashSectionHeader)
	fmt.Fprintf(w, "Message: %s\n", r.Message)
	if r.Reason != "" && r.Reason != r.Message {
		fmt.Fprintf(w, "Reason: %s\n", r.Reason)
	}
	if sessionID != "" {
		fmt.Fprintf(w, "Session: %s\n", sessionID)
	}
	fmt.Fprintf(w, "Date: %s\n", r.CapturedAt.Local().Format(DateLayout))
	fmt.Fprintln(w, "Exception:")
	if r.Err == nil {
		fmt.Fprintln(w, NoExceptionMarker)
		return
	}
	fmt.Fprintln(w, FormatFault(r.Err, r.Stack))
}

// FormatFault 返回故障的完整文本：类型、消息、调用栈
func FormatFault(err error, stack []byte) string {
	if err == nil {
		return NoExceptionMarker
	}
	text := fmt.Sprintf("%s: %s", typeName(err), err.Error())
	if HasStackTrace(err) {
		text += "\n" + fmt.Sprintf("%+v", err)
	}
	if len(stack) > 0 {
		text += "\nStack:\n" + string(stack)
	}
	return text
}

func typeName(err error) string {
	if pe, ok := err.(*fault.PanicError); ok {
		return fmt.Sprintf("panic(%T)", pe.Value)
	}
	return fmt.Sprintf("%T", err)
}
