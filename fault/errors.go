package fault

import (
	"errors"
	"fmt"
)

// TaskError 包装后台任务的失败，相当于一层传输包装；Unwrap 返回原始原因
type TaskError struct {
	Err      error
	Stack    []byte
	Panicked bool
}

func (e *TaskError) Error() string {
	if e.Panicked {
		return fmt.Sprintf("background task panicked: %v", e.Err)
	}
	return fmt.Sprintf("background task failed: %v", e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// PanicError 承载非 error 类型的 panic 值
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprint(e.Value) }

// AsError 把 recover() 得到的值转换为 error
func AsError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return &PanicError{Value: v}
}

// Cause 去掉恰好一层包装；没有内层原因时返回 err 本身
func Cause(err error) error {
	if inner := errors.Unwrap(err); inner != nil {
		return inner
	}
	return err
}
