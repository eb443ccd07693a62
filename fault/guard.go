package fault

import (
	"runtime/debug"

	"github.com/sourcegraph/conc/panics"
)

// Guard 用于 defer：捕获 panic，投递到进程级 Unhandled 通道后重新 panic。
//
//	func main() {
//	    defer fault.Guard()
//	    ...
//	}
func Guard() {
	if r := recover(); r != nil {
		process.Escalate(r, debug.Stack())
	}
}

// Escalate 把已 recover 的 panic 值投递到 Unhandled 通道，然后以原值重新 panic。
// recover() 必须由被 defer 的函数直接调用，因此各入口自行 recover 后再调用本函数。
func (h *Hub) Escalate(recovered any, stack []byte) {
	h.Publish(Event{Channel: Unhandled, Err: AsError(recovered), Stack: stack})
	panic(recovered)
}

// Go 在进程级 Hub 上启动后台任务
func Go(fn func() error) <-chan struct{} { return process.Go(fn) }

// Go 启动一个无人等待结果的后台任务。任务 panic 或返回非 nil error 时，
// 失败被包装为 *TaskError 投递到 Background 通道。
// 返回的通道在任务结束且故障投递完成后关闭。
func (h *Hub) Go(fn func() error) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.run(fn)
	}()
	return done
}

func (h *Hub) run(fn func() error) {
	var (
		pc  panics.Catcher
		err error
	)
	pc.Try(func() { err = fn() })

	if r := pc.Recovered(); r != nil {
		h.Publish(Event{
			Channel: Background,
			Err:     &TaskError{Err: AsError(r.Value), Stack: r.Stack, Panicked: true},
			Stack:   r.Stack,
		})
		return
	}
	if err != nil {
		h.Publish(Event{Channel: Background, Err: &TaskError{Err: err}})
	}
}
