package core

import (
	"sync"

	"github.com/iuboy/sessionlog/fault"
)

// CaptureFunc 接收拦截到的故障
type CaptureFunc func(Report)

// Interceptor 在两个进程级故障通道上的订阅；只持有订阅，不持有后端资源
type Interceptor struct {
	mu   sync.Mutex
	subs []*fault.Subscription
}

// Intercept 订阅 Unhandled 与 Background 两个通道，并把故障转交给 capture
func Intercept(hub *fault.Hub, capture CaptureFunc) *Interceptor {
	if hub == nil {
		hub = fault.Process()
	}
	i := &Interceptor{}
	i.subs = append(i.subs,
		hub.Subscribe(fault.Unhandled, func(ev fault.Event) {
			capture(Report{
				Reason:     ReasonUnhandled,
				Message:    ReasonUnhandled,
				Err:        ev.Err,
				Stack:      ev.Stack,
				CapturedAt: ev.At,
			})
		}),
		hub.Subscribe(fault.Background, func(ev fault.Event) {
			// 后台故障带一层 TaskError 包装，报告其内层的具体原因
			capture(Report{
				Reason:     ReasonBackground,
				Message:    ReasonBackground,
				Err:        fault.Cause(ev.Err),
				Stack:      ev.Stack,
				CapturedAt: ev.At,
			})
		}),
	)
	return i
}

// Unregister 撤销两个订阅，可重复调用
func (i *Interceptor) Unregister() {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, s := range i.subs {
		s.Unsubscribe()
	}
	i.subs = nil
}

// Active 是否仍持有订阅
func (i *Interceptor) Active() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.subs) > 0
}
