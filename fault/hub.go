// Package fault 提供进程级的故障通道：未处理的同步 panic 与后台任务中无人观察的失败。
//
// 订阅者通过 Subscribe 获得一个 Subscription 句柄，调用 Unsubscribe 即可撤销。
// 事件在发布方的 goroutine 上同步分发，处理函数返回后发布方才继续（例如重新 panic）。
package fault

import (
	"sync"
	"time"
)

// Channel 标识一类故障来源
type Channel uint8

const (
	// Unhandled 逃逸出所有调用栈的同步 panic
	Unhandled Channel = iota + 1
	// Background 后台任务中无人观察的失败（panic 或返回的 error）
	Background
)

func (c Channel) String() string {
	switch c {
	case Unhandled:
		return "unhandled"
	case Background:
		return "background"
	default:
		return "unknown"
	}
}

// Event 一次故障投递
type Event struct {
	Channel Channel
	Err     error  // Background 通道上总是 *TaskError
	Stack   []byte // 故障 goroutine 的调用栈，可能为空
	At      time.Time
}

// Handler 处理故障事件，必须自行保证不 panic
type Handler func(Event)

// Hub 故障通道的订阅表，并发安全
type Hub struct {
	mu   sync.RWMutex
	next uint64
	subs map[Channel]map[uint64]Handler
}

var process = NewHub()

// Process 返回进程级的 Hub
func Process() *Hub { return process }

// NewHub 创建独立的 Hub（测试或嵌入场景）
func NewHub() *Hub {
	return &Hub{subs: make(map[Channel]map[uint64]Handler)}
}

// Subscription 订阅句柄
type Subscription struct {
	hub     *Hub
	channel Channel
	id      uint64
	once    sync.Once
}

// Subscribe 在指定通道上注册处理函数
func (h *Hub) Subscribe(ch Channel, handler Handler) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	if h.subs[ch] == nil {
		h.subs[ch] = make(map[uint64]Handler)
	}
	h.subs[ch][h.next] = handler
	return &Subscription{hub: h, channel: ch, id: h.next}
}

// Unsubscribe 撤销订阅，可重复调用
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		delete(s.hub.subs[s.channel], s.id)
	})
}

// Channel 返回订阅所在的通道
func (s *Subscription) Channel() Channel { return s.channel }

// Publish 同步分发事件，返回被调用的处理函数数量
func (h *Hub) Publish(ev Event) int {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	h.mu.RLock()
	handlers := make([]Handler, 0, len(h.subs[ev.Channel]))
	for _, fn := range h.subs[ev.Channel] {
		handlers = append(handlers, fn)
	}
	h.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
	return len(handlers)
}

// Subscribers 返回某通道当前的订阅数
func (h *Hub) Subscribers(ch Channel) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[ch])
}
