package console

import (
	"context"
	"sync"
)

// Status 远程数据的加载状态
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// State 某一时刻的切片状态
// 加载失败时保留上一次成功的数据
type State[T any] struct {
	Status Status
	Data   T
	Err    error
}

func (s State[T]) Loading() bool { return s.Status == StatusLoading }
func (s State[T]) Ready() bool   { return s.Status == StatusReady }

// Slice 一份远程数据的本地缓存
// 每次 Load 递增代次，旧请求晚到的结果直接丢弃
type Slice[T any] struct {
	mu     sync.RWMutex
	state  State[T]
	gen    uint64
	subs   map[int]func(State[T])
	nextID int
}

func NewSlice[T any]() *Slice[T] {
	return &Slice[T]{subs: make(map[int]func(State[T]))}
}

// Load 执行 fetch 并写入结果，不附加超时与重试
func (s *Slice[T]) Load(ctx context.Context, fetch func(context.Context) (T, error)) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.state.Status = StatusLoading
	s.state.Err = nil
	s.mu.Unlock()
	s.notify()

	data, err := fetch(ctx)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return err
	}
	if err != nil {
		s.state.Status = StatusFailed
		s.state.Err = err
	} else {
		s.state = State[T]{Status: StatusReady, Data: data}
	}
	s.mu.Unlock()
	s.notify()
	return err
}

// Set 直接写入数据 (例如提交成功后用返回值覆盖)
func (s *Slice[T]) Set(data T) {
	s.mu.Lock()
	s.gen++
	s.state = State[T]{Status: StatusReady, Data: data}
	s.mu.Unlock()
	s.notify()
}

// Snapshot 当前状态
func (s *Slice[T]) Snapshot() State[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe 订阅状态变化，返回取消函数
func (s *Slice[T]) Subscribe(fn func(State[T])) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Slice[T]) notify() {
	s.mu.RLock()
	state := s.state
	fns := make([]func(State[T]), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(state)
	}
}
