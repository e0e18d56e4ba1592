package realtime

import (
	"sync"
)

// Subscription 一次订阅的显式句柄。持有者负责在所有退出路径上调用 Close，
// 订阅期间丢失的事件不做缓冲，由下一次全量拉取兜底。
type Subscription struct {
	events  chan *Event
	closed  chan struct{}
	once    sync.Once
	closeFn func() error
}

// NewSubscription 供 Channel 实现方构造句柄，closeFn 在首次 Close 时执行
func NewSubscription(buffer int, closeFn func() error) *Subscription {
	return &Subscription{
		events:  make(chan *Event, buffer),
		closed:  make(chan struct{}),
		closeFn: closeFn,
	}
}

// Events 只读事件流，订阅关闭后通道关闭
func (s *Subscription) Events() <-chan *Event {
	return s.events
}

// Close 幂等释放订阅
func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.closed)
		if s.closeFn != nil {
			err = s.closeFn()
		}
	})
	return err
}

// Deliver 投递事件；订阅已关闭或消费过慢时丢弃并返回 false，
// 丢失由订阅方的全量拉取兜底
func (s *Subscription) Deliver(ev *Event) bool {
	select {
	case <-s.closed:
		return false
	default:
	}

	select {
	case s.events <- ev:
		return true
	case <-s.closed:
		return false
	default:
		return false
	}
}

// Done 订阅关闭信号
func (s *Subscription) Done() <-chan struct{} {
	return s.closed
}
