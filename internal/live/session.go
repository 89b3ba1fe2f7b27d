package live

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/lk2023060901/live-garden-go/pkg/log"
	"github.com/lk2023060901/live-garden-go/pkg/metrics"
	"github.com/lk2023060901/live-garden-go/pkg/util/conc"
	"github.com/lk2023060901/live-garden-go/pkg/util/merr"
)

// Session 为一条弹幕会话的句柄。
//
// 事件通过 Events 返回的通道推送；内部队列无界，生产侧永不阻塞，
// 消费慢只会让队列增长。Stop 只能调用一次，负责取消全部后台任务
// 并等待它们退出，之后关闭事件通道。
type Session struct {
	platform Platform
	roomID   string

	cancel context.CancelFunc
	out    chan *DanmakuEvent
	queue  *eventQueue

	mu    sync.Mutex
	tasks []*conc.Future[struct{}]

	stopped *atomic.Bool
	logger  *log.MLogger
}

// NewSession 创建会话并启动事件泵。
// 返回的 context 由 Stop 取消，平台实现的所有后台任务都应挂在其上。
func NewSession(ctx context.Context, p Platform, roomID string) (*Session, context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		platform: p,
		roomID:   roomID,
		cancel:   cancel,
		out:      make(chan *DanmakuEvent),
		queue:    newEventQueue(),
		stopped:  atomic.NewBool(false),
		logger: log.Ctx(ctx).With(
			zap.String("platform", string(p)),
			zap.String("room", roomID),
		),
	}
	metrics.ActiveSessions.WithLabelValues(string(p)).Inc()
	s.Go("event-pump", func() error { return s.pump(ctx) })
	return s, ctx
}

// Platform 返回会话所属平台。
func (s *Session) Platform() Platform { return s.platform }

// RoomID 返回会话的房间号。
func (s *Session) RoomID() string { return s.roomID }

// Logger 返回绑定了会话字段的日志器。
func (s *Session) Logger() *log.MLogger { return s.logger }

// Events 返回事件通道。通道在 Stop 完成后关闭。
func (s *Session) Events() <-chan *DanmakuEvent { return s.out }

// Go 启动一个随会话生命周期运行的后台任务。
// 任务返回的错误只记录日志，由 Stop 统一收集。
func (s *Session) Go(name string, fn func() error) {
	future := conc.Go(func() (struct{}, error) {
		err := fn()
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("session task exited", zap.String("task", name), zap.Error(err))
		}
		return struct{}{}, err
	})
	s.mu.Lock()
	s.tasks = append(s.tasks, future)
	s.mu.Unlock()
}

// Emit 推送一条事件。生产侧永不阻塞。
func (s *Session) Emit(ev *DanmakuEvent) {
	if ev.ReceivedAt == 0 {
		ev.ReceivedAt = time.Now().UnixMilli()
	}
	s.queue.push(ev)
	metrics.DanmakuEvents.WithLabelValues(string(s.platform), ev.Method).Inc()
}

// EmitStatus 推送一条连接状态事件。
func (s *Session) EmitStatus(text string) {
	s.Emit(&DanmakuEvent{
		Platform: s.platform,
		RoomID:   s.roomID,
		Method:   MethodConnectionStatus,
		Text:     text,
	})
}

// DropBlocked 记录一条被屏蔽词丢弃的弹幕。
func (s *Session) DropBlocked() {
	metrics.DanmakuDropped.WithLabelValues(string(s.platform), metrics.BlockedLabel).Inc()
}

// DropEmpty 记录一条清洗后为空而丢弃的弹幕。
func (s *Session) DropEmpty() {
	metrics.DanmakuDropped.WithLabelValues(string(s.platform), metrics.EmptyLabel).Inc()
}

// EmitError 将读循环的失败转换为一条尽力而为的错误事件。
// 之后读循环应当结束，会话保持可 Stop 状态但不再自动重连。
func (s *Session) EmitError(err error) {
	s.EmitStatus("connection error: " + err.Error())
}

// pump 把内部队列中的事件搬运到对外通道。
func (s *Session) pump(ctx context.Context) error {
	for {
		ev, ok := s.queue.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return nil
			case <-s.queue.notify:
				continue
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case s.out <- ev:
		}
	}
}

// Stop 终止会话：取消全部后台任务并等待退出，然后关闭事件通道。
// 重复调用返回 ErrSessionStopped。
func (s *Session) Stop() error {
	if !s.stopped.CompareAndSwap(false, true) {
		return merr.WrapErrSessionStopped(string(s.platform), s.roomID)
	}
	s.cancel()

	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()

	err := conc.AwaitAll(tasks...)
	close(s.out)
	metrics.ActiveSessions.WithLabelValues(string(s.platform)).Dec()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// eventQueue 为无界事件队列，push 永不阻塞。
type eventQueue struct {
	mu     sync.Mutex
	items  []*DanmakuEvent
	notify chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{notify: make(chan struct{}, 1)}
}

func (q *eventQueue) push(ev *DanmakuEvent) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *eventQueue) pop() (*DanmakuEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	ev := q.items[0]
	q.items = q.items[1:]
	return ev, true
}

func (q *eventQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
