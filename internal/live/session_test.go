package live

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lk2023060901/live-garden-go/pkg/util/merr"
)

func TestSessionEmitAndStop(t *testing.T) {
	s, _ := NewSession(context.Background(), Bilibili, "92613")

	s.Emit(&DanmakuEvent{
		Platform: Bilibili,
		RoomID:   "92613",
		Method:   MethodChatMessage,
		User:     "tester",
		Text:     "hello",
	})

	select {
	case ev := <-s.Events():
		assert.Equal(t, MethodChatMessage, ev.Method)
		assert.Equal(t, "hello", ev.Text)
		assert.NotZero(t, ev.ReceivedAt)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	assert.NoError(t, s.Stop())

	// 通道在 Stop 后关闭。
	_, open := <-s.Events()
	assert.False(t, open)
}

func TestSessionStopTwice(t *testing.T) {
	s, _ := NewSession(context.Background(), Douyu, "9999")
	assert.NoError(t, s.Stop())
	assert.ErrorIs(t, s.Stop(), merr.ErrSessionStopped)
}

func TestSessionProducerNeverBlocks(t *testing.T) {
	// 无消费者时连续推送也不能阻塞生产侧。
	s, _ := NewSession(context.Background(), Huya, "kaerlol")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			s.EmitStatus("tick")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer blocked")
	}
	assert.NoError(t, s.Stop())
}

func TestSessionTaskJoinedOnStop(t *testing.T) {
	s, ctx := NewSession(context.Background(), Douyu, "9999")

	exited := make(chan struct{})
	s.Go("read-loop", func() error {
		<-ctx.Done()
		close(exited)
		return ctx.Err()
	})

	assert.NoError(t, s.Stop())
	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("task not joined")
	}
}

func TestSessionEmitError(t *testing.T) {
	s, _ := NewSession(context.Background(), Bilibili, "92613")
	s.EmitError(assertErr{})

	ev := <-s.Events()
	assert.Equal(t, MethodConnectionStatus, ev.Method)
	assert.Contains(t, ev.Text, "connection error")
	assert.NoError(t, s.Stop())
}

type assertErr struct{}

func (assertErr) Error() string { return "read: connection reset" }
