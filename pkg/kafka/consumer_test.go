package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu        sync.Mutex
	msgs      chan kafka.Message
	committed []int64
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	r := &fakeReader{msgs: make(chan kafka.Message, len(msgs))}
	for _, m := range msgs {
		r.msgs <- m
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func (w *fakeWriter) written() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.msgs...)
}

type funcHandler struct {
	topic string
	mu    sync.Mutex
	calls int
	fn    func(call int, data []byte) error
}

func (h *funcHandler) Topic() string { return h.topic }

func (h *funcHandler) Handle(_ context.Context, data []byte) error {
	h.mu.Lock()
	h.calls++
	call := h.calls
	h.mu.Unlock()
	return h.fn(call, data)
}

func (h *funcHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

func testConsumer(retries int) *Consumer {
	return newConsumer(&ConsumerConfig{
		GroupID:     "test",
		WorkerCount: 2,
		BufferSize:  4,
		RetryMax:    retries,
		BackoffMin:  time.Millisecond,
		BackoffMax:  2 * time.Millisecond,
		DLQTopic:    "snapshots.dlq",
	}, nil)
}

func TestProcessRetriesThenSucceeds(t *testing.T) {
	c := testConsumer(3)
	reader := newFakeReader()
	c.readers["snapshots"] = reader
	h := &funcHandler{topic: "snapshots", fn: func(call int, _ []byte) error {
		if call < 3 {
			return errors.New("transient")
		}
		return nil
	}}
	c.RegisterHandler(h)

	c.process(kafka.Message{Topic: "snapshots", Offset: 7, Value: []byte(`{}`)})

	assert.Equal(t, 3, h.count())
	assert.Equal(t, []int64{7}, reader.commits())
}

func TestProcessDeadLettersAfterRetries(t *testing.T) {
	c := testConsumer(2)
	reader := newFakeReader()
	dlq := &fakeWriter{}
	c.readers["snapshots"] = reader
	c.dlq = dlq
	h := &funcHandler{topic: "snapshots", fn: func(int, []byte) error { return errors.New("always") }}
	c.RegisterHandler(h)

	c.process(kafka.Message{Topic: "snapshots", Offset: 3, Key: []byte("k"), Value: []byte("bad")})

	assert.Equal(t, 3, h.count(), "first attempt plus two retries")
	written := dlq.written()
	require.Len(t, written, 1)
	assert.Equal(t, "snapshots.dlq", written[0].Topic)
	assert.Equal(t, []byte("bad"), written[0].Value)
	assert.Equal(t, "source_topic", written[0].Headers[0].Key)
	assert.Equal(t, []int64{3}, reader.commits())
}

func TestProcessPermanentErrorSkipsRetries(t *testing.T) {
	c := testConsumer(5)
	reader := newFakeReader()
	c.readers["snapshots"] = reader
	c.dlq = &fakeWriter{}
	h := &funcHandler{topic: "snapshots", fn: func(int, []byte) error {
		return fmt.Errorf("decode: %w", ErrPermanent)
	}}
	c.RegisterHandler(h)

	c.process(kafka.Message{Topic: "snapshots", Offset: 1})

	assert.Equal(t, 1, h.count())
	assert.Equal(t, []int64{1}, reader.commits())
}

func TestProcessWithoutDLQLeavesFailureUncommitted(t *testing.T) {
	c := testConsumer(0)
	reader := newFakeReader()
	c.readers["snapshots"] = reader
	c.RegisterHandler(&funcHandler{topic: "snapshots", fn: func(int, []byte) error { return errors.New("x") }})

	c.process(kafka.Message{Topic: "snapshots", Offset: 9})

	assert.Empty(t, reader.commits())
}

func TestProcessRecoversHandlerPanic(t *testing.T) {
	c := testConsumer(0)
	reader := newFakeReader()
	dlq := &fakeWriter{}
	c.readers["snapshots"] = reader
	c.dlq = dlq
	c.RegisterHandler(&funcHandler{topic: "snapshots", fn: func(int, []byte) error { panic("boom") }})

	assert.NotPanics(t, func() { c.process(kafka.Message{Topic: "snapshots", Offset: 2}) })
	require.Len(t, dlq.written(), 1)
}

func TestStartStopDrainsMessages(t *testing.T) {
	c := testConsumer(0)
	reader := newFakeReader(
		kafka.Message{Topic: "snapshots", Partition: 0, Offset: 1},
		kafka.Message{Topic: "snapshots", Partition: 1, Offset: 2},
		kafka.Message{Topic: "snapshots", Partition: 0, Offset: 3},
	)
	c.newReader = func(string) Reader { return reader }
	h := &funcHandler{topic: "snapshots", fn: func(int, []byte) error { return nil }}
	c.RegisterHandler(h)

	require.NoError(t, c.Start())
	require.Eventually(t, func() bool { return len(reader.commits()) == 3 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Stop(ctx))
	assert.Equal(t, 3, h.count())
}

func TestPartitionCommitsInOffsetOrder(t *testing.T) {
	c := testConsumer(0)
	msg := func(partition int, offset int64) kafka.Message {
		return kafka.Message{Topic: "snapshots", Partition: partition, Offset: offset, Value: []byte(fmt.Sprint(offset))}
	}
	reader := newFakeReader(
		msg(0, 4), msg(0, 5), msg(1, 100), msg(0, 6), msg(1, 101),
	)
	c.newReader = func(string) Reader { return reader }
	c.RegisterHandler(&funcHandler{topic: "snapshots", fn: func(_ int, data []byte) error {
		if string(data) == "4" {
			time.Sleep(30 * time.Millisecond)
		}
		return nil
	}})

	require.NoError(t, c.Start())
	require.Eventually(t, func() bool { return len(reader.commits()) == 5 }, 2*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Stop(ctx))

	var p0, p1 []int64
	for _, off := range reader.commits() {
		if off >= 100 {
			p1 = append(p1, off)
		} else {
			p0 = append(p0, off)
		}
	}
	assert.Equal(t, []int64{4, 5, 6}, p0)
	assert.Equal(t, []int64{100, 101}, p1)
}

func TestShardIsStablePerPartition(t *testing.T) {
	c := testConsumer(0)
	for p := 0; p < 16; p++ {
		s := c.shard("snapshots", p)
		assert.GreaterOrEqual(t, s, 0)
		assert.Less(t, s, 2)
		assert.Equal(t, s, c.shard("snapshots", p))
	}
}

func TestStartRequiresHandlers(t *testing.T) {
	assert.Error(t, testConsumer(0).Start())
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt < 40; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 100*time.Millisecond, attempt)
		assert.LessOrEqual(t, d, 100*time.Millisecond)
		assert.Greater(t, d, time.Duration(0))
	}
}

func TestChainHooksOrder(t *testing.T) {
	var order []string
	mk := func(name string) ConsumerHook {
		return HookFuncs{
			Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
				order = append(order, "before-"+name)
				return ctx, km, data, nil
			},
			After: func(context.Context, string, kafka.Message, []byte, error) {
				order = append(order, "after-"+name)
			},
		}
	}
	chain := ChainHooks(mk("a"), nil, mk("b"))
	ctx, km, data, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	require.NoError(t, err)
	chain.AfterHandle(ctx, "t", km, data, nil)

	assert.Equal(t, []string{"before-a", "before-b", "after-b", "after-a"}, order)
}

func TestTraceIDHook(t *testing.T) {
	msg := kafka.Message{Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc")}}}
	ctx, _, _, err := TraceIDHook().BeforeHandle(context.Background(), "t", msg, nil)
	require.NoError(t, err)
	assert.Equal(t, "abc", TraceIDFrom(ctx))
	assert.Equal(t, "", TraceIDFrom(context.Background()))
}
