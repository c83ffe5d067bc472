package events

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/ghuser/ghshop/pkg/logger"
)

type stockChanged struct {
	ItemID string `json:"item_id"`
	Delta  int    `json:"delta"`
}

func countingHandler(failures int, err error) (Handler, *int) {
	calls := 0
	return func(context.Context, *message.Message) error {
		calls++
		if calls <= failures {
			return err
		}
		return nil
	}, &calls
}

func TestRetryWithBackoff(t *testing.T) {
	transient := errors.New("connection reset")
	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   bool
	}{
		{"first attempt succeeds", 0, nil, 1, false},
		{"succeeds on last attempt", 2, transient, 3, false},
		{"retries exhausted", 10, transient, 3, true},
		{"permanent error stops at once", 10, Permanent(transient), 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, calls := countingHandler(tt.failures, tt.err)
			err := retryWithBackoff(context.Background(), message.NewMessage("id", nil), h, 3, time.Millisecond, logger.Discard())
			assert.Equal(t, tt.wantCalls, *calls)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, transient)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h, calls := countingHandler(10, errors.New("boom"))
	err := retryWithBackoff(ctx, message.NewMessage("id", nil), h, 3, time.Second, logger.Discard())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, *calls)
}

func TestPermanent(t *testing.T) {
	assert.NoError(t, Permanent(nil))

	cause := errors.New("bad payload")
	wrapped := fmt.Errorf("order.placed: %w", Permanent(cause))
	assert.True(t, IsPermanent(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.False(t, IsPermanent(cause))
}

func TestTyped(t *testing.T) {
	var got stockChanged
	h := Typed(func(_ context.Context, p stockChanged) error {
		got = p
		return nil
	})

	msg, err := NewMessage(context.Background(), "stock.changed", stockChanged{ItemID: "book-1", Delta: -2})
	require.NoError(t, err)
	require.NoError(t, h(context.Background(), msg))
	assert.Equal(t, stockChanged{ItemID: "book-1", Delta: -2}, got)
	assert.Equal(t, "stock.changed", msg.Metadata.Get(MetadataTopic))

	err = h(context.Background(), message.NewMessage("broken", []byte("{not json")))
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
}

func TestStartForwarder_Disabled(t *testing.T) {
	bus := &EventBus{}
	require.Error(t, bus.StartForwarder(context.Background()))
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{ConsumerGroup: "shop-worker"}.withDefaults()
	assert.Equal(t, defaultMaxRetries, opts.MaxRetries)
	assert.Equal(t, defaultRetryDelay, opts.RetryDelay)
	assert.Equal(t, "shop-worker", opts.ConsumerGroup)

	opts = Options{MaxRetries: 5, RetryDelay: time.Millisecond}.withDefaults()
	assert.Equal(t, 5, opts.MaxRetries)
	assert.Equal(t, time.Millisecond, opts.RetryDelay)
}

func TestTracePropagation(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := otel.Tracer("test").Start(context.Background(), "place-order")
	defer span.End()

	msg, err := NewMessage(ctx, "order.placed", stockChanged{ItemID: "x"})
	require.NoError(t, err)

	got := trace.SpanFromContext(contextFromMessage(context.Background(), msg))
	require.True(t, got.SpanContext().IsValid())
	assert.Equal(t, span.SpanContext().TraceID(), got.SpanContext().TraceID())
}
