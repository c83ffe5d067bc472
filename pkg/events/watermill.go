// Package events is the PostgreSQL-backed event bus of the shop, built on
// Watermill's SQL transport.
//
// Order events are written by the persistence layer through NewTxPublisher in
// the transaction that changes the order, so an event exists if and only if
// the change committed. The worker consumes them with Handle.
//
// Delivery is load-balanced across instances sharing a consumer group.
// Handlers must be idempotent: a failed message is retried with exponential
// backoff and then Nacked for redelivery. Errors wrapped with Permanent skip
// the retries and are dropped after logging.
package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/ghuser/ghshop/pkg/logger"
	"github.com/ghuser/ghshop/pkg/telemetry"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = time.Second
	shutdownTimeout   = 30 * time.Second
	forwarderTopic    = "_shop_outbox"
)

// Handler processes one message. The context carries the publisher's trace.
type Handler func(ctx context.Context, msg *message.Message) error

// Options configures an EventBus.
type Options struct {
	// ConsumerGroup shares messages between instances. Empty broadcasts every
	// message to every subscriber.
	ConsumerGroup string
	// Forwarder routes published messages through an outbox topic drained by
	// StartForwarder.
	Forwarder  bool
	MaxRetries int
	RetryDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetries
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = defaultRetryDelay
	}
	return o
}

// EventBus publishes and consumes messages stored in PostgreSQL. The SQL
// subscriber claims rows with FOR UPDATE SKIP LOCKED.
type EventBus struct {
	publisher  message.Publisher
	subscriber *watermillsql.Subscriber
	fwd        *forwarder.Forwarder
	db         *sql.DB
	opts       Options
	log        logger.Logger
	wlog       watermill.LoggerAdapter
	wg         sync.WaitGroup
}

// NewEventBus opens its own connection to databaseURL. Schema tables are
// created on first use.
func NewEventBus(databaseURL string, opts Options, log logger.Logger) (*EventBus, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("events: open db: %w", err)
	}
	bus := &EventBus{db: db, opts: opts.withDefaults(), log: log, wlog: &slogAdapter{log: log}}

	pub, err := bus.sqlPublisher(db, true)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("events: new publisher: %w", err)
	}
	bus.publisher = bus.wrap(pub)

	sub, err := bus.sqlSubscriber(bus.opts.ConsumerGroup)
	if err != nil {
		_ = pub.Close()
		_ = db.Close()
		return nil, fmt.Errorf("events: new subscriber: %w", err)
	}
	bus.subscriber = sub
	return bus, nil
}

func (b *EventBus) sqlPublisher(db watermillsql.ContextExecutor, initSchema bool) (*watermillsql.Publisher, error) {
	return watermillsql.NewPublisher(db, watermillsql.PublisherConfig{
		SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
		AutoInitializeSchema: initSchema,
	}, b.wlog)
}

func (b *EventBus) sqlSubscriber(group string) (*watermillsql.Subscriber, error) {
	return watermillsql.NewSubscriber(b.db, watermillsql.SubscriberConfig{
		SchemaAdapter:    watermillsql.DefaultPostgreSQLSchema{},
		OffsetsAdapter:   watermillsql.DefaultPostgreSQLOffsetsAdapter{},
		InitializeSchema: true,
		ConsumerGroup:    group,
	}, b.wlog)
}

// wrap envelopes messages for the forwarder when it is enabled.
func (b *EventBus) wrap(pub message.Publisher) message.Publisher {
	if !b.opts.Forwarder {
		return pub
	}
	return forwarder.NewPublisher(pub, forwarder.PublisherConfig{ForwarderTopic: forwarderTopic})
}

// StartForwarder runs the daemon that moves enveloped messages from the
// outbox topic to their target topics. It returns once the daemon is running.
func (b *EventBus) StartForwarder(ctx context.Context) error {
	if !b.opts.Forwarder {
		return errors.New("events: forwarder is not enabled on this bus")
	}
	if b.fwd != nil {
		return errors.New("events: forwarder already started")
	}

	fwdSub, err := b.sqlSubscriber("shop-forwarder")
	if err != nil {
		return fmt.Errorf("events: new forwarder subscriber: %w", err)
	}
	targetPub, err := b.sqlPublisher(b.db, true)
	if err != nil {
		_ = fwdSub.Close()
		return fmt.Errorf("events: new forwarder publisher: %w", err)
	}
	fwd, err := forwarder.NewForwarder(fwdSub, targetPub, b.wlog, forwarder.Config{ForwarderTopic: forwarderTopic})
	if err != nil {
		_ = targetPub.Close()
		_ = fwdSub.Close()
		return fmt.Errorf("events: create forwarder: %w", err)
	}
	b.fwd = fwd

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := fwd.Run(ctx); err != nil {
			b.log.ErrorContext(ctx, "events: forwarder stopped", "error", err)
		}
	}()

	select {
	case <-fwd.Running():
		b.log.InfoContext(ctx, "events: forwarder running")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("events: waiting for forwarder: %w", ctx.Err())
	}
}

// NewTxPublisher returns a publisher whose writes join tx. The schema is
// expected to exist already.
func (b *EventBus) NewTxPublisher(tx *sql.Tx) (message.Publisher, error) {
	pub, err := b.sqlPublisher(tx, false)
	if err != nil {
		return nil, fmt.Errorf("events: new tx publisher: %w", err)
	}
	return b.wrap(pub), nil
}

// Publish sends payload to topic outside of any transaction.
func (b *EventBus) Publish(ctx context.Context, topic string, payload any) error {
	msg, err := NewMessage(ctx, topic, payload)
	if err != nil {
		return err
	}
	if err := b.publisher.Publish(topic, msg); err != nil { //nolint:contextcheck
		return fmt.Errorf("events: publish to %s: %w", topic, err)
	}
	return nil
}

// Handle consumes topic in the background until ctx is done or the bus is
// closed. A message is Acked when h succeeds or fails permanently, and
// Nacked once the retries are exhausted.
func (b *EventBus) Handle(ctx context.Context, topic string, h Handler) error {
	ch, err := b.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("events: subscribe to %s: %w", topic, err)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range ch {
			msgCtx := contextFromMessage(ctx, msg)
			err := retryWithBackoff(msgCtx, msg, h, b.opts.MaxRetries, b.opts.RetryDelay, b.log)
			switch {
			case err == nil:
				msg.Ack()
			case IsPermanent(err):
				b.log.ErrorContext(msgCtx, "events: dropping message",
					"topic", topic, "message_id", msg.UUID, "error", err)
				telemetry.CaptureError(msgCtx, err, map[string]string{"topic": topic, "outcome": "dropped"})
				msg.Ack()
			default:
				b.log.ErrorContext(msgCtx, "events: handler failed, message will be redelivered",
					"topic", topic, "message_id", msg.UUID, "error", err)
				telemetry.CaptureError(msgCtx, err, map[string]string{"topic": topic, "outcome": "nacked"})
				msg.Nack()
			}
		}
	}()
	return nil
}

func retryWithBackoff(ctx context.Context, msg *message.Message, h Handler, maxRetries int, delay time.Duration, log logger.Logger) error {
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err = h(ctx, msg); err == nil || IsPermanent(err) {
			return err
		}
		if attempt == maxRetries {
			break
		}
		log.WarnContext(ctx, "events: handler failed, retrying",
			"attempt", attempt, "max_retries", maxRetries, "next_delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("events: handler failed after %d attempts: %w", maxRetries, err)
}

// Ping checks the bus connection.
func (b *EventBus) Ping(ctx context.Context) error {
	if err := b.db.PingContext(ctx); err != nil {
		return fmt.Errorf("events: ping db: %w", err)
	}
	return nil
}

// Close stops the subscriber and the forwarder, waits for in-flight handlers
// and then closes the publisher and the connection.
func (b *EventBus) Close() error {
	if err := b.subscriber.Close(); err != nil {
		return fmt.Errorf("events: close subscriber: %w", err)
	}
	if b.fwd != nil {
		if err := b.fwd.Close(); err != nil {
			return fmt.Errorf("events: close forwarder: %w", err)
		}
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		b.log.Error("events: timed out waiting for in-flight handlers")
	}

	if err := b.publisher.Close(); err != nil {
		return fmt.Errorf("events: close publisher: %w", err)
	}
	return b.db.Close()
}

// slogAdapter bridges logger.Logger to watermill.LoggerAdapter.
type slogAdapter struct{ log logger.Logger }

func (a *slogAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Error(msg, append(fieldsToArgs(fields), "error", err)...)
}
func (a *slogAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Info(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &slogAdapter{log: a.log.With(fieldsToArgs(fields)...)}
}

func fieldsToArgs(fields watermill.LogFields) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}
