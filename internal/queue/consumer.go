package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// HandlerFunc processes one delivery body.  Returning nil acks the
// message; an error rejects it, unless the error is marked with Retry.
type HandlerFunc func(ctx context.Context, body []byte) error

// ErrRetry marks a handler error as transient; the delivery is published
// again after a delay, up to Consumer.MaxRetries times.
var ErrRetry = errors.New("retry")

// Retry wraps err so the consumer retries the delivery.
func Retry(err error) error { return fmt.Errorf("%w: %w", ErrRetry, err) }

// Consumer binds a durable queue to the events exchange and feeds its
// deliveries to a handler.  Run reconnects with exponential backoff until
// ctx is cancelled.
type Consumer struct {
	Name     string // used in log lines
	URL      string
	Exchange string
	Queue    string
	Bindings []string // routing key patterns bound to Queue
	Prefetch int
	Handle   HandlerFunc

	DialTimeout time.Duration
	MaxRetries  int           // default 5
	RetryDelay  time.Duration // default 1s, doubled per attempt up to maxRetryDelay
}

const (
	retryHeader   = "x-retry-count"
	maxRetryDelay = time.Minute
)

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := dial(c.URL, c.dialTimeout())
		if err != nil {
			log.Printf("%s: failed to dial broker: %v; retrying in %s", c.Name, err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("%s: consume loop ended: %v; reconnecting", c.Name, err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if c.Prefetch > 0 {
		if err := ch.Qos(c.Prefetch, 0, false); err != nil {
			log.Printf("%s: set QoS failed: %v", c.Name, err)
		}
	}
	if err := declareExchange(ch, c.Exchange); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	for _, key := range c.Bindings {
		if err := ch.QueueBind(c.Queue, key, c.Exchange, false, nil); err != nil {
			return fmt.Errorf("queue bind %s: %w", key, err)
		}
	}

	msgs, err := ch.ConsumeWithContext(ctx, c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	for d := range msgs {
		c.dispatch(ctx, ch, d)
	}
	return errors.New("deliveries channel closed")
}

// republisher is satisfied by *amqp.Channel.
type republisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// dispatch runs the handler and settles d.  On a transient failure the
// consumer waits retryDelay, publishes a copy with an incremented retry
// header straight to the queue and acks the original.  Once MaxRetries is
// reached the message is rejected.
func (c *Consumer) dispatch(ctx context.Context, pub republisher, d amqp.Delivery) {
	err := c.Handle(ctx, d.Body)
	if err == nil {
		_ = d.Ack(false)
		return
	}
	attempt := retryCount(d.Headers)
	if !errors.Is(err, ErrRetry) || attempt >= c.maxRetries() {
		log.Printf("%s: dropping message after %d retries: %v", c.Name, attempt, err)
		_ = d.Nack(false, false)
		return
	}
	delay := c.retryDelay(attempt)
	log.Printf("%s: handle message failed, retry %d in %s: %v", c.Name, attempt+1, delay, err)
	if !sleep(ctx, delay) {
		// shutting down; leave the message for the next consumer
		_ = d.Nack(false, true)
		return
	}
	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[retryHeader] = int32(attempt + 1)
	err = pub.PublishWithContext(ctx, "", c.Queue, false, false, amqp.Publishing{
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		Type:         d.Type,
		Headers:      headers,
		Body:         d.Body,
	})
	if err != nil {
		log.Printf("%s: republish failed: %v", c.Name, err)
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

func retryCount(h amqp.Table) int {
	switch v := h[retryHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func (c *Consumer) maxRetries() int {
	if c.MaxRetries > 0 {
		return c.MaxRetries
	}
	return 5
}

func (c *Consumer) retryDelay(attempt int) time.Duration {
	d := c.RetryDelay
	if d <= 0 {
		d = time.Second
	}
	for i := 0; i < attempt && d < maxRetryDelay; i++ {
		d *= 2
	}
	return min(d, maxRetryDelay)
}

func (c *Consumer) dialTimeout() time.Duration {
	if c.DialTimeout > 0 {
		return c.DialTimeout
	}
	return DefaultDialTimeout
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
