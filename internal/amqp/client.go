package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"manageexpense/internal/log"
)

const (
	breakerThreshold = 5
	breakerCooldown  = 30 * time.Second
	maxBackoff       = 30 * time.Second
	publishRetries   = 3
	publishTimeout   = 5 * time.Second
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// topology is a durable direct exchange with one queue bound under its own
// name as the routing key.
type topology struct {
	exchange string
	queue    string
}

func (t topology) declare(ch *amqp091.Channel) error {
	if err := ch.ExchangeDeclare(t.exchange, amqp091.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", t.exchange, err)
	}
	if _, err := ch.QueueDeclare(t.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", t.queue, err)
	}
	if err := ch.QueueBind(t.queue, t.queue, t.exchange, false, nil); err != nil {
		return fmt.Errorf("bind %s to %s: %w", t.queue, t.exchange, err)
	}
	return nil
}

// Client publishes and consumes expense events over one lazily redialed
// connection.
type Client struct {
	url  string
	topo topology

	mu   sync.Mutex
	conn *amqp091.Connection
	ch   *amqp091.Channel

	breaker *breaker
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	c := &Client{
		url:     url,
		topo:    topology{exchange: exchangeName, queue: queueName},
		breaker: newBreaker(breakerThreshold, breakerCooldown),
	}
	if _, err := c.channel(); err != nil {
		return nil, err
	}
	return c, nil
}

func logger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentAMQP)
}

// channel returns the open channel, redialing when the connection or the
// channel has gone away.
func (c *Client) channel() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && !c.conn.IsClosed() && c.ch != nil && !c.ch.IsClosed() {
		return c.ch, nil
	}
	c.dropLocked()

	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := c.topo.declare(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	c.conn, c.ch = conn, ch
	return ch, nil
}

// exponentialBackoff doubles from one second and stops at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 0 || attempt >= 5 {
		return maxBackoff
	}
	return min(time.Second<<attempt, maxBackoff)
}

var connectionErrorHints = []string{"connection", "EOF", "broken pipe", "closed"}

func isConnectionError(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, amqp091.ErrClosed):
		return true
	}
	msg := err.Error()
	for _, hint := range connectionErrorHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// PublishExpenseEvent publishes a persistent event. Connection errors are
// retried with backoff until the breaker opens or retries run out.
func (c *Client) PublishExpenseEvent(ctx context.Context, event *ExpenseEvent) error {
	if !c.breaker.allow() {
		return fmt.Errorf("publish %s event for %s: %w", event.Op, event.ID, ErrCircuitOpen)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	l := logger(ctx)
	for attempt := 0; ; attempt++ {
		err = c.publish(ctx, body)
		if err == nil {
			c.breaker.success()
			l.InfoContext(ctx, "Published expense event",
				log.FieldExpenseID, event.ID,
				log.FieldOperation, event.Op,
				log.FieldVersion, event.Version,
				"queue", c.topo.queue)
			return nil
		}
		c.breaker.failure()
		if attempt+1 >= publishRetries || !isConnectionError(err) || c.breaker.current() == breakerOpen {
			return fmt.Errorf("publish %s event for %s: %w", event.Op, event.ID, err)
		}
		l.WarnContext(ctx, "Publish failed, retrying", "attempt", attempt+1, log.FieldError, err)
		if err := sleep(ctx, exponentialBackoff(attempt)); err != nil {
			return err
		}
	}
}

func (c *Client) publish(ctx context.Context, body []byte) error {
	ch, err := c.channel()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	}
	return ch.PublishWithContext(ctx, c.topo.exchange, c.topo.queue, false, false, msg)
}

// ConsumeExpenseEvents delivers events to handler until ctx is done.
// Handler errors requeue the delivery; undecodable bodies are dropped.
// A lost channel is redialed with exponential backoff.
func (c *Client) ConsumeExpenseEvents(ctx context.Context, handler func(context.Context, *ExpenseEvent) error) error {
	l := logger(ctx)
	attempt := 0
	for {
		err := c.consume(ctx, handler, func() { attempt = 0 })
		if ctx.Err() != nil {
			l.InfoContext(ctx, "Stopping event consumption", "reason", ctx.Err())
			return ctx.Err()
		}
		wait := exponentialBackoff(attempt)
		attempt++
		l.WarnContext(ctx, "Consumer interrupted, reconnecting", log.FieldError, err, "backoff", wait)
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (c *Client) consume(ctx context.Context, handler func(context.Context, *ExpenseEvent) error, connected func()) error {
	ch, err := c.channel()
	if err != nil {
		return err
	}
	deliveries, err := ch.Consume(c.topo.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.topo.queue, err)
	}
	connected()

	l := logger(ctx)
	l.InfoContext(ctx, "Consuming expense events", "queue", c.topo.queue)
	for {
		var d amqp091.Delivery
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok = <-deliveries:
		}
		if !ok {
			return errors.New("delivery channel closed")
		}
		c.dispatch(ctx, l, d, handler)
	}
}

func (c *Client) dispatch(ctx context.Context, l *log.Logger, d amqp091.Delivery, handler func(context.Context, *ExpenseEvent) error) {
	event, err := ExpenseEventFromJSON(d.Body)
	if err != nil {
		l.ErrorContext(ctx, "Dropping undecodable event", log.FieldError, err)
		_ = d.Nack(false, false)
		return
	}
	attrs := []any{log.FieldExpenseID, event.ID, log.FieldOperation, event.Op, log.FieldVersion, event.Version}
	if err := handler(ctx, event); err != nil {
		l.ErrorContext(ctx, "Failed to handle event, requeueing", append(attrs, log.FieldError, err)...)
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
	l.InfoContext(ctx, "Processed expense event", attrs...)
}

func (c *Client) dropLocked() error {
	var err error
	if c.ch != nil {
		_ = c.ch.Close()
		c.ch = nil
	}
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}
	return err
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropLocked()
}
