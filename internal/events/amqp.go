package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
)

// ErrCircuitOpen is returned while the publisher is backing off after
// repeated broker failures.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// channel is the subset of *amqp091.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// AMQPPublisher publishes events to a durable topic exchange, using the
// event type as routing key.
type AMQPPublisher struct {
	conn     *amqp091.Connection
	exchange string

	mu sync.Mutex // serializes publishes on ch
	ch channel

	failureCount atomic.Int64
	state        atomic.Int32

	failureMu   sync.Mutex
	lastFailure time.Time
}

// NewAMQPPublisher dials url and declares exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{conn: conn, exchange: exchange, ch: ch}, nil
}

// Publish sends ev as a persistent JSON message.
func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	if p.isCircuitOpen() {
		return fmt.Errorf("publish %s: %w", ev.Type, ErrCircuitOpen)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	err = p.ch.PublishWithContext(
		ctx,
		p.exchange, // exchange
		ev.Type,    // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    ev.Timestamp,
			Type:         ev.Type,
			Body:         body,
		},
	)
	p.mu.Unlock()
	if err != nil {
		p.recordFailure()
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	p.recordSuccess()

	slog.DebugContext(ctx, "Published event",
		"type", ev.Type,
		"budget_id", ev.BudgetID,
		"exchange", p.exchange)
	return nil
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func (p *AMQPPublisher) isCircuitOpen() bool {
	if p.state.Load() != StateOpen {
		return false
	}
	p.failureMu.Lock()
	elapsed := time.Since(p.lastFailure)
	p.failureMu.Unlock()
	if elapsed > openTimeout {
		p.state.CompareAndSwap(StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (p *AMQPPublisher) recordFailure() {
	p.failureMu.Lock()
	p.lastFailure = time.Now()
	p.failureMu.Unlock()

	// A failed probe while half-open reopens immediately.
	if p.failureCount.Add(1) >= maxFailures || p.state.Load() == StateHalfOpen {
		p.state.Store(StateOpen)
	}
}

func (p *AMQPPublisher) recordSuccess() {
	p.failureCount.Store(0)
	p.state.Store(StateClosed)
}
