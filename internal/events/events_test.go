package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type fakeChannel struct {
	published []amqp091.Publishing
	keys      []string
	err       error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp091.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func TestNew(t *testing.T) {
	ev, err := New(TypeExpenseRecorded, "b1", "alice", ExpenseRecorded{
		ExpenseID:  "e1",
		Amount:     "12.50",
		PaidBy:     "alice",
		SplitAmong: []string{"alice", "bob"},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if ev.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}

	var payload ExpenseRecorded
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if payload.ExpenseID != "e1" || len(payload.SplitAmong) != 2 {
		t.Errorf("payload = %+v", payload)
	}

	bare, err := New(TypeBudgetCreated, "b1", "alice", nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if bare.Payload != nil {
		t.Errorf("expected no payload, got %s", bare.Payload)
	}
}

func TestAMQPPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := &AMQPPublisher{exchange: "budgetshare.events", ch: ch}

	ev, _ := New(TypeSettlementRecorded, "b1", "bob", SettlementRecorded{SettlementID: "s1"})
	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if len(ch.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(ch.published))
	}
	if ch.keys[0] != TypeSettlementRecorded {
		t.Errorf("routing key = %s, want %s", ch.keys[0], TypeSettlementRecorded)
	}
	msg := ch.published[0]
	if msg.ContentType != "application/json" || msg.DeliveryMode != amqp091.Persistent {
		t.Errorf("unexpected message properties: %+v", msg)
	}

	var decoded Event
	if err := json.Unmarshal(msg.Body, &decoded); err != nil {
		t.Fatalf("body is not an event: %v", err)
	}
	if decoded.Type != TypeSettlementRecorded || decoded.BudgetID != "b1" || decoded.ActorID != "bob" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestAMQPPublisher_CircuitBreaker(t *testing.T) {
	ch := &fakeChannel{err: errors.New("connection closed")}
	p := &AMQPPublisher{exchange: "budgetshare.events", ch: ch}
	ev, _ := New(TypeBudgetCreated, "b1", "alice", nil)
	ctx := context.Background()

	t.Run("initial state is closed", func(t *testing.T) {
		if p.isCircuitOpen() {
			t.Error("Circuit breaker should be closed initially")
		}
	})

	t.Run("repeated failures open circuit", func(t *testing.T) {
		for i := 0; i < maxFailures; i++ {
			if err := p.Publish(ctx, ev); err == nil {
				t.Fatal("expected publish to fail")
			}
		}
		if p.state.Load() != StateOpen {
			t.Fatalf("state = %d, want open", p.state.Load())
		}

		err := p.Publish(ctx, ev)
		if !errors.Is(err, ErrCircuitOpen) {
			t.Errorf("expected ErrCircuitOpen, got %v", err)
		}
		if !strings.Contains(err.Error(), TypeBudgetCreated) {
			t.Errorf("error should name the event type, got %v", err)
		}
	})

	t.Run("half-open after timeout", func(t *testing.T) {
		p.failureMu.Lock()
		p.lastFailure = time.Now().Add(-openTimeout - time.Second)
		p.failureMu.Unlock()

		if p.isCircuitOpen() {
			t.Error("Circuit should transition to half-open after timeout")
		}
		if p.state.Load() != StateHalfOpen {
			t.Errorf("state = %d, want half-open", p.state.Load())
		}
	})

	t.Run("success closes circuit", func(t *testing.T) {
		ch.err = nil
		if err := p.Publish(ctx, ev); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
		if p.state.Load() != StateClosed || p.failureCount.Load() != 0 {
			t.Errorf("state = %d failures = %d, want closed and 0", p.state.Load(), p.failureCount.Load())
		}
	})
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	if err := p.Publish(context.Background(), Event{Type: TypeBudgetCreated}); err != nil {
		t.Errorf("Noop.Publish returned %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Noop.Close returned %v", err)
	}
}
