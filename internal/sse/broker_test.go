package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "item.created", Data: map[string]string{"id": "snippet-1"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: item.created") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"id":"snippet-1"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishChange_AggregateThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First change should trigger library.changed.
	b.PublishChange("item.created", "snippet-1")
	// Second change immediately should NOT trigger another library.changed.
	b.PublishChange("item.updated", "snippet-1")

	// Drain and count events.
	time.Sleep(50 * time.Millisecond)
	aggregateCount := 0
	changeCount := 0
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			if strings.Contains(s, "library.changed") {
				aggregateCount++
			} else {
				changeCount++
			}
		default:
			break loop
		}
	}

	if changeCount != 2 {
		t.Errorf("change events = %d, want 2", changeCount)
	}
	if aggregateCount != 1 {
		t.Errorf("aggregate events = %d, want 1 (throttled)", aggregateCount)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: "item.updated", Data: map[string]string{"id": "clause-1"}})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: item.updated") {
		t.Errorf("handler body missing event, got %q", body)
	}
	if !strings.Contains(body, `"id":"clause-1"`) {
		t.Errorf("handler body missing data, got %q", body)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	b := NewBroker(time.Second)
	b.Close()
	b.Close()
	if b.ClientCount() != 0 {
		t.Errorf("expected 0 clients after close")
	}
}
