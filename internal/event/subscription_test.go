package event

import "testing"

func TestSubscriptionForwardMatchedDelivered(t *testing.T) {
	sub, consumer := New(MustCompileInterest("^a$"), 1)

	match := NewHandle(New("a", []byte("x")))
	if got := sub.Forward(match); got != Delivered {
		t.Fatalf("Forward() = %v, want Delivered", got)
	}

	select {
	case h := <-consumer.Recv():
		if h.Event().Topic != "a" {
			t.Fatalf("delivered topic = %q, want %q", h.Event().Topic, "a")
		}
	default:
		t.Fatal("expected event in queue")
	}
}

func TestSubscriptionForwardNotMatched(t *testing.T) {
	sub, consumer := New(MustCompileInterest("^a$"), 1)

	other := NewHandle(New("b", []byte("x")))
	if got := sub.Forward(other); got != NotMatched {
		t.Fatalf("Forward() = %v, want NotMatched", got)
	}

	select {
	case <-consumer.Recv():
		t.Fatal("unexpected delivery for non-matching topic")
	default:
	}
}

func TestSubscriptionForwardDropsOnFull(t *testing.T) {
	sub, _ := New(MustCompileInterest("^a$"), 1)

	first := NewHandle(New("a", []byte("1")))
	second := NewHandle(New("a", []byte("2")))

	if got := sub.Forward(first); got != Delivered {
		t.Fatalf("first Forward() = %v, want Delivered", got)
	}
	if got := sub.Forward(second); got != DroppedFull {
		t.Fatalf("second Forward() = %v, want DroppedFull", got)
	}
}

func TestSubscriptionForwardAfterConsumerClosed(t *testing.T) {
	sub, consumer := New(MustCompileInterest("^a$"), 4)
	if !sub.IsAlive() {
		t.Fatal("subscription should start alive")
	}

	consumer.Close()

	if sub.IsAlive() {
		t.Fatal("subscription should be dead after Consumer.Close")
	}

	h := NewHandle(New("a", []byte("x")))
	if got := sub.Forward(h); got != DroppedClosed {
		t.Fatalf("Forward() after close = %v, want DroppedClosed", got)
	}
}
