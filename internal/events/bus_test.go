package events

import (
	"bytes"
	"go/format"
	"os"
	"testing"
	"time"
)

func TestPublishReachesSubscribers(t *testing.T) {
	b := NewBus(4)
	a := b.Subscribe()
	c := b.Subscribe()
	b.Publish(Event{Type: NoteCreated, NoteID: "n1"})

	for _, ch := range []<-chan Event{a, c} {
		select {
		case ev := <-ch:
			if ev.NoteID != "n1" || ev.Timestamp.IsZero() {
				t.Fatalf("unexpected event %+v", ev)
			}
		case <-time.After(time.Second):
			t.Fatalf("event not delivered")
		}
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBus(1)
	ch := b.Subscribe()
	for i := 0; i < 10; i++ {
		b.Publish(Event{Type: NoteCreated})
	}
	if len(ch) != 1 {
		t.Fatalf("expected buffer of 1, got %d", len(ch))
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus(1)
	ch := b.Subscribe()
	b.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	b.Publish(Event{Type: NoteFailed})
}

func TestNilBusPublishIsNoop(t *testing.T) {
	var b *Bus
	b.Publish(Event{Type: NoteCreated})
}

func TestCloseEndsSubscriptions(t *testing.T) {
	b := NewBus(1)
	ch := b.Subscribe()
	b.Close()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	b.Unsubscribe(ch)
	if _, ok := <-b.Subscribe(); ok {
		t.Fatalf("subscribe after close should return a closed channel")
	}
	b.Publish(Event{Type: NoteCreated})
}

func TestSourceIsFormatted(t *testing.T) {
	for _, name := range []string{"bus.go", "bus_test.go"} {
		src, err := os.ReadFile(name)
		if err != nil {
			t.Fatal(err)
		}
		formatted, err := format.Source(src)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !bytes.Equal(src, formatted) {
			t.Fatalf("%s is not gofmt formatted", name)
		}
	}
}
