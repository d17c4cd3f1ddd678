package events

import "testing"

func TestPublishFansOut(t *testing.T) {
	b := NewBus()
	a := b.Subscribe()
	c := b.Subscribe()
	b.Publish(Event{RunID: "r1", Stage: "LOAD", Status: StatusStarted})
	for _, ch := range []<-chan Event{a, c} {
		ev := <-ch
		if ev.RunID != "r1" || ev.Stage != "LOAD" {
			t.Fatalf("unexpected event %+v", ev)
		}
	}
	b.Unsubscribe(a)
	if _, ok := <-a; ok {
		t.Fatalf("expected closed channel after unsubscribe")
	}
	b.Publish(Event{Stage: "WRITE"})
	if ev := <-c; ev.Stage != "WRITE" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestPublishDoesNotBlock(t *testing.T) {
	b := NewBus()
	_ = b.Subscribe()
	for i := 0; i < 100; i++ {
		b.Publish(Event{Stage: "LOAD"})
	}
	var nilBus *Bus
	nilBus.Publish(Event{})
}
