package schedule

import (
	"reflect"
	"testing"
	"time"
)

func TestAdvance_Order(t *testing.T) {
	q := New()
	var got []string
	q.After(300*time.Millisecond, 1, func() { got = append(got, "c") })
	q.After(100*time.Millisecond, 1, func() { got = append(got, "a") })
	q.After(100*time.Millisecond, 2, func() { got = append(got, "b") })

	if n := q.Advance(50 * time.Millisecond); n != 0 {
		t.Fatalf("nothing should fire yet, fired %d", n)
	}
	q.Advance(60 * time.Millisecond)
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("expected due order then insertion order, got %v", got)
	}
	q.Advance(time.Second)
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) || q.Pending() != 0 {
		t.Errorf("got %v pending %d", got, q.Pending())
	}
	if q.Now() != 1110*time.Millisecond {
		t.Errorf("clock = %v", q.Now())
	}
}

func TestCancel(t *testing.T) {
	q := New()
	fired := map[uint64]int{}
	var events []*Event
	for i := 0; i < 6; i++ {
		epoch := uint64(i % 2)
		events = append(events, q.After(time.Duration(i)*time.Millisecond, epoch, func() { fired[epoch]++ }))
	}
	if n := q.Cancel(0); n != 3 {
		t.Fatalf("cancelled %d, want 3", n)
	}
	q.Advance(time.Second)
	if fired[0] != 0 || fired[1] != 3 {
		t.Errorf("fired = %v", fired)
	}
	if !events[0].Canceled() || events[1].Canceled() {
		t.Error("Canceled flag mismatch")
	}
}

func TestAdvance_ChainedEvents(t *testing.T) {
	q := New()
	count := 0
	q.After(10*time.Millisecond, 0, func() {
		count++
		q.After(0, 0, func() { count++ })
		q.After(time.Hour, 0, func() { count++ })
	})
	q.Advance(20 * time.Millisecond)
	if count != 2 || q.Pending() != 1 {
		t.Errorf("count = %d pending = %d", count, q.Pending())
	}
}
