package membership

import (
	"testing"
	"time"
)

func TestDedupFirstSeenThenDuplicate(t *testing.T) {
	d := NewDedup(15 * time.Second)
	if d.See("D", 1, 5) {
		t.Fatal("See() = true on first observation, want false")
	}
	if !d.See("D", 1, 5) {
		t.Error("See() = false on repeat, want true")
	}
}

func TestDedupDistinguishesKeyFields(t *testing.T) {
	d := NewDedup(15 * time.Second)
	d.See("D", 1, 5)
	if d.See("A", 1, 5) {
		t.Error("different packet type reported as duplicate")
	}
	if d.See("D", 2, 5) {
		t.Error("different origin reported as duplicate")
	}
	if d.See("D", 1, 6) {
		t.Error("different msg_id reported as duplicate")
	}
}

func TestDedupAgesOut(t *testing.T) {
	start := time.Now()
	d := NewDedup(1 * time.Second)
	d.Now = func() time.Time { return start }
	d.See("D", 1, 5)

	d.Now = func() time.Time { return start.Add(2 * time.Second) }
	if d.See("D", 1, 5) {
		t.Error("See() = true after age-out window elapsed, want false")
	}
}

func TestDedupLRUReplacesOldestUnderPressure(t *testing.T) {
	start := time.Now()
	d := NewDedup(time.Hour)
	for i := 0; i < SeenCapacity; i++ {
		d.Now = func(i int) func() time.Time {
			return func() time.Time { return start.Add(time.Duration(i) * time.Millisecond) }
		}(i)
		d.See("D", 1, uint16(i))
	}
	d.Now = func() time.Time { return start.Add(time.Duration(SeenCapacity) * time.Millisecond) }
	d.See("D", 1, uint16(SeenCapacity)) // evicts msg_id 0, the oldest

	d.Now = func() time.Time { return start.Add(time.Duration(SeenCapacity+1) * time.Millisecond) }
	if d.See("D", 1, 0) {
		t.Error("See(msg_id=0) = true, want false: oldest entry should have been evicted")
	}
}

func TestMarkLocalSuppressesOwnRetransmit(t *testing.T) {
	d := NewDedup(15 * time.Second)
	d.MarkLocal("D", 1, 5)
	if !d.See("D", 1, 5) {
		t.Error("See() after MarkLocal() = false, want true")
	}
}
