package message

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestIDGenerator_Unique(t *testing.T) {
	var gen IDGenerator
	seen := make(map[string]bool)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				id := gen.Next()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != 800 {
		t.Errorf("generated %d unique ids, want 800", len(seen))
	}
	for id := range seen {
		if !strings.HasPrefix(id, "local-") {
			t.Fatalf("id %q missing local- prefix", id)
		}
	}
}

func TestIDGenerator_SortsInOrder(t *testing.T) {
	var gen IDGenerator
	prev := gen.Next()
	for i := range 20 {
		id := gen.Next()
		if id <= prev {
			t.Fatalf("id %d: %q does not sort after %q", i+2, id, prev)
		}
		prev = id
	}
}

func TestMessage_Confirmed(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m := Message{ID: "local-1", Text: "hi", Sender: SenderUser, Timestamp: ts, Pending: true}

	c := m.Confirmed("77:prompt")
	if c.ID != "77:prompt" || c.Pending {
		t.Errorf("Confirmed() = %+v", c)
	}
	if !c.Timestamp.Equal(ts) || c.Text != "hi" {
		t.Errorf("Confirmed() lost fields: %+v", c)
	}
	if !m.Pending {
		t.Error("Confirmed() mutated the receiver")
	}
}
