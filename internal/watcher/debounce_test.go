package watcher

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// pendingKeys returns the keys waiting for their delay to expire.
func pendingKeys(d *Debouncer) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func TestNewDebouncer(t *testing.T) {
	d := NewDebouncer(100*time.Millisecond, func(string) {})

	if d == nil {
		t.Fatal("NewDebouncer returned nil")
	}
	if pendingKeys(d) != 0 {
		t.Errorf("expected 0 pending, got %d", pendingKeys(d))
	}
}

func TestDebouncer_Add_FiresOnce(t *testing.T) {
	var called atomic.Int32
	var gotKey string
	var mu sync.Mutex

	d := NewDebouncer(50*time.Millisecond, func(key string) {
		mu.Lock()
		gotKey = key
		mu.Unlock()
		called.Add(1)
	})

	d.Add("source")
	if pendingKeys(d) != 1 {
		t.Error("key should be pending right after Add")
	}

	time.Sleep(150 * time.Millisecond)

	if called.Load() != 1 {
		t.Errorf("expected 1 callback, got %d", called.Load())
	}
	mu.Lock()
	if gotKey != "source" {
		t.Errorf("expected key 'source', got %q", gotKey)
	}
	mu.Unlock()
	if pendingKeys(d) != 0 {
		t.Error("key should not be pending after the callback")
	}
}

func TestDebouncer_Add_ResetsTimer(t *testing.T) {
	var called atomic.Int32
	d := NewDebouncer(80*time.Millisecond, func(string) { called.Add(1) })

	for i := 0; i < 5; i++ {
		d.Add("source")
		time.Sleep(30 * time.Millisecond)
	}
	if called.Load() != 0 {
		t.Errorf("callback fired during activity: %d", called.Load())
	}

	time.Sleep(200 * time.Millisecond)
	if called.Load() != 1 {
		t.Errorf("expected rapid adds to coalesce into 1 callback, got %d", called.Load())
	}
}

func TestDebouncer_KeysAreIndependent(t *testing.T) {
	var called atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func(string) { called.Add(1) })

	d.Add("a")
	d.Add("b")
	if pendingKeys(d) != 2 {
		t.Errorf("expected 2 pending, got %d", pendingKeys(d))
	}

	time.Sleep(120 * time.Millisecond)
	if called.Load() != 2 {
		t.Errorf("expected 2 callbacks, got %d", called.Load())
	}
}

func TestDebouncer_CancelAll(t *testing.T) {
	var called atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func(string) { called.Add(1) })

	d.Add("a")
	d.Add("b")
	d.Add("c")
	d.CancelAll()

	if pendingKeys(d) != 0 {
		t.Errorf("expected 0 pending after CancelAll, got %d", pendingKeys(d))
	}
	time.Sleep(120 * time.Millisecond)
	if called.Load() != 0 {
		t.Errorf("expected no callbacks, got %d", called.Load())
	}
}

func TestDebouncer_ConcurrentAdds(t *testing.T) {
	var called atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func(string) { called.Add(1) })

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Add("source")
		}()
	}
	wg.Wait()

	time.Sleep(150 * time.Millisecond)
	if called.Load() != 1 {
		t.Errorf("expected 1 callback, got %d", called.Load())
	}
}
