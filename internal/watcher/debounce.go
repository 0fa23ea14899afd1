package watcher

import (
	"sync"
	"time"
)

// Debouncer delays a callback until activity for a key settles. Rapid Add
// calls for the same key coalesce into one callback fired delay after the last.
type Debouncer struct {
	delay    time.Duration
	pending  map[string]*time.Timer
	callback func(key string)
	mu       sync.Mutex
}

// NewDebouncer creates a Debouncer invoking callback delay after the last Add of a key.
func NewDebouncer(delay time.Duration, callback func(key string)) *Debouncer {
	return &Debouncer{
		delay:    delay,
		pending:  make(map[string]*time.Timer),
		callback: callback,
	}
}

// Add schedules key, restarting its timer if it is already pending.
func (d *Debouncer) Add(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, exists := d.pending[key]; exists {
		timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// A later Add replaced this timer; let that one fire.
		if d.pending[key] != timer {
			d.mu.Unlock()
			return
		}
		delete(d.pending, key)
		d.mu.Unlock()

		if d.callback != nil {
			d.callback(key)
		}
	})
	d.pending[key] = timer
}

// CancelAll cancels every pending key. Used during shutdown.
func (d *Debouncer) CancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, timer := range d.pending {
		timer.Stop()
		delete(d.pending, key)
	}
}
