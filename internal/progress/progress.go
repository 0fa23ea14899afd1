// Package progress defines the listener contract long-running phases report through.
package progress

import (
	"sync"

	"camsort/internal/logging"
	"camsort/internal/messages"
)

// Listener receives progress notifications from scan and materialization phases.
// Start is called once per phase with the expected total; Step advances by amount.
type Listener interface {
	Start(total int)
	Step(amount int)
}

// Nop is a Listener that ignores all notifications.
type Nop struct{}

func (Nop) Start(int) {}
func (Nop) Step(int)  {}

// Multi fans notifications out to every attached listener in attachment order.
type Multi struct {
	mu        sync.Mutex
	listeners []Listener
}

// NewMulti creates a Multi with the given listeners attached.
func NewMulti(listeners ...Listener) *Multi {
	m := &Multi{}
	for _, l := range listeners {
		m.Add(l)
	}
	return m
}

// Add attaches a listener. Nil listeners are ignored.
func (m *Multi) Add(l Listener) {
	if l == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Len returns the number of attached listeners.
func (m *Multi) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}

func (m *Multi) Start(total int) {
	for _, l := range m.snapshot() {
		l.Start(total)
	}
}

func (m *Multi) Step(amount int) {
	for _, l := range m.snapshot() {
		l.Step(amount)
	}
}

func (m *Multi) snapshot() []Listener {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]Listener, len(m.listeners))
	copy(result, m.listeners)
	return result
}

// Logged writes each step to a logger at debug level, so log files keep the
// progress the console shows in place.
type Logged struct {
	mu     sync.Mutex
	logger logging.Logger
	total  int
	done   int
}

// NewLogged creates a Logged listener writing to logger.
func NewLogged(logger logging.Logger) *Logged {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Logged{logger: logger}
}

func (l *Logged) Start(total int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.total, l.done = total, 0
}

func (l *Logged) Step(amount int) {
	l.mu.Lock()
	l.done += amount
	done, total := l.done, l.total
	l.mu.Unlock()
	l.logger.Debug(messages.ProgressUpdate, "done", done, "total", total)
}

// Recorder keeps the notifications it receives. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	Totals []int
	Steps  []int
}

func (r *Recorder) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Totals = append(r.Totals, total)
}

func (r *Recorder) Step(amount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Steps = append(r.Steps, amount)
}

// Done returns the sum of all steps received.
func (r *Recorder) Done() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := 0
	for _, s := range r.Steps {
		sum += s
	}
	return sum
}
