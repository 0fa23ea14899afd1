// Package output handles console output: log lines and the in-place progress indicator.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Config holds output configuration.
type Config struct {
	Verbose bool      // Verbose runs print per-file lines, so the progress line is suppressed
	Writer  io.Writer // Output destination (default: os.Stderr)
	IsTTY   bool      // Whether output is a terminal
	Label   string    // Progress line label (default: "Processing file")
}

// Output is the console sink. It is an io.Writer for log lines and a
// progress.Listener for scan and materialization phases.
type Output struct {
	config          Config
	progressActive  bool
	progressTotal   int
	progressCurrent int
	mu              sync.Mutex
}

// New creates a new Output instance with the given configuration.
func New(config Config) *Output {
	if config.Writer == nil {
		config.Writer = os.Stderr
	}
	if config.Label == "" {
		config.Label = "Processing file"
	}
	return &Output{
		config: config,
	}
}

// DefaultConfig returns a Config writing to stderr with TTY detection.
func DefaultConfig() Config {
	isTTY := term.IsTerminal(int(os.Stderr.Fd()))
	return Config{
		Verbose: false,
		Writer:  os.Stderr,
		IsTTY:   isTTY,
	}
}

// Write prints p, clearing the progress line first and redrawing it afterwards.
func (o *Output) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.clearProgressLineLocked()
	n, err := o.config.Writer.Write(p)
	if err == nil && len(p) > 0 && p[len(p)-1] != '\n' {
		_, err = io.WriteString(o.config.Writer, "\n")
	}
	o.drawProgressLocked()
	return n, err
}

// Start begins a progress indicator session.
func (o *Output) Start(total int) {
	if !o.progressEnabled() {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progressActive = true
	o.progressTotal = total
	o.progressCurrent = 0
	o.drawProgressLocked()
}

// Step advances the progress indicator by amount. Reaching the total ends the session.
func (o *Output) Step(amount int) {
	if !o.progressEnabled() {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.progressActive {
		return
	}
	o.progressCurrent += amount
	if o.progressCurrent >= o.progressTotal {
		o.clearProgressLineLocked()
		o.progressActive = false
		return
	}
	o.drawProgressLocked()
}

// EndProgress clears the progress indicator.
func (o *Output) EndProgress() {
	if !o.progressEnabled() {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.progressActive {
		return
	}
	o.clearProgressLineLocked()
	o.progressActive = false
}

// Current returns the progress position and total of the active session.
func (o *Output) Current() (current, total int, active bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.progressCurrent, o.progressTotal, o.progressActive
}

// IsVerbose returns whether verbose mode is enabled.
func (o *Output) IsVerbose() bool {
	return o.config.Verbose
}

// IsTTY returns whether the output is a terminal.
func (o *Output) IsTTY() bool {
	return o.config.IsTTY
}

// progressEnabled suppresses progress when not a TTY or when verbose mode is enabled.
func (o *Output) progressEnabled() bool {
	return o.config.IsTTY && !o.config.Verbose
}

func (o *Output) clearProgressLineLocked() {
	if o.progressActive && o.config.IsTTY {
		fmt.Fprint(o.config.Writer, "\r"+strings.Repeat(" ", 60)+"\r")
	}
}

func (o *Output) drawProgressLocked() {
	if !o.progressActive {
		return
	}
	fmt.Fprintf(o.config.Writer, "\r%s %d/%d...", o.config.Label, o.progressCurrent, o.progressTotal)
}
