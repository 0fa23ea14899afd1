package watcher

import (
	"context"
	"errors"
	"os"
	"time"
)

// ErrFileNotFound is returned when the file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrFileUnstable is returned when the file does not stabilize within the timeout.
var ErrFileUnstable = errors.New("file did not stabilize within timeout")

// StabilityChecker waits for a file's size to stop changing, so a file still
// being copied off a card is not analyzed half-written.
type StabilityChecker struct {
	threshold time.Duration // Time the size must remain unchanged
	timeout   time.Duration // Maximum time to wait
	interval  time.Duration // How often to sample the size
}

// NewStabilityChecker creates a StabilityChecker with a 30 second timeout,
// sampling every threshold/4 (at least every 50ms).
func NewStabilityChecker(threshold time.Duration) *StabilityChecker {
	interval := threshold / 4
	if interval < 50*time.Millisecond {
		interval = 50 * time.Millisecond
	}
	return &StabilityChecker{
		threshold: threshold,
		timeout:   30 * time.Second,
		interval:  interval,
	}
}

// NewStabilityCheckerWithOptions creates a StabilityChecker with custom timeout and interval.
func NewStabilityCheckerWithOptions(threshold, timeout, interval time.Duration) *StabilityChecker {
	return &StabilityChecker{
		threshold: threshold,
		timeout:   timeout,
		interval:  interval,
	}
}

// WaitForStable blocks until the size of path has not changed for the
// threshold, the timeout expires or ctx is cancelled.
func (s *StabilityChecker) WaitForStable(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	lastSize, err := fileSize(path)
	if err != nil {
		return err
	}
	lastChange := time.Now()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrFileUnstable
			}
			return ctx.Err()
		case <-ticker.C:
			size, err := fileSize(path)
			if err != nil {
				return err
			}
			if size != lastSize {
				lastSize = size
				lastChange = time.Now()
			} else if time.Since(lastChange) >= s.threshold {
				return nil
			}
		}
	}
}

// WaitAll waits for every path in turn. Files that disappear meanwhile are
// dropped; the paths still present and stable are returned.
func (s *StabilityChecker) WaitAll(ctx context.Context, paths []string) ([]string, error) {
	stable := make([]string, 0, len(paths))
	for _, path := range paths {
		err := s.WaitForStable(ctx, path)
		switch {
		case err == nil:
			stable = append(stable, path)
		case errors.Is(err, ErrFileNotFound):
			continue
		default:
			return stable, err
		}
	}
	return stable, nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrFileNotFound
		}
		return 0, err
	}
	return info.Size(), nil
}

func statDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}
