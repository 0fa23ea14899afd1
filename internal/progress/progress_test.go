package progress

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"camsort/internal/logging"
)

func TestMultiFansOut(t *testing.T) {
	a := &Recorder{}
	b := &Recorder{}
	m := NewMulti(a, nil, b)
	require.Equal(t, 2, m.Len())

	m.Start(10)
	m.Step(3)
	m.Step(7)

	for _, r := range []*Recorder{a, b} {
		require.Equal(t, []int{10}, r.Totals)
		require.Equal(t, []int{3, 7}, r.Steps)
		require.Equal(t, 10, r.Done())
	}
}

func TestNopIgnoresEverything(t *testing.T) {
	var l Listener = Nop{}
	l.Start(5)
	l.Step(5)
}

func TestLoggedWritesStepsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogged(logging.New(&buf, slog.LevelDebug))

	l.Start(4)
	l.Step(3)
	l.Step(1)
	l.Start(2)
	l.Step(2)

	require.Equal(t, "DEBUG: Processed 3 of 4 files.\n"+
		"DEBUG: Processed 4 of 4 files.\n"+
		"DEBUG: Processed 2 of 2 files.\n", buf.String())
}

func TestLoggedSilentAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	m := NewMulti(&Recorder{}, NewLogged(logging.New(&buf, slog.LevelInfo)))
	m.Start(1)
	m.Step(1)
	require.Empty(t, buf.String())
}
