package profiling

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTrackAccumulates(t *testing.T) {
	ResetFrame()
	Track("a.one")()
	Track("a.one")()
	Track("b.two")()

	ss := Snapshot()
	require.Contains(t, ss, "a.one")
	require.Contains(t, ss, "b.two")
	require.Equal(t, ss["a.one"]+ss["b.two"], SumWithPrefix(""))
	require.Equal(t, ss["a.one"], SumWithPrefix("a."))

	ResetFrame()
	require.Empty(t, Snapshot())
}

func TestTopNOrdersByDuration(t *testing.T) {
	ResetFrame()
	mu.Lock()
	tickTotals["slow"] = 4200 * time.Microsecond
	tickTotals["fast"] = 2 * time.Millisecond
	tickTotals["idle"] = time.Microsecond
	mu.Unlock()

	out := TopN(2)
	require.Equal(t, "slow:4.2ms, fast:2ms", out)
	require.False(t, strings.Contains(out, "idle"))
	ResetFrame()
}
