package services

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// applyReorder mirrors the SQL a Reorder mutation executes: shift the
// window by delta, then drop the moved item on its target position.
// ids[i] holds the id of the item currently at position i.
func applyReorder(ids []string, from, to int) []string {
	positions := make(map[string]int, len(ids))
	for pos, id := range ids {
		positions[id] = pos
	}

	moved := ids[from]
	lo, hi, delta := ShiftWindow(from, to)
	for id, pos := range positions {
		if id != moved && pos >= lo && pos <= hi {
			positions[id] = pos + delta
		}
	}
	positions[moved] = to

	out := make([]string, len(ids))
	for id, pos := range positions {
		out[pos] = id
	}
	return out
}

func TestShiftWindow_MoveDown(t *testing.T) {
	lo, hi, delta := ShiftWindow(1, 4)

	assert.Equal(t, 2, lo)
	assert.Equal(t, 4, hi)
	assert.Equal(t, -1, delta)
}

func TestShiftWindow_MoveUp(t *testing.T) {
	lo, hi, delta := ShiftWindow(4, 1)

	assert.Equal(t, 1, lo)
	assert.Equal(t, 3, hi)
	assert.Equal(t, +1, delta)
}

func TestReorder_PositionsStayDense(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}

	for from := 0; from < len(ids); from++ {
		for to := 0; to < len(ids); to++ {
			if from == to {
				continue
			}

			out := applyReorder(ids, from, to)

			// Every id survives and occupies exactly one slot 0..n-1.
			require.Len(t, out, len(ids))
			seen := append([]string(nil), out...)
			sort.Strings(seen)
			assert.Equal(t, []string{"a", "b", "c", "d", "e"}, seen, "from=%d to=%d", from, to)
			assert.Equal(t, ids[from], out[to], "moved item must land on target")
		}
	}
}

func TestReorder_RoundTripRestoresOrder(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f"}

	for from := 0; from < len(ids); from++ {
		for to := 0; to < len(ids); to++ {
			if from == to {
				continue
			}

			once := applyReorder(ids, from, to)
			back := applyReorder(once, to, from)

			assert.Equal(t, ids, back, "reorder(%d,%d) then reorder(%d,%d)", from, to, to, from)
		}
	}
}

func TestReorder_AdjacentSwap(t *testing.T) {
	ids := []string{"a", "b", "c"}

	out := applyReorder(ids, 0, 1)

	assert.Equal(t, []string{"b", "a", "c"}, out)
}
