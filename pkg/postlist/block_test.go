package postlist

import (
	"math/bits"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The permutation table must pack exactly the set bits of the mask, in
// ascending lane order.
func TestBlockPermTable(t *testing.T) {
	for mask := 0; mask < 16; mask++ {
		var want []uint8
		for lane := uint8(0); lane < blockLanes; lane++ {
			if mask&(1<<lane) != 0 {
				want = append(want, lane)
			}
		}
		got := blockPerm[mask][:bits.OnesCount8(uint8(mask))]
		require.Equal(t, len(want), len(got), "mask %04b", mask)
		for k := range want {
			assert.Equal(t, want[k], got[k], "mask %04b lane %d", mask, k)
		}
	}
}

// Drive the block path through every one of the 16 mask values and check
// the emitted ids against the matched lanes.
func TestIntersectBlockAllMasks(t *testing.T) {
	va := []uint64{10, 20, 30, 40}
	fillers := []uint64{5, 15, 25, 35, 45, 50, 55}

	for mask := 0; mask < 16; mask++ {
		var want []uint64
		for lane := 0; lane < blockLanes; lane++ {
			if mask&(1<<lane) != 0 {
				want = append(want, va[lane])
			}
		}
		vb := append([]uint64(nil), want...)
		for _, f := range fillers {
			if len(vb) == blockLanes {
				break
			}
			vb = append(vb, f)
		}
		sortUint64(vb)

		got := drain(t, Intersect(vecCursor(va), vecCursor(vb)))
		if len(want) == 0 {
			assert.Empty(t, got, "mask %04b vb=%v", mask, vb)
		} else {
			assert.Equal(t, want, got, "mask %04b vb=%v", mask, vb)
		}
	}
}

// The block path must be invisible: long dense lists, where full blocks are
// the common case, produce the same stream as the naive oracle.
func TestIntersectBlockMatchesScalar(t *testing.T) {
	runSeeded(t, func(t *testing.T, rng *rand.Rand) {
		for i := 0; i < 100; i++ {
			a := denseList(rng, 32+rng.Intn(96))
			b := denseList(rng, 32+rng.Intn(96))
			want := naiveIntersect(a, b)

			got := drain(t, Intersect(vecCursor(a), vecCursor(b)))
			require.Equal(t, want, got, "a=%v b=%v", a, b)
		}
	})
}

// Blocks whose last lanes are equal consume both sides; make sure the
// boundary id is still emitted exactly once.
func TestIntersectBlockEqualLastLane(t *testing.T) {
	a := []uint64{1, 3, 5, 8, 9, 11, 13, 15}
	b := []uint64{2, 4, 6, 8, 9, 11, 13, 15}

	got := drain(t, Intersect(vecCursor(a), vecCursor(b)))
	assert.Equal(t, []uint64{8, 9, 11, 13, 15}, got)
}

func denseList(rng *rand.Rand, size int) []uint64 {
	list := make([]uint64, 0, size)
	id := uint64(0)
	for i := 0; i < size; i++ {
		id += 1 + uint64(rng.Intn(2))
		list = append(list, id)
	}
	return list
}
