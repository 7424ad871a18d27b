package postlist

import "sort"

// VecDecoder serves a posting list held in memory. The backing slice is
// copied at construction and shared, read-only, between clones.
type VecDecoder struct {
	data []uint64
	pos  int
}

// NewVecDecoder wraps an ascending list of unique ids; the empty list is
// allowed. It panics when the input is out of order, duplicated, or contains
// NoDoc — in-memory lists come from trusted call sites, while data read from
// storage is validated by the line decoder instead.
func NewVecDecoder(input []uint64) *VecDecoder {
	data := make([]uint64, len(input))
	copy(data, input)
	for i, id := range data {
		if id == NoDoc {
			panic("postlist: posting list contains NoDoc")
		}
		if i > 0 && id <= data[i-1] {
			panic("postlist: posting list must be strictly increasing")
		}
	}
	return &VecDecoder{data: data}
}

// Clone returns an independent decoder rewound to the start of the list.
func (d *VecDecoder) Clone() *VecDecoder {
	return &VecDecoder{data: d.data}
}

func (d *VecDecoder) NextBatch(buf []uint64) (int, error) {
	if d.pos >= len(d.data) {
		return 0, nil
	}
	n := copy(buf, d.data[d.pos:])
	d.pos += n
	return n, nil
}

// NextBatchAdvance seeks directly to the first id >= target by binary
// search over the not-yet-emitted suffix.
func (d *VecDecoder) NextBatchAdvance(target uint64, buf []uint64) (int, error) {
	rest := d.data[d.pos:]
	d.pos += sort.Search(len(rest), func(i int) bool { return rest[i] >= target })
	return d.NextBatch(buf)
}
