package postlist

// RangeDecoder emits every id in the half-open interval [lo, hi). It backs
// synthetic posting lists in tests and benchmarks and is the cheapest
// decoder with a true random-access advance.
type RangeDecoder struct {
	lo, hi uint64
	next   uint64
}

// NewRangeDecoder returns a decoder over [lo, hi). lo must not be NoDoc and
// hi must not be below lo; both are programmer errors and panic.
func NewRangeDecoder(lo, hi uint64) *RangeDecoder {
	if lo == NoDoc {
		panic("postlist: range cannot start at NoDoc")
	}
	if hi < lo {
		panic("postlist: inverted range")
	}
	return &RangeDecoder{lo: lo, hi: hi, next: lo}
}

// Len reports the number of ids the full range holds.
func (d *RangeDecoder) Len() uint64 {
	return d.hi - d.lo
}

// Clone returns an independent decoder rewound to the start of the range.
func (d *RangeDecoder) Clone() *RangeDecoder {
	return &RangeDecoder{lo: d.lo, hi: d.hi, next: d.lo}
}

func (d *RangeDecoder) NextBatch(buf []uint64) (int, error) {
	return d.NextBatchAdvance(d.next, buf)
}

// NextBatchAdvance seeks the emission point to max(current, target) and
// fills from there, never past hi.
func (d *RangeDecoder) NextBatchAdvance(target uint64, buf []uint64) (int, error) {
	if target > d.next {
		d.next = target
	}
	if d.next >= d.hi {
		return 0, nil
	}
	n := len(buf)
	if rem := d.hi - d.next; uint64(n) > rem {
		n = int(rem)
	}
	for i := 0; i < n; i++ {
		buf[i] = d.next + uint64(i)
	}
	d.next += uint64(n)
	return n, nil
}
