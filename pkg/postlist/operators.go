package postlist

// The operators implement Decoder over two child cursors, so an operator's
// own cursor buffer doubles as scratch space for its parent. Each child
// cursor is owned exclusively by the operator and closed with it.

// Intersect returns a cursor over the ids present in both a and b.
func Intersect(a, b *Cursor) *Cursor {
	return NewCursor(&intersectDecoder{a: a, b: b})
}

// Merge returns a cursor over the ids present in either a or b, each id
// emitted once.
func Merge(a, b *Cursor) *Cursor {
	return NewCursor(&mergeDecoder{a: a, b: b})
}

// Exclude returns a cursor over the ids present in a but not in b.
func Exclude(a, b *Cursor) *Cursor {
	return NewCursor(&excludeDecoder{a: a, b: b})
}

type intersectDecoder struct {
	a, b *Cursor
}

func (d *intersectDecoder) NextBatch(buf []uint64) (int, error) {
	i := 0
	a := d.a.Current()
	b := d.b.Current()
	for a != NoDoc && b != NoDoc {
		if i+blockLanes <= len(buf) {
			if n, ok := intersectBlock(d.a, d.b, buf[i:]); ok {
				i += n
				if i == len(buf) {
					return i, nil
				}
				a, b = d.a.Current(), d.b.Current()
				continue
			}
		}
		if a < b {
			a = d.a.Advance(b)
			continue
		}
		if b < a {
			b = d.b.Advance(a)
			continue
		}
		for a == b && a != NoDoc {
			buf[i] = a
			i++
			a = d.a.Next()
			b = d.b.Next()
			if i == len(buf) {
				return i, nil
			}
		}
	}
	if err := childErr(d.a, d.b); err != nil {
		return 0, err
	}
	return i, nil
}

func (d *intersectDecoder) Close() error {
	return closeBoth(d.a, d.b)
}

type mergeDecoder struct {
	a, b *Cursor
}

func (d *mergeDecoder) NextBatch(buf []uint64) (int, error) {
	i := 0
	a := d.a.Current()
	b := d.b.Current()
	for i < len(buf) && (a != NoDoc || b != NoDoc) {
		// a < b covers an exhausted b as well: NoDoc compares greater
		// than every valid id.
		for a < b && i < len(buf) {
			buf[i] = a
			i++
			a = d.a.Next()
		}
		for b < a && i < len(buf) {
			buf[i] = b
			i++
			b = d.b.Next()
		}
		for a == b && a != NoDoc && i < len(buf) {
			buf[i] = a
			i++
			a = d.a.Next()
			b = d.b.Next()
		}
	}
	if err := childErr(d.a, d.b); err != nil {
		return 0, err
	}
	return i, nil
}

func (d *mergeDecoder) Close() error {
	return closeBoth(d.a, d.b)
}

type excludeDecoder struct {
	a, b *Cursor
}

func (d *excludeDecoder) NextBatch(buf []uint64) (int, error) {
	i := 0
	a := d.a.Current()
	b := d.b.Current()
	for i < len(buf) && a != NoDoc {
		for a < b && i < len(buf) {
			buf[i] = a
			i++
			a = d.a.Next()
		}
		if a == NoDoc {
			break
		}
		if b < a {
			b = d.b.Advance(a)
		}
		for a == b && a != NoDoc {
			a = d.a.Next()
			b = d.b.Next()
		}
	}
	if err := childErr(d.a, d.b); err != nil {
		return 0, err
	}
	return i, nil
}

func (d *excludeDecoder) Close() error {
	return closeBoth(d.a, d.b)
}

func childErr(a, b *Cursor) error {
	if err := a.Err(); err != nil {
		return err
	}
	return b.Err()
}
