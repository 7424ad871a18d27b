package postlist

import (
	"errors"
	"io"
)

// Cursor adapts a Decoder to a per-document interface. It owns a fixed
// BufferSize window refilled batch-by-batch, so an operator tree pays one
// virtual call per batch rather than one per document.
//
// Ids observed through a cursor are strictly increasing over its lifetime.
// A cursor is single-owner: one goroutine builds it, drives it, and closes
// it. Once the underlying decoder is exhausted or fails, every positional
// call returns NoDoc; Err reports the failure, in the bufio.Scanner manner.
type Cursor struct {
	dec  Decoder
	buf  [BufferSize]uint64
	n    int // valid prefix of buf written by the last decoder call
	pos  int // index of the current element within buf[:n]
	done bool
	err  error
}

// NewCursor wraps dec. The cursor takes ownership: closing the cursor closes
// the decoder if it holds resources.
func NewCursor(dec Decoder) *Cursor {
	return &Cursor{dec: dec}
}

// Current returns the id at the cursor position without moving, or NoDoc
// when the stream is exhausted. Idempotent.
func (c *Cursor) Current() uint64 {
	if !c.fill() {
		return NoDoc
	}
	return c.buf[c.pos]
}

// Next moves one position forward and returns the new current id, or NoDoc.
func (c *Cursor) Next() uint64 {
	c.pos++
	if !c.fill() {
		return NoDoc
	}
	return c.buf[c.pos]
}

// Advance fast-forwards to the first id >= target and returns it, or NoDoc.
// A target at or below the current position is a no-op returning the
// current id.
func (c *Cursor) Advance(target uint64) uint64 {
	cur := c.Current()
	if cur == NoDoc || cur >= target {
		return cur
	}
	if c.buf[c.n-1] < target {
		// The whole buffered window falls short: let the decoder skip.
		n, err := nextBatchAdvance(c.dec, target, c.buf[:])
		if err != nil {
			c.fail(err)
			return NoDoc
		}
		c.n, c.pos = n, 0
		if n == 0 {
			c.done = true
			return NoDoc
		}
		cur = c.buf[0]
	}
	for cur != NoDoc && cur < target {
		cur = c.Next()
	}
	return cur
}

// Err returns the first error encountered by the underlying decoder chain.
// A query that drained to NoDoc is only complete if Err returns nil.
func (c *Cursor) Err() error {
	return c.err
}

// Close releases the resources owned by the cursor's decoder chain, such as
// file handles of line decoders. Closing a cursor cancels the query.
func (c *Cursor) Close() error {
	if cl, ok := c.dec.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

// fill makes buf[pos] valid, refilling from the decoder when the window is
// consumed. Reports false when the stream is exhausted or failed.
func (c *Cursor) fill() bool {
	if c.done {
		return false
	}
	if c.pos < c.n {
		return true
	}
	n, err := c.dec.NextBatch(c.buf[:])
	if err != nil {
		c.fail(err)
		return false
	}
	c.n, c.pos = n, 0
	if n == 0 {
		c.done = true
		return false
	}
	return true
}

func (c *Cursor) fail(err error) {
	c.err = err
	c.done = true
	c.n, c.pos = 0, 0
}

// buffered returns the ids already decoded but not yet consumed. It never
// triggers a refill.
func (c *Cursor) buffered() []uint64 {
	if c.pos < c.n {
		return c.buf[c.pos:c.n]
	}
	return nil
}

// consume drops k buffered ids without observing them. Callers must have
// established via buffered that k ids are present.
func (c *Cursor) consume(k int) {
	c.pos += k
}

// closeBoth closes two child cursors, joining their errors.
func closeBoth(a, b *Cursor) error {
	return errors.Join(a.Close(), b.Close())
}
