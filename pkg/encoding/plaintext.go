// Package encoding reads and writes the plaintext posting list format: one
// ASCII decimal id per line, strictly ascending, newline terminated, no
// blank lines and no header.
package encoding

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bazhenov/tindex/pkg/postlist"
)

// Encoder writes a posting list in the plaintext format. Writes are
// buffered; callers must Flush before relying on the output.
type Encoder struct {
	w    *bufio.Writer
	last uint64
	any  bool
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// Write appends one id. Ids must arrive strictly ascending and must not be
// the NoDoc sentinel.
func (e *Encoder) Write(id uint64) error {
	if id == postlist.NoDoc {
		return errors.New("encoding: cannot encode the NoDoc sentinel")
	}
	if e.any && id <= e.last {
		return fmt.Errorf("encoding: ids must be strictly increasing, got %d after %d", id, e.last)
	}
	e.last, e.any = id, true

	var scratch [20]byte
	if _, err := e.w.Write(strconv.AppendUint(scratch[:0], id, 10)); err != nil {
		return err
	}
	return e.w.WriteByte('\n')
}

// WriteAll appends every id in order.
func (e *Encoder) WriteAll(ids []uint64) error {
	for _, id := range ids {
		if err := e.Write(id); err != nil {
			return err
		}
	}
	return nil
}

// Flush drains the internal buffer to the underlying writer.
func (e *Encoder) Flush() error {
	return e.w.Flush()
}

// MalformedListError reports a posting list file that violates the format:
// a non-decimal line, a blank interior line, the NoDoc sentinel, or an id
// out of order.
type MalformedListError struct {
	Path   string
	Line   int
	Reason string
}

func (e *MalformedListError) Error() string {
	return fmt.Sprintf("malformed posting list %s:%d: %s", e.Path, e.Line, e.Reason)
}

// LineDecoder streams a plaintext posting list, implementing
// postlist.Decoder. It validates the format while decoding: violations are
// fatal for the cursor built on top. When constructed over an io.Closer
// (such as an *os.File) the decoder owns it and releases it on Close.
type LineDecoder struct {
	r      *bufio.Reader
	closer io.Closer
	path   string
	line   int
	last   uint64
	any    bool
	eof    bool
	blank  int // line number of a pending blank line, 0 when none
}

// NewLineDecoder reads from r. path is used in error messages only.
func NewLineDecoder(r io.Reader, path string) *LineDecoder {
	d := &LineDecoder{r: bufio.NewReader(r), path: path}
	if c, ok := r.(io.Closer); ok {
		d.closer = c
	}
	return d
}

// Open returns a line decoder over the file at path.
func Open(path string) (*LineDecoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("encoding: open %s: %w", path, err)
	}
	return NewLineDecoder(f, path), nil
}

func (d *LineDecoder) NextBatch(buf []uint64) (int, error) {
	for i := range buf {
		id, ok, err := d.read()
		if err != nil {
			return 0, err
		}
		if !ok {
			// Short fill happens at end of stream only.
			return i, nil
		}
		buf[i] = id
	}
	return len(buf), nil
}

// Close releases the underlying file, if any. Safe to call twice.
func (d *LineDecoder) Close() error {
	if d.closer == nil {
		return nil
	}
	c := d.closer
	d.closer = nil
	return c.Close()
}

// read returns the next id, or ok=false at end of stream.
func (d *LineDecoder) read() (uint64, bool, error) {
	for {
		if d.eof {
			return 0, false, nil
		}
		raw, err := d.r.ReadString('\n')
		if err == io.EOF {
			d.eof = true
			if raw == "" {
				return 0, false, nil
			}
			// Final line without the trailing newline still counts.
		} else if err != nil {
			return 0, false, fmt.Errorf("encoding: read %s: %w", d.path, err)
		}
		d.line++

		s := strings.TrimSuffix(raw, "\n")
		if s == "" {
			// Tolerated only as trailing padding: remember it and fail if
			// any content follows.
			if d.blank == 0 {
				d.blank = d.line
			}
			continue
		}
		if d.blank != 0 {
			return 0, false, d.malformedAt(d.blank, "blank line")
		}

		id, perr := strconv.ParseUint(s, 10, 64)
		if perr != nil {
			return 0, false, d.malformed(fmt.Sprintf("not a document id: %q", s))
		}
		if id == postlist.NoDoc {
			return 0, false, d.malformed("id is the NoDoc sentinel")
		}
		if d.any && id <= d.last {
			return 0, false, d.malformed(fmt.Sprintf("id %d not greater than %d", id, d.last))
		}
		d.last, d.any = id, true
		return id, true, nil
	}
}

func (d *LineDecoder) malformed(reason string) error {
	return d.malformedAt(d.line, reason)
}

func (d *LineDecoder) malformedAt(line int, reason string) error {
	return &MalformedListError{Path: d.path, Line: line, Reason: reason}
}
