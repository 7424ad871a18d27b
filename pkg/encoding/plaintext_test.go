package encoding

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazhenov/tindex/pkg/postlist"
)

func TestPlaintextRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plaintext.idx")

	f, err := os.Create(path)
	require.NoError(t, err)
	enc := NewEncoder(f)
	for id := uint64(1); id < 10; id++ {
		require.NoError(t, enc.Write(id))
	}
	require.NoError(t, enc.Flush())
	require.NoError(t, f.Close())

	dec, err := Open(path)
	require.NoError(t, err)
	defer dec.Close()

	got, err := postlist.Drain(dec)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestEncoderRejectsOutOfOrder(t *testing.T) {
	enc := NewEncoder(&strings.Builder{})
	require.NoError(t, enc.Write(5))
	assert.Error(t, enc.Write(5))
	assert.Error(t, enc.Write(3))
	assert.Error(t, enc.Write(postlist.NoDoc))
}

func TestDecodeEmptyFile(t *testing.T) {
	got, err := postlist.Drain(decoder(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodeZeroAllowed(t *testing.T) {
	got, err := postlist.Drain(decoder("0\n3\n"))
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 3}, got)
}

func TestDecodeMissingFinalNewline(t *testing.T) {
	got, err := postlist.Drain(decoder("1\n4\n7"))
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 4, 7}, got)
}

func TestDecodeTrailingBlankLinesIgnored(t *testing.T) {
	got, err := postlist.Drain(decoder("1\n4\n\n\n"))
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 4}, got)
}

func TestDecodeInteriorBlankLine(t *testing.T) {
	_, err := postlist.Drain(decoder("1\n\n4\n"))
	requireMalformed(t, err, 2)
}

func TestDecodeNonDecimal(t *testing.T) {
	_, err := postlist.Drain(decoder("1\nfour\n"))
	requireMalformed(t, err, 2)
}

func TestDecodeNegative(t *testing.T) {
	_, err := postlist.Drain(decoder("-4\n"))
	requireMalformed(t, err, 1)
}

func TestDecodeNonMonotone(t *testing.T) {
	_, err := postlist.Drain(decoder("5\n5\n"))
	requireMalformed(t, err, 2)

	_, err = postlist.Drain(decoder("5\n3\n"))
	requireMalformed(t, err, 2)
}

func TestDecodeNoDocValue(t *testing.T) {
	_, err := postlist.Drain(decoder("18446744073709551615\n"))
	requireMalformed(t, err, 1)
}

func TestDecodeTrailingWhitespace(t *testing.T) {
	_, err := postlist.Drain(decoder("5 \n"))
	requireMalformed(t, err, 1)
}

// A malformed list surfaces through the cursor as a terminal error.
func TestCursorSurfacesMalformed(t *testing.T) {
	c := postlist.NewCursor(decoder("1\n2\nbroken\n"))

	for id := c.Current(); id != postlist.NoDoc; id = c.Next() {
	}
	var malformed *MalformedListError
	require.ErrorAs(t, c.Err(), &malformed)
	assert.Equal(t, 3, malformed.Line)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.idx"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func decoder(content string) *LineDecoder {
	return NewLineDecoder(strings.NewReader(content), "test.idx")
}

func requireMalformed(t *testing.T, err error, line int) {
	t.Helper()
	var malformed *MalformedListError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, line, malformed.Line)
	assert.Equal(t, "test.idx", malformed.Path)
}
