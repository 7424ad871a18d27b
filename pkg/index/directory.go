package index

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bazhenov/tindex/pkg/encoding"
	"github.com/bazhenov/tindex/pkg/postlist"
)

const fileSuffix = ".idx"

// Directory serves terms from a flat directory where term t is stored in
// the file t.idx. It holds no mutable state: files are opened lazily per
// lookup and owned by the returned decoder, so lookups from concurrent
// requests never contend.
type Directory struct {
	root string
}

// NewDirectory returns an index rooted at root. The directory is not
// required to exist yet; lookups fail individually.
func NewDirectory(root string) *Directory {
	return &Directory{root: root}
}

// Root returns the directory the index reads from.
func (ix *Directory) Root() string {
	return ix.root
}

func (ix *Directory) Lookup(term string) (postlist.Decoder, error) {
	dec, err := encoding.Open(filepath.Join(ix.root, term+fileSuffix))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &TermNotFoundError{Term: term}
		}
		return nil, err
	}
	return dec, nil
}

// Terms lists every term present in the directory, sorted.
func (ix *Directory) Terms() ([]string, error) {
	entries, err := os.ReadDir(ix.root)
	if err != nil {
		return nil, fmt.Errorf("index: list %s: %w", ix.root, err)
	}
	var terms []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		terms = append(terms, strings.TrimSuffix(name, fileSuffix))
	}
	sort.Strings(terms)
	return terms, nil
}
