// Package index resolves term names to posting list decoders.
package index

import (
	"fmt"
	"sort"

	"github.com/bazhenov/tindex/pkg/postlist"
)

// Index resolves a term to a decoder over its posting list. Implementations
// must be safe for concurrent lookups; every call returns an independent
// decoder owned by the caller.
type Index interface {
	Lookup(term string) (postlist.Decoder, error)
}

// TermLister is implemented by indexes that can enumerate their terms.
type TermLister interface {
	Terms() ([]string, error)
}

// TermNotFoundError reports a lookup of a term the index does not hold.
type TermNotFoundError struct {
	Term string
}

func (e *TermNotFoundError) Error() string {
	return fmt.Sprintf("term not found: %s", e.Term)
}

// Memory is an in-memory Index for tests and embedding hosts. The map is
// read-only after construction; posting lists must be ascending and unique.
type Memory map[string][]uint64

func (ix Memory) Lookup(term string) (postlist.Decoder, error) {
	ids, ok := ix[term]
	if !ok {
		return nil, &TermNotFoundError{Term: term}
	}
	return postlist.NewVecDecoder(ids), nil
}

func (ix Memory) Terms() ([]string, error) {
	terms := make([]string, 0, len(ix))
	for term := range ix {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms, nil
}
