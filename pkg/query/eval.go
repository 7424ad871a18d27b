package query

import (
	"fmt"

	"github.com/bazhenov/tindex/pkg/index"
	"github.com/bazhenov/tindex/pkg/postlist"
)

// Build resolves the AST's leaves through ix and folds the internal nodes
// into a single cursor the caller owns. On failure every cursor already
// built is closed.
func Build(node Node, ix index.Index) (*postlist.Cursor, error) {
	switch n := node.(type) {
	case Ident:
		dec, err := ix.Lookup(n.Name)
		if err != nil {
			return nil, err
		}
		return postlist.NewCursor(dec), nil
	case Intersect:
		l, r, err := buildPair(n.L, n.R, ix)
		if err != nil {
			return nil, err
		}
		return postlist.Intersect(l, r), nil
	case Merge:
		l, r, err := buildPair(n.L, n.R, ix)
		if err != nil {
			return nil, err
		}
		return postlist.Merge(l, r), nil
	case Exclude:
		l, r, err := buildPair(n.L, n.R, ix)
		if err != nil {
			return nil, err
		}
		return postlist.Exclude(l, r), nil
	default:
		return nil, fmt.Errorf("query: unknown node %T", node)
	}
}

func buildPair(left, right Node, ix index.Index) (*postlist.Cursor, *postlist.Cursor, error) {
	l, err := Build(left, ix)
	if err != nil {
		return nil, nil, err
	}
	r, err := Build(right, ix)
	if err != nil {
		l.Close()
		return nil, nil, err
	}
	return l, r, nil
}

// Run parses text and builds its cursor against ix. This is the composite
// entry point hosts use.
func Run(text string, ix index.Index) (*postlist.Cursor, error) {
	node, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return Build(node, ix)
}
