// Package indexer rebuilds posting list files from the configured SQL
// sources, either continuously on their cron schedules or once on demand.
package indexer

import (
	"container/heap"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bazhenov/tindex/internal/debug"
	"github.com/bazhenov/tindex/internal/source"
	"github.com/bazhenov/tindex/pkg/encoding"
)

// Service drives the rebuild loop for a set of databases, writing posting
// list files into the index directory.
type Service struct {
	path string
	dbs  []source.Database
}

func New(path string, dbs []source.Database) *Service {
	return &Service{path: path, dbs: dbs}
}

// Run starts one worker per database and blocks until the context is
// cancelled or a worker fails. The first failure cancels the rest.
func (s *Service) Run(ctx context.Context) error {
	if err := os.MkdirAll(s.path, 0o755); err != nil {
		return fmt.Errorf("indexer: %w", err)
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, db := range s.dbs {
		g.Go(func() error { return s.worker(ctx, db) })
	}
	return g.Wait()
}

// worker executes db's queries in schedule order. The connection is
// established once and reused across runs, matching the one-connection-per-
// database serving model of the sources.
func (s *Service) worker(ctx context.Context, db source.Database) error {
	pending := newSchedule(db.Queries(), time.Now())
	if pending.Len() == 0 {
		return nil
	}

	conn, err := db.Connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	for pending.Len() > 0 {
		next := heap.Pop(pending).(scheduled)
		debug.Logf("indexer: %s/%s next run at %s", db.Name(), next.query.Name, next.at.Format(time.RFC3339))

		if err := sleepUntil(ctx, next.at); err != nil {
			return err
		}
		if err := s.runQuery(ctx, conn, next.query); err != nil {
			return fmt.Errorf("indexer: %s/%s: %w", db.Name(), next.query.Name, err)
		}
		if at := next.query.Schedule.Next(time.Now()); !at.IsZero() {
			heap.Push(pending, scheduled{at: at, query: next.query})
		}
	}
	return nil
}

// Update runs the named queries once, immediately, across every database.
// Names that match no configured query are an error.
func Update(ctx context.Context, path string, dbs []source.Database, names []string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("indexer: %w", err)
	}
	remaining := map[string]bool{}
	for _, name := range names {
		remaining[name] = true
	}

	s := &Service{path: path}
	for _, db := range dbs {
		var selected []source.Query
		for _, q := range db.Queries() {
			if remaining[q.Name] {
				selected = append(selected, q)
				delete(remaining, q.Name)
			}
		}
		if len(selected) == 0 {
			continue
		}
		if err := runOnce(ctx, s, db, selected); err != nil {
			return err
		}
	}

	if len(remaining) > 0 {
		unknown := make([]string, 0, len(remaining))
		for name := range remaining {
			unknown = append(unknown, name)
		}
		sort.Strings(unknown)
		return fmt.Errorf("indexer: unknown queries: %v", unknown)
	}
	return nil
}

func runOnce(ctx context.Context, s *Service, db source.Database, queries []source.Query) error {
	conn, err := db.Connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	for _, q := range queries {
		if err := s.runQuery(ctx, conn, q); err != nil {
			return fmt.Errorf("indexer: %s/%s: %w", db.Name(), q.Name, err)
		}
	}
	return nil
}

// runQuery fetches the ids for q and atomically replaces its .idx file.
func (s *Service) runQuery(ctx context.Context, conn source.Conn, q source.Query) error {
	started := time.Now()
	ids, err := conn.FetchIDs(ctx, q.SQL)
	if err != nil {
		return err
	}
	normalize(ids)
	ids = dedupe(ids)

	if err := writeList(filepath.Join(s.path, q.Name+".idx"), ids); err != nil {
		return err
	}
	debug.Logf("indexer: %s rebuilt with %d ids in %s", q.Name, len(ids), time.Since(started))
	return nil
}

func normalize(ids []uint64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

func dedupe(ids []uint64) []uint64 {
	out := ids[:0]
	for i, id := range ids {
		if i == 0 || id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}

// writeList writes ids to path through a temp file in the same directory,
// so readers only ever observe complete lists.
func writeList(path string, ids []uint64) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tindex-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := encoding.NewEncoder(tmp)
	if err := enc.WriteAll(ids); err != nil {
		tmp.Close()
		return err
	}
	if err := enc.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func sleepUntil(ctx context.Context, at time.Time) error {
	wait := time.Until(at)
	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
