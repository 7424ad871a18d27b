package indexer

import (
	"container/heap"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/bazhenov/tindex/internal/config"
	"github.com/bazhenov/tindex/internal/source"
	"github.com/bazhenov/tindex/pkg/encoding"
	"github.com/bazhenov/tindex/pkg/postlist"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestUpdateWritesSortedDeduped(t *testing.T) {
	dir := t.TempDir()
	db := &fakeDatabase{
		name: "m",
		queries: []source.Query{
			query(t, "users", "@hourly"),
		},
		results: map[string][]uint64{
			"select users": {9, 1, 5, 1, 9, 3},
		},
	}

	err := Update(context.Background(), dir, []source.Database{db}, []string{"users"})
	require.NoError(t, err)

	assert.Equal(t, []uint64{1, 3, 5, 9}, readList(t, filepath.Join(dir, "users.idx")))
	assert.Equal(t, 1, db.connects, "one connection per database")
}

func TestUpdateOverwritesAtomically(t *testing.T) {
	dir := t.TempDir()
	db := &fakeDatabase{
		name:    "m",
		queries: []source.Query{query(t, "users", "@hourly")},
		results: map[string][]uint64{"select users": {1, 2}},
	}

	require.NoError(t, Update(context.Background(), dir, []source.Database{db}, []string{"users"}))
	db.results["select users"] = []uint64{7}
	require.NoError(t, Update(context.Background(), dir, []source.Database{db}, []string{"users"}))

	assert.Equal(t, []uint64{7}, readList(t, filepath.Join(dir, "users.idx")))

	leftovers, err := filepath.Glob(filepath.Join(dir, ".tindex-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "temp files must not survive")
}

func TestUpdateUnknownQuery(t *testing.T) {
	db := &fakeDatabase{name: "m", queries: []source.Query{query(t, "users", "@hourly")}}

	err := Update(context.Background(), t.TempDir(), []source.Database{db}, []string{"ghost"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
	assert.Equal(t, 0, db.connects, "no connection for unmatched names")
}

func TestUpdateEmptyResult(t *testing.T) {
	dir := t.TempDir()
	db := &fakeDatabase{
		name:    "m",
		queries: []source.Query{query(t, "users", "@hourly")},
		results: map[string][]uint64{"select users": {}},
	}

	require.NoError(t, Update(context.Background(), dir, []source.Database{db}, []string{"users"}))
	assert.Empty(t, readList(t, filepath.Join(dir, "users.idx")))
}

func TestUpdatePropagatesFetchError(t *testing.T) {
	failure := errors.New("connection lost")
	db := &fakeDatabase{
		name:     "m",
		queries:  []source.Query{query(t, "users", "@hourly")},
		fetchErr: failure,
	}

	err := Update(context.Background(), t.TempDir(), []source.Database{db}, []string{"users"})
	assert.ErrorIs(t, err, failure)
}

func TestRunStopsOnCancel(t *testing.T) {
	db := &fakeDatabase{
		name:    "m",
		queries: []source.Query{query(t, "users", "@hourly")},
	}
	s := New(t.TempDir(), []source.Database{db})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}

func TestRunExecutesDueQuery(t *testing.T) {
	dir := t.TempDir()
	db := &fakeDatabase{
		name:    "m",
		queries: []source.Query{query(t, "users", "* * * * * *")}, // every second
		results: map[string][]uint64{"select users": {4, 2}},
	}
	s := New(dir, []source.Database{db})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(readListOk(filepath.Join(dir, "users.idx"))) == 2
	}, 8*time.Second, 50*time.Millisecond)

	cancel()
	require.Error(t, <-done) // context cancellation
	assert.Equal(t, []uint64{2, 4}, readList(t, filepath.Join(dir, "users.idx")))
}

func TestScheduleHeapOrder(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 30, 0, time.UTC)
	h := newSchedule([]source.Query{
		query(t, "daily", "@daily"),
		query(t, "secondly", "* * * * * *"),
		query(t, "hourly", "@hourly"),
	}, now)

	var order []string
	for h.Len() > 0 {
		order = append(order, heap.Pop(h).(scheduled).query.Name)
	}
	assert.Equal(t, []string{"secondly", "hourly", "daily"}, order)
}

// --- fakes ---

type fakeDatabase struct {
	name     string
	queries  []source.Query
	results  map[string][]uint64
	fetchErr error
	connects int
}

func (db *fakeDatabase) Name() string            { return db.name }
func (db *fakeDatabase) Queries() []source.Query { return db.queries }

func (db *fakeDatabase) Connect() (source.Conn, error) {
	db.connects++
	return &fakeConn{db: db}, nil
}

type fakeConn struct {
	db *fakeDatabase
}

func (c *fakeConn) FetchIDs(ctx context.Context, q string) ([]uint64, error) {
	if c.db.fetchErr != nil {
		return nil, c.db.fetchErr
	}
	ids, ok := c.db.results[q]
	if !ok {
		return nil, errors.New("unexpected query: " + q)
	}
	return append([]uint64(nil), ids...), nil
}

func (c *fakeConn) Close() error { return nil }

func query(t *testing.T, name, schedule string) source.Query {
	t.Helper()
	parsed, err := config.ParseSchedule(schedule)
	require.NoError(t, err)
	return source.Query{Name: name, Schedule: parsed, SQL: "select " + name}
}

func readList(t *testing.T, path string) []uint64 {
	t.Helper()
	dec, err := encoding.Open(path)
	require.NoError(t, err)
	defer dec.Close()
	ids, err := postlist.Drain(dec)
	require.NoError(t, err)
	return ids
}

func readListOk(path string) []uint64 {
	dec, err := encoding.Open(path)
	if err != nil {
		return nil
	}
	defer dec.Close()
	ids, _ := postlist.Drain(dec)
	return ids
}
