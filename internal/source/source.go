// Package source pulls document ids out of upstream SQL databases. Each
// configured database hands out connections that execute the configured
// queries; the indexer turns the results into posting list files.
package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/bazhenov/tindex/internal/config"
)

// Query is one named extraction a database refreshes on a schedule.
type Query struct {
	Name     string
	Schedule cron.Schedule
	SQL      string
}

// Database describes one upstream server and its queries.
type Database interface {
	Name() string
	Queries() []Query
	Connect() (Conn, error)
}

// Conn executes SQL and returns the raw, unsorted document ids.
type Conn interface {
	FetchIDs(ctx context.Context, query string) ([]uint64, error)
	Close() error
}

// FromConfig builds every database the configuration names.
func FromConfig(cfg *config.Config) ([]Database, error) {
	var dbs []Database
	for _, db := range cfg.MySQL {
		built, err := NewMySQL(db)
		if err != nil {
			return nil, err
		}
		dbs = append(dbs, built)
	}
	for _, db := range cfg.Postgres {
		built, err := NewPostgres(db)
		if err != nil {
			return nil, err
		}
		dbs = append(dbs, built)
	}
	return dbs, nil
}

func buildQueries(db config.Database) ([]Query, error) {
	queries := make([]Query, 0, len(db.Queries))
	for _, q := range db.Queries {
		schedule, err := config.ParseSchedule(q.Schedule)
		if err != nil {
			return nil, fmt.Errorf("source: query %s: %w", q.Name, err)
		}
		queries = append(queries, Query{Name: q.Name, Schedule: schedule, SQL: q.SQL})
	}
	return queries, nil
}

// sqlConn adapts a database/sql pool to Conn; both drivers share it.
type sqlConn struct {
	name string
	db   *sql.DB
}

func (c *sqlConn) FetchIDs(ctx context.Context, query string) ([]uint64, error) {
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("source: %s: query: %w", c.name, err)
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("source: %s: scan: %w", c.name, err)
		}
		if id < 0 {
			return nil, fmt.Errorf("source: %s: negative document id %d", c.name, id)
		}
		ids = append(ids, uint64(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("source: %s: rows: %w", c.name, err)
	}
	return ids, nil
}

func (c *sqlConn) Close() error {
	return c.db.Close()
}
