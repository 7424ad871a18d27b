package source

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/lib/pq"

	"github.com/bazhenov/tindex/internal/config"
)

// Postgres feeds posting lists from a PostgreSQL server. The config url is
// accepted in either URL or keyword form; credentials are overridden from
// POSTGRES_<NAME>_USER and POSTGRES_<NAME>_PASSWORD when set.
type Postgres struct {
	name    string
	dsn     string
	queries []Query
}

func NewPostgres(db config.Database) (*Postgres, error) {
	queries, err := buildQueries(db)
	if err != nil {
		return nil, fmt.Errorf("postgres %s: %w", db.Name, err)
	}
	dsn, err := postgresDSN(db.Name, db.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres %s: %w", db.Name, err)
	}
	return &Postgres{name: db.Name, dsn: dsn, queries: queries}, nil
}

func (db *Postgres) Name() string {
	return db.name
}

func (db *Postgres) Queries() []Query {
	return db.queries
}

func (db *Postgres) Connect() (Conn, error) {
	pool, err := sql.Open("postgres", db.dsn)
	if err != nil {
		return nil, fmt.Errorf("source: postgres %s: %w", db.name, err)
	}
	return &sqlConn{name: db.name, db: pool}, nil
}

func postgresDSN(name, url string) (string, error) {
	dsn := url
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		parsed, err := pq.ParseURL(url)
		if err != nil {
			return "", fmt.Errorf("dsn %q: %w", url, err)
		}
		dsn = parsed
	}
	if user := os.Getenv(envVar("POSTGRES", name, "USER")); user != "" {
		dsn += " user=" + quoteConnValue(user)
	}
	if pass := os.Getenv(envVar("POSTGRES", name, "PASSWORD")); pass != "" {
		dsn += " password=" + quoteConnValue(pass)
	}
	return strings.TrimSpace(dsn), nil
}

// quoteConnValue quotes a keyword/value connection string value the way
// libpq expects when it contains spaces or quotes.
func quoteConnValue(v string) string {
	if !strings.ContainsAny(v, " '\\") {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
