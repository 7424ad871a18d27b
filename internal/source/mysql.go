package source

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/bazhenov/tindex/internal/config"
)

// MySQL feeds posting lists from a MySQL server. The DSN comes from the
// config url; user and password are overridden from the environment
// variables MYSQL_<NAME>_USER and MYSQL_<NAME>_PASSWORD when set.
type MySQL struct {
	name    string
	dsn     string
	queries []Query
}

func NewMySQL(db config.Database) (*MySQL, error) {
	queries, err := buildQueries(db)
	if err != nil {
		return nil, fmt.Errorf("mysql %s: %w", db.Name, err)
	}
	dsn, err := mysqlDSN(db.Name, db.URL)
	if err != nil {
		return nil, fmt.Errorf("mysql %s: %w", db.Name, err)
	}
	return &MySQL{name: db.Name, dsn: dsn, queries: queries}, nil
}

func (db *MySQL) Name() string {
	return db.name
}

func (db *MySQL) Queries() []Query {
	return db.queries
}

func (db *MySQL) Connect() (Conn, error) {
	pool, err := sql.Open("mysql", db.dsn)
	if err != nil {
		return nil, fmt.Errorf("source: mysql %s: %w", db.name, err)
	}
	return &sqlConn{name: db.name, db: pool}, nil
}

func mysqlDSN(name, url string) (string, error) {
	cfg, err := mysql.ParseDSN(url)
	if err != nil {
		return "", fmt.Errorf("dsn %q: %w", url, err)
	}
	if user := os.Getenv(envVar("MYSQL", name, "USER")); user != "" {
		cfg.User = user
	}
	if pass := os.Getenv(envVar("MYSQL", name, "PASSWORD")); pass != "" {
		cfg.Passwd = pass
	}
	return cfg.FormatDSN(), nil
}

func envVar(flavor, name, field string) string {
	return flavor + "_" + strings.ToUpper(name) + "_" + field
}
