// Package config loads the YAML configuration describing where the index
// lives, where the server listens, and which database queries feed the
// posting lists on which schedules.
package config

import (
	"fmt"
	"os"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v2"
)

// DefaultPath is where the CLI looks for configuration unless told
// otherwise.
const DefaultPath = "config.yaml"

type Config struct {
	Index    Index      `yaml:"index"`
	Server   Server     `yaml:"server"`
	MySQL    []Database `yaml:"mysql"`
	Postgres []Database `yaml:"postgres"`
}

type Index struct {
	// Path is the directory holding the .idx posting list files.
	Path string `yaml:"path"`
}

type Server struct {
	Listen string `yaml:"listen"`
}

// Database is one upstream SQL server contributing posting lists.
// Credentials never live in the file; they come from the environment per
// database name (MYSQL_<NAME>_USER and so on, see internal/source).
type Database struct {
	Name    string  `yaml:"name"`
	URL     string  `yaml:"url"`
	Queries []Query `yaml:"queries"`
}

// Query is one named extraction refreshed on a cron schedule. The query
// name doubles as the term name: its results land in <name>.idx.
type Query struct {
	Name     string `yaml:"name"`
	Schedule string `yaml:"schedule"`
	SQL      string `yaml:"sql"`
}

// scheduleParser accepts the classic five fields, an optional leading
// seconds field, and the @hourly family of descriptors.
var scheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule parses a cron expression in the format config files use.
func ParseSchedule(expr string) (cron.Schedule, error) {
	return scheduleParser.Parse(expr)
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.UnmarshalStrict(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Index.Path == "" {
		cfg.Index.Path = "./index"
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = "127.0.0.1:8080"
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	for _, db := range c.Databases() {
		if db.Name == "" {
			return fmt.Errorf("database without a name")
		}
		if db.URL == "" {
			return fmt.Errorf("database %s: missing url", db.Name)
		}
		seen := map[string]bool{}
		for _, q := range db.Queries {
			if q.Name == "" {
				return fmt.Errorf("database %s: query without a name", db.Name)
			}
			if seen[q.Name] {
				return fmt.Errorf("database %s: duplicate query %s", db.Name, q.Name)
			}
			seen[q.Name] = true
			if q.SQL == "" {
				return fmt.Errorf("query %s: missing sql", q.Name)
			}
			if _, err := ParseSchedule(q.Schedule); err != nil {
				return fmt.Errorf("query %s: schedule %q: %w", q.Name, q.Schedule, err)
			}
		}
	}
	return nil
}

// Databases returns every configured database regardless of flavor.
func (c *Config) Databases() []Database {
	out := make([]Database, 0, len(c.MySQL)+len(c.Postgres))
	out = append(out, c.MySQL...)
	out = append(out, c.Postgres...)
	return out
}
