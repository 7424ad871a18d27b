package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/bazhenov/tindex/internal/config"
	"github.com/bazhenov/tindex/internal/debug"
	"github.com/bazhenov/tindex/internal/indexer"
	"github.com/bazhenov/tindex/internal/server"
	"github.com/bazhenov/tindex/internal/source"
	"github.com/bazhenov/tindex/internal/version"
	"github.com/bazhenov/tindex/pkg/index"
	"github.com/bazhenov/tindex/pkg/postlist"
	"github.com/bazhenov/tindex/pkg/query"
)

func main() {
	// Credentials for the SQL sources are conventionally kept in .env
	// during development; absence is not an error.
	_ = godotenv.Load()

	app := &cli.App{
		Name:    "tindex",
		Usage:   "inverted index over SQL query results",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file path",
				Value:   config.DefaultPath,
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "log diagnostics to stderr",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				debug.SetOutput(os.Stderr)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "query",
				Usage:     "run a query over an index directory",
				ArgsUsage: "<index-path> <query>",
				Action:    runQuery,
			},
			{
				Name:      "serve",
				Usage:     "run the REST API over an index directory",
				ArgsUsage: "<index-path>",
				Action:    runServe,
			},
			{
				Name:      "index",
				Usage:     "rebuild all configured queries on their schedules",
				ArgsUsage: "<index-path>",
				Action:    runIndex,
			},
			{
				Name:      "update",
				Usage:     "rebuild the named queries once",
				ArgsUsage: "<index-path> <query-name>...",
				Action:    runUpdate,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "tindex:", err)
		os.Exit(1)
	}
}

func runQuery(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: tindex query <index-path> <query>")
	}
	ix := index.NewDirectory(c.Args().Get(0))

	cursor, err := query.Run(c.Args().Get(1), ix)
	if err != nil {
		return err
	}
	defer cursor.Close()

	for id := cursor.Current(); id != postlist.NoDoc; id = cursor.Next() {
		fmt.Println(id)
	}
	return cursor.Err()
}

func runServe(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: tindex serve <index-path>")
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	return server.New(cfg.Server, index.NewDirectory(c.Args().Get(0))).Run(ctx)
}

func runIndex(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: tindex index <index-path>")
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	dbs, err := source.FromConfig(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	if err := indexer.New(c.Args().Get(0), dbs).Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func runUpdate(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("usage: tindex update <index-path> <query-name>...")
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	dbs, err := source.FromConfig(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	return indexer.Update(ctx, c.Args().Get(0), dbs, c.Args().Slice()[1:])
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
