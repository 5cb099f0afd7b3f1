// Package commands implements the sourcebin command line tool. Each command
// runs one editor operation against the configured store and prints the
// resulting status message.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/sakif/sourcebin/internal/config"
	"github.com/sakif/sourcebin/internal/repository"
	"github.com/sakif/sourcebin/internal/service"
	"github.com/sakif/sourcebin/internal/share"
	"github.com/sakif/sourcebin/internal/storage"
)

// Env is the outside world the commands talk to.
type Env struct {
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
	Clipboard service.Clipboard
	OpenStore func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.KVStore, error)
}

// DefaultEnv uses the process's standard streams, the system clipboard and
// the store selected by configuration.
func DefaultEnv() Env {
	return Env{
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Clipboard: systemClipboard{},
		OpenStore: storage.Open,
	}
}

// NewApp builds the command tree.
func NewApp(env Env) *cli.App {
	r := &runner{env: env}
	return &cli.App{
		Name:      "sourcebin",
		Usage:     "manage bins of code snippets from the terminal",
		Reader:    env.Stdin,
		Writer:    env.Stdout,
		ErrWriter: env.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "backend",
				Usage:   "store backend: sqlite, mysql, redis, minio or memory",
				Value:   config.BackendSQLite,
				EnvVars: []string{"STORE_BACKEND"},
			},
			&cli.StringFlag{
				Name:    "db",
				Usage:   "SQLite database path",
				Value:   "data/sourcebin.db",
				EnvVars: []string{"DB_PATH"},
			},
			&cli.StringFlag{
				Name:    "storage-key",
				Usage:   "key the bin collection is stored under",
				Value:   service.DefaultStorageKey,
				EnvVars: []string{"STORAGE_KEY"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error",
				Value:   "warn",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:  "bin",
				Usage: "bin id or share link to operate on (default: most recent bin)",
			},
			&cli.IntFlag{
				Name:  "file",
				Usage: "index of the file to operate on",
				Value: -1,
			},
		},
		Commands: r.commands(),
	}
}

// runner holds what every command needs to reach the editor.
type runner struct {
	env Env
}

// session opens the store, loads the editor, applies --bin and --file, runs
// fn and closes the store.
func (r *runner) session(c *cli.Context, fn func(ctx context.Context, ed *service.EditorService) error) error {
	ctx := c.Context

	cfg := config.FromEnv()
	cfg.StoreBackend = strings.ToLower(c.String("backend"))
	cfg.DBPath = c.String("db")
	cfg.StorageKey = c.String("storage-key")
	cfg.LogLevel = c.String("log-level")
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(r.env.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	kv, err := r.env.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logger.Error("failed to close store", slog.String("error", err.Error()))
		}
	}()

	ed := service.NewEditorService(ctx, service.NewBinStore(kv, cfg.StorageKey, logger), logger)

	if raw := c.String("bin"); raw != "" {
		token, ok := share.Token(raw)
		if !ok {
			token = raw
		}
		if _, err := ed.Open(ctx, token); err != nil {
			return err
		}
	}
	if i := c.Int("file"); i >= 0 {
		if _, err := ed.SelectFile(ctx, i); err != nil {
			return err
		}
	}
	return fn(ctx, ed)
}

func (r *runner) status(res service.Result) {
	if res.Status != "" {
		fmt.Fprintln(r.env.Stdout, res.Status)
	}
}
