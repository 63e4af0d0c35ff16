package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cdia2025/cheque-app/internal/config"
	"github.com/cdia2025/cheque-app/internal/repo"
	"github.com/cdia2025/cheque-app/internal/service"
)

// storeOpener opens the roster store and returns a func releasing it.
type storeOpener func(ctx context.Context, cfg config.Config) (repo.RosterStore, func(), error)

// commandContext lazily loads configuration and opens the store once per
// process, on the first command that needs it.
type commandContext struct {
	staff   string
	verbose bool
	open    storeOpener

	once    sync.Once
	cfg     config.Config
	store   repo.RosterStore
	release func()
	err     error
}

func newCommandContext(open storeOpener) *commandContext {
	return &commandContext{open: open, release: func() {}}
}

func (c *commandContext) ensureStore(ctx context.Context) (repo.RosterStore, error) {
	c.once.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			c.err = err
			return
		}
		c.cfg = cfg
		store, release, err := c.open(ctx, cfg)
		if err != nil {
			c.err = err
			return
		}
		c.store, c.release = store, release
	})
	return c.store, c.err
}

func (c *commandContext) close() {
	c.release()
}

// staffName returns --staff, falling back to ROSTER_STAFF and then $USER.
func (c *commandContext) staffName() string {
	for _, v := range []string{c.staff, os.Getenv("ROSTER_STAFF"), os.Getenv("USER")} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func (c *commandContext) rosterService(ctx context.Context) (*service.RosterService, error) {
	store, err := c.ensureStore(ctx)
	if err != nil {
		return nil, err
	}
	return service.NewRosterService(store), nil
}

// session opens a staff session with roster selected.
func (c *commandContext) session(ctx context.Context, roster string) (*service.Session, *service.SyncService, error) {
	rosters, err := c.rosterService(ctx)
	if err != nil {
		return nil, nil, err
	}
	sess := service.NewSession(rosters, c.staffName())
	if err := sess.Select(ctx, roster); err != nil {
		return nil, nil, err
	}
	engine := service.NewSyncService(c.store, c.logger(),
		service.WithLocation(c.cfg.Location),
		service.WithBackoff(service.NewBatchBackoff(c.cfg.RetryMaxAttempts)),
	)
	return sess, engine, nil
}

// logger writes batch logs to stderr with --verbose and discards them otherwise.
func (c *commandContext) logger() *slog.Logger {
	if !c.verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// openConfiguredStore opens the store selected by STORE.
func openConfiguredStore(ctx context.Context, cfg config.Config) (repo.RosterStore, func(), error) {
	if cfg.Store == config.StoreMemory {
		return repo.NewMemoryRosterStore(), func() {}, nil
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return repo.NewRosterStore(pool), pool.Close, nil
}
