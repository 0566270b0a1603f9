package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/tandem/internal/auth"
	"github.com/julianstephens/tandem/internal/backup"
	"github.com/julianstephens/tandem/internal/config"
	"github.com/julianstephens/tandem/internal/constants"
	"github.com/julianstephens/tandem/internal/derive"
	"github.com/julianstephens/tandem/internal/gate"
	"github.com/julianstephens/tandem/internal/logger"
	"github.com/julianstephens/tandem/internal/models"
	"github.com/julianstephens/tandem/internal/progress"
	"github.com/julianstephens/tandem/internal/storage"
)

// Context is shared by every command.
type Context struct {
	Ctx       context.Context
	Store     storage.Provider
	Settings  config.Settings
	ConfigDir string
	Auth      auth.Source
	Now       func() time.Time
}

func (c *Context) context() context.Context {
	if c.Ctx != nil {
		return c.Ctx
	}
	return context.Background()
}

func (c *Context) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Context) SettingsPath() string {
	return config.Path(c.ConfigDir)
}

func (c *Context) location() (*time.Location, error) {
	return c.Settings.Location()
}

func (c *Context) windows() (gate.Windows, *time.Location, error) {
	loc, err := c.location()
	if err != nil {
		return gate.Windows{}, nil, err
	}
	ws, err := c.Settings.Windows()
	if err != nil {
		return gate.Windows{}, nil, err
	}
	return ws, loc, nil
}

func (c *Context) derive() (*derive.Service, error) {
	loc, err := c.location()
	if err != nil {
		return nil, err
	}
	return &derive.Service{Store: c.Store, Now: c.now, Location: loc}, nil
}

func (c *Context) authSource() auth.Source {
	if c.Auth != nil {
		return c.Auth
	}
	return auth.NewKeyringSource()
}

// CurrentUser returns the signed-in user, which must exist in the store.
func (c *Context) CurrentUser() (models.User, error) {
	id, err := c.authSource().CurrentUser(c.context())
	if err != nil {
		return models.User{}, err
	}
	return c.lookupUser(id)
}

// WaitForUser blocks until someone signs in or timeout passes. A zero timeout
// fails immediately when nobody is signed in.
func (c *Context) WaitForUser(timeout time.Duration) (models.User, error) {
	if timeout <= 0 {
		return c.CurrentUser()
	}
	ctx, cancel := context.WithTimeout(c.context(), timeout)
	defer cancel()

	id, err := auth.Wait(ctx, c.authSource(), constants.IdentityPollInterval)
	if errors.Is(err, context.DeadlineExceeded) {
		return models.User{}, auth.ErrNoUser
	}
	if err != nil {
		return models.User{}, err
	}
	return c.lookupUser(id)
}

func (c *Context) lookupUser(id string) (models.User, error) {
	u, err := c.Store.GetUser(c.context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		return models.User{}, fmt.Errorf("user %q does not exist, add it with 'tandem user add'", id)
	}
	return u, err
}

// ProgressStore returns the wizard progress store for the configured backend.
func (c *Context) ProgressStore(userID string) (progress.Store, error) {
	switch c.Settings.Progress.Backend {
	case "", constants.ProgressBackendDB:
		return c.Store.Progress(userID), nil
	case constants.ProgressBackendFile:
		return progress.NewFileStore(c.Settings.ProgressDir(c.ConfigDir)), nil
	case constants.ProgressBackendMemory:
		return progress.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown progress backend %q", c.Settings.Progress.Backend)
}

// PerformAutomaticBackup snapshots a SQLite database, logging rather than
// returning failures.
func (c *Context) PerformAutomaticBackup() {
	path, ok := sqlitePath(c.Store)
	if !ok {
		return
	}
	if _, err := backup.NewManager(path).CreateBackup(); err != nil {
		logger.Warn("automatic backup failed", "error", err)
	}
}
