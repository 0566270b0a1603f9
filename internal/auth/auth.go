// Package auth resolves who is using tandem. Identity comes from the OS
// keyring (written by `tandem login`), an environment override, or a fixed
// value in tests.
package auth

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/julianstephens/tandem/internal/constants"
	"github.com/julianstephens/tandem/internal/logger"
)

// ErrNoUser means nobody is signed in yet.
var ErrNoUser = errors.New("no user is signed in, run 'tandem login <user>'")

// Source reports the current user id. It returns ErrNoUser until one is known.
type Source interface {
	CurrentUser(ctx context.Context) (string, error)
}

// KeyringSource reads the signed-in user from the OS keyring. The TANDEM_USER
// environment variable takes precedence when set.
type KeyringSource struct {
	lookupEnv func(string) (string, bool)
	read      func() (string, error)
}

func NewKeyringSource() *KeyringSource {
	return &KeyringSource{
		lookupEnv: os.LookupEnv,
		read:      func() (string, error) { return get(constants.KeyringIdentityKey) },
	}
}

func (s *KeyringSource) CurrentUser(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if v, ok := s.lookupEnv(constants.EnvUser); ok && v != "" {
		return v, nil
	}
	id, err := s.read()
	if errors.Is(err, ErrNotFound) {
		return "", ErrNoUser
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// Static always reports the same user. An empty Static has no user.
type Static string

func (s Static) CurrentUser(ctx context.Context) (string, error) {
	if s == "" {
		return "", ErrNoUser
	}
	return string(s), nil
}

// Wait polls src until a user is known, ctx ends, or src fails with an error
// other than ErrNoUser.
func Wait(ctx context.Context, src Source, interval time.Duration) (string, error) {
	if interval <= 0 {
		interval = constants.IdentityPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logged := false
	for {
		id, err := src.CurrentUser(ctx)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, ErrNoUser) {
			return "", err
		}
		if !logged {
			logger.Debug("waiting for a signed-in user")
			logged = true
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}
