// Package storage defines the persistence contract shared by the SQLite and
// PostgreSQL backends.
package storage

import (
	"errors"
	"net/url"
	"strings"
)

// ErrNotFound is returned when a requested user, task, or week does not exist.
var ErrNotFound = errors.New("not found")

// IsPostgres reports whether the config value is a PostgreSQL connection URL.
func IsPostgres(config string) bool {
	return strings.HasPrefix(config, "postgres://") || strings.HasPrefix(config, "postgresql://")
}

// HasEmbeddedCredentials reports whether a PostgreSQL connection string carries a password.
func HasEmbeddedCredentials(connStr string) bool {
	if IsPostgres(connStr) {
		u, err := url.Parse(connStr)
		if err != nil {
			return false
		}
		if u.User != nil {
			if _, ok := u.User.Password(); ok {
				return true
			}
		}
		for key := range u.Query() {
			if strings.EqualFold(key, "password") {
				return true
			}
		}
		return false
	}
	for _, part := range strings.Fields(connStr) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 && strings.EqualFold(strings.TrimSpace(kv[0]), "password") {
			return true
		}
	}
	return false
}
