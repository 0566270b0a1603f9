package cli

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/julianstephens/tandem/internal/auth"
	"github.com/julianstephens/tandem/internal/storage/postgres"
)

// KeyringSetCmd stores database connection credentials in the OS keyring
type KeyringSetCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string to store in keyring"`
}

func (cmd *KeyringSetCmd) Run(ctx *Context) error {
	if !isPostgresDSN(cmd.ConnectionString) {
		return errors.New("connection string must be a valid PostgreSQL connection string")
	}

	if _, err := postgres.ValidateConnString(cmd.ConnectionString); err != nil {
		if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		fmt.Println("⚠️  Warning: Connection string contains embedded credentials.")
		fmt.Println("   It will be stored as-is in the encrypted OS keyring.")
		fmt.Println("   To keep the password out of it, use .pgpass instead.")
	}

	if err := auth.SetConnectionString(cmd.ConnectionString); err != nil {
		return err
	}

	fmt.Println("✓ Connection string stored successfully in OS keyring")
	fmt.Println("  You can now use tandem without the --db flag")
	return nil
}

// KeyringGetCmd prints the stored connection string with its password masked.
type KeyringGetCmd struct{}

func (cmd *KeyringGetCmd) Run(ctx *Context) error {
	connStr, err := auth.GetConnectionString()
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return errors.New("no connection string found in keyring. Use 'tandem keyring set' to store one")
		}
		return fmt.Errorf("failed to retrieve connection string from keyring: %w", err)
	}

	fmt.Println("Connection string retrieved from keyring:")
	fmt.Println(maskPassword(connStr))
	return nil
}

// KeyringDeleteCmd removes database connection credentials from the OS keyring
type KeyringDeleteCmd struct{}

func (cmd *KeyringDeleteCmd) Run(ctx *Context) error {
	if err := auth.DeleteConnectionString(); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return errors.New("no connection string found in keyring")
		}
		return err
	}

	fmt.Println("✓ Connection string deleted from OS keyring")
	return nil
}

// KeyringStatusCmd checks the availability of the OS keyring
type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *Context) error {
	if !auth.IsAvailable() {
		fmt.Println("❌ OS keyring is not available on this system")
		return auth.ErrKeyringUnavailable
	}
	fmt.Println("✓ OS keyring is available")

	if _, err := auth.GetConnectionString(); err == nil {
		fmt.Println("✓ Connection string is stored in keyring")
	} else if errors.Is(err, auth.ErrNotFound) {
		fmt.Println("ℹ No connection string stored in keyring")
	}
	if user, err := ctx.authSource().CurrentUser(ctx.context()); err == nil {
		fmt.Printf("✓ Signed in as %s\n", user)
	} else if errors.Is(err, auth.ErrNoUser) {
		fmt.Println("ℹ Nobody is signed in")
	}
	return nil
}

// maskPassword masks passwords in connection strings for display
func maskPassword(connStr string) string {
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		idx := strings.Index(connStr, "://")
		remaining := connStr[idx+3:]
		// The last @ separates user info from the host; passwords may contain @.
		if atIdx := strings.LastIndex(remaining, "@"); atIdx != -1 {
			userInfo := remaining[:atIdx]
			if colonIdx := strings.Index(userInfo, ":"); colonIdx != -1 {
				connStr = connStr[:idx+3] + userInfo[:colonIdx] + ":****" + connStr[idx+3+atIdx:]
			}
		}
		return maskQueryPassword(connStr)
	}

	if strings.Contains(connStr, "password=") {
		parts := strings.Fields(connStr)
		for i, part := range parts {
			if strings.HasPrefix(part, "password=") {
				parts[i] = "password=****"
			}
		}
		return strings.Join(parts, " ")
	}
	return connStr
}

// maskQueryPassword hides a password passed as a URL query parameter.
func maskQueryPassword(connStr string) string {
	q := strings.Index(connStr, "?")
	if q == -1 {
		return connStr
	}
	values, err := url.ParseQuery(connStr[q+1:])
	if err != nil || !values.Has("password") {
		return connStr
	}
	values.Set("password", "****")
	return connStr[:q+1] + strings.ReplaceAll(values.Encode(), "%2A", "*")
}
