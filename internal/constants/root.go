package constants

import "time"

const (
	AppName             = "tandem"
	DefaultKeyringUser  = "database-connection"
	KeyringIdentityKey  = "current-user"
	DefaultConfigDir    = "~/.config/tandem"
	DefaultDBPath       = "~/.config/tandem/tandem.db"
	DefaultSettingsFile = "config.yaml"
	Version             = "v0.1.0"

	// Environment overrides
	EnvUser         = "TANDEM_USER"
	EnvDBConnection = "TANDEM_DB_CONNECTION"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Rating bounds for weekly reviews
	MinRating = 1
	MaxRating = 5

	// Progress backends
	ProgressBackendDB     = "db"
	ProgressBackendFile   = "file"
	ProgressBackendMemory = "memory"
	ProgressDirName       = "progress"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "tandem-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.tandem"

	// Identity polling interval used while waiting for a signed-in user
	IdentityPollInterval = 250 * time.Millisecond
)
