package constants

import "time"

const (
	AppName            = "careminder"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/careminder/careminder.db"
	Version            = "v0.3.0"
	EnvPrefix          = "CAREMINDER_"

	// DateFormat is the calendar date format used for end dates (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// DisplayFormat is the format used when rendering a reminder instant
	DisplayFormat = "2006-01-02 15:04"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "careminder-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "careminder-notifier.lock"
	NotificationDurationMs = 8000
	TrayAppIdentifier      = "com.julianstephens.careminder"
	TrayAppExecutable      = "careminder-tray"

	// Scheduling constants
	MaxScheduleDays     = 365
	ScanCooldown        = 3 * time.Second
	RefreshInterval     = 30 * time.Second
	DefaultPollInterval = 30 * time.Second
	NotificationIcon    = "💊"

	// DeepLinkDataParam is the query parameter carrying an encoded payload
	DeepLinkDataParam = "data="
)
