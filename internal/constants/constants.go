package constants

// Application
const (
	AppDisplayName = "Tasker"
)

// Paths
const (
	ConfigDir      = ".config/tasker"
	ConfigFile     = "config.yaml"
	ConfigEnvVar   = "TASKER_CONFIG"
	DefaultDBFile  = "tasker.db"
	DirPermissions = 0755
)

// Server
const (
	DefaultListenAddr          = ":8080"
	DefaultReadTimeoutSecs     = 15
	DefaultWriteTimeoutSecs    = 30
	DefaultShutdownTimeoutSecs = 10
)

// Database drivers (database/sql driver names)
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// Database pool defaults
const (
	DefaultMaxOpenConns = 10
	DefaultMaxIdleConns = 5
	SQLiteBusyTimeoutMs = 5000
)

// Public id generation (Snowflake-style, shared by projects, folders and tasks)
const (
	PubIDEpochMillis  = int64(1607731200000) // 2020-12-12T00:00:00Z
	PubIDSequenceBits = 10
	PubIDSequenceMask = (1 << PubIDSequenceBits) - 1
)

// Home project created for every new user
const (
	HomeProjectTitle   = "My Project"
	DefaultFolderTitle = "My Tasks"
	DemoTaskCount      = 3
	DemoTaskTitleFmt   = "Demo task %d"
)

// Logging
const (
	DefaultLogLevel    = "INFO"
	LogTimestampFormat = "2006-01-02 15:04:05.000"
	LogFileExtension   = ".log"
	FilePermissions    = 0644
)
