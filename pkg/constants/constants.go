package constants

import "time"

// CLIName is the name used in user-facing output to refer to the command
const CLIName = "yamlline"

// Environment variables that provide defaults for the global flags
const (
	EnvBackend = "YAMLLINE_BACKEND"
	EnvJobs    = "YAMLLINE_JOBS"
	EnvVerbose = "YAMLLINE_VERBOSE"
)

// EnvFile is the dotenv file read from the working directory when present
const EnvFile = ".env"

// WatchDebounce is how long the watch command waits for writes to settle
const WatchDebounce = 300 * time.Millisecond

// YAMLExtensions are the file extensions the watch command reacts to
var YAMLExtensions = []string{".yaml", ".yml"}
