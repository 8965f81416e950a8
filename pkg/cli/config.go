package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/githubnext/yamlline/pkg/constants"
	"github.com/githubnext/yamlline/pkg/events"
)

var ErrInvalidJobs = errors.New("jobs must be at least 1")

// Config holds the settings shared by every command.
type Config struct {
	Backend string // events backend name; empty selects the default
	Jobs    int    // files decoded at once
	Verbose bool
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{Jobs: runtime.NumCPU()}
}

// LoadConfig builds a Config from the YAMLLINE_* environment variables. Values
// in envFile, when it exists, fill in variables the environment leaves unset.
func LoadConfig(envFile string) (Config, error) {
	cfg := DefaultConfig()

	fileVars := map[string]string{}
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVars = vars
		case !errors.Is(err, fs.ErrNotExist):
			return cfg, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}

	if v, ok := lookup(constants.EnvBackend); ok {
		cfg.Backend = v
	}
	if v, ok := lookup(constants.EnvJobs); ok {
		jobs, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s value %q: %w", constants.EnvJobs, v, err)
		}
		cfg.Jobs = jobs
	}
	if v, ok := lookup(constants.EnvVerbose); ok {
		verbose, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s value %q: %w", constants.EnvVerbose, v, err)
		}
		cfg.Verbose = verbose
	}
	return cfg, nil
}

// Validate checks that the backend exists and the job count is usable.
func (c Config) Validate() error {
	if _, err := events.Lookup(c.Backend); err != nil {
		return err
	}
	if c.Jobs < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidJobs, c.Jobs)
	}
	return nil
}
