package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mirrorbox/mirrorbox/internal/utils"
)

var (
	home, _            = os.UserHomeDir()
	DefaultConfigPath  = filepath.Join(home, ".mirrorbox", "config.json")
	DefaultLogFilePath = filepath.Join(home, ".mirrorbox", "mirrorbox.log")
	DefaultInterval    = 30 * time.Second
)

const minInterval = time.Second

type Config struct {
	SourceDir  string        `json:"source_dir" mapstructure:"source_dir"`
	ReplicaDir string        `json:"replica_dir" mapstructure:"replica_dir"`
	Interval   time.Duration `json:"interval" mapstructure:"interval"`
	LogFile    string        `json:"log_file" mapstructure:"log_file"`
	Path       string        `json:"-" mapstructure:"-"`
}

// Validate resolves the configured paths and rejects combinations the
// mirror daemon cannot safely run with.
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return errors.New("source directory is required")
	}
	if c.ReplicaDir == "" {
		return errors.New("replica directory is required")
	}

	source, err := utils.ResolvePath(c.SourceDir)
	if err != nil {
		return fmt.Errorf("resolve source %q: %w", c.SourceDir, err)
	}
	replica, err := utils.ResolvePath(c.ReplicaDir)
	if err != nil {
		return fmt.Errorf("resolve replica %q: %w", c.ReplicaDir, err)
	}
	c.SourceDir = source
	c.ReplicaDir = replica

	if !utils.DirExists(source) {
		return fmt.Errorf("source directory %q does not exist", source)
	}
	if source == replica {
		return errors.New("source and replica must be different directories")
	}
	// a nested replica would mirror itself into itself on every pass
	if utils.IsSubPath(source, replica) {
		return fmt.Errorf("replica %q must not be inside source %q", replica, source)
	}
	if utils.IsSubPath(replica, source) {
		return fmt.Errorf("source %q must not be inside replica %q", source, replica)
	}

	if c.Interval < minInterval {
		return fmt.Errorf("interval %s is below the minimum of %s", c.Interval, minInterval)
	}

	if c.LogFile == "" {
		c.LogFile = DefaultLogFilePath
	}
	logFile, err := utils.ResolvePath(c.LogFile)
	if err != nil {
		return fmt.Errorf("resolve log file %q: %w", c.LogFile, err)
	}
	c.LogFile = logFile

	return nil
}
