package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"madrigal/internal/auth"
	"madrigal/internal/config"
	"madrigal/internal/logging"
)

const secretFileName = "auth.secret"

type commandContext struct {
	configFlag    *string
	logLevelFlag  *string
	logFormatFlag *string

	storeOnce sync.Once
	store     *config.Store
	storeErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, logLevelFlag, logFormatFlag *string) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		logLevelFlag:  logLevelFlag,
		logFormatFlag: logFormatFlag,
	}
}

func (c *commandContext) configPath() (string, error) {
	if c.configFlag != nil {
		if path := strings.TrimSpace(*c.configFlag); path != "" {
			return path, nil
		}
	}
	return defaultConfigPath()
}

// secretPath returns the location of the token signing secret, which lives
// next to the configuration file.
func (c *commandContext) secretPath() (string, error) {
	configPath, err := c.configPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(configPath), secretFileName), nil
}

func (c *commandContext) ensureStore() (*config.Store, error) {
	c.storeOnce.Do(func() {
		configPath, err := c.configPath()
		if err != nil {
			c.storeErr = err
			return
		}
		if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
			c.storeErr = fmt.Errorf("create config directory: %w", err)
			return
		}
		secretPath, err := c.secretPath()
		if err != nil {
			c.storeErr = err
			return
		}
		secret, err := auth.LoadOrCreateSecret(secretPath)
		if err != nil {
			c.storeErr = err
			return
		}
		c.store, c.storeErr = config.Open(configPath, secret, c.ensureLogger())
	})
	return c.store, c.storeErr
}

func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		level := "info"
		if c.logLevelFlag != nil && *c.logLevelFlag != "" {
			level = *c.logLevelFlag
		}
		format := "console"
		if c.logFormatFlag != nil && *c.logFormatFlag != "" {
			format = *c.logFormatFlag
		}
		logger, err := logging.New(logging.Options{Level: level, Format: format, Output: os.Stderr})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

func defaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("determine config directory: %w", err)
	}
	return filepath.Join(configDir, "madrigal", "madrigal.toml"), nil
}
