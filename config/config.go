// Package config reads the console configuration from the environment.
package config

import (
	"errors"
	"fmt"
)

const (
	ENV_LOG_LEVEL  = "QCONSOLE_LOG_LEVEL"
	ENV_PLUGIN     = "QCONSOLE_PLUGIN"
	ENV_TRANSCRIPT = "QCONSOLE_TRANSCRIPT"
	ENV_BUFSIZE    = "QCONSOLE_BUFSIZE"
	ENV_FAIL       = "QCONSOLE_FAIL"
	ENV_ECHO       = "QCONSOLE_ECHO"
)

const (
	DEFAULT_BUFSIZE = 1024
	MAX_BUFSIZE     = 1 << 20
)

type Config struct {
	LogLevel string
	// Plugin is the path of a driver plugin binary. Empty selects the
	// in-process driver.
	Plugin string
	// Transcript is the path the session output is recorded to, if set.
	Transcript string
	// BufSize is the buffer capacity used by remove-head.
	BufSize int
	// FailPercent is the percentage of allocations the driver refuses.
	FailPercent int
	// Echo repeats each command in the output.
	Echo bool
}

func FromEnv() (Config, error) {
	c := Config{
		LogLevel:   GetEnvDef(ENV_LOG_LEVEL, "info"),
		Plugin:     GetEnvDef(ENV_PLUGIN, ""),
		Transcript: GetEnvDef(ENV_TRANSCRIPT, ""),
		Echo:       GetBoolEnvDef(ENV_ECHO, false),
	}

	var errs []error
	var err error
	if c.BufSize, err = GetIntEnvDef(ENV_BUFSIZE, DEFAULT_BUFSIZE); err != nil {
		errs = append(errs, err)
	}
	if c.FailPercent, err = GetIntEnvDef(ENV_FAIL, 0); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return c, err
	}

	return c, c.Validate()
}

func (c Config) Validate() error {
	if c.BufSize < 0 || c.BufSize > MAX_BUFSIZE {
		return fmt.Errorf("invalid %s %d - expected 0 to %d", ENV_BUFSIZE, c.BufSize, MAX_BUFSIZE)
	}
	if c.FailPercent < 0 || c.FailPercent > 100 {
		return fmt.Errorf("invalid %s %d - expected a percentage between 0 and 100", ENV_FAIL, c.FailPercent)
	}
	return nil
}
