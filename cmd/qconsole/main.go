// Command qconsole drives string queues from scripts or standard input.
//
// Usage: qconsole [script ...]
//
// Configuration is read from QCONSOLE_* environment variables; see package
// config.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/hashicorp/go-hclog"

	"github.com/reeveci/strqueue/config"
	"github.com/reeveci/strqueue/console"
	"github.com/reeveci/strqueue/plugin"
	"github.com/reeveci/strqueue/streams"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(scripts []string) int {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "qconsole",
		Level:  hclog.LevelFromString(cfg.LogLevel),
		Output: os.Stderr,
	})

	var driver plugin.Driver
	if cfg.Plugin != "" {
		remote, kill, err := plugin.Open(cfg.Plugin, logger.Named("plugin"))
		if err != nil {
			logger.Error("error opening driver plugin", "error", err)
			return 2
		}
		defer kill()
		driver = remote
	} else {
		local := plugin.NewLocal(logger.Named("driver"))
		defer local.Close()
		driver = local
	}

	if cfg.FailPercent > 0 {
		if err := driver.Configure(map[string]string{plugin.SETTING_FAIL: strconv.Itoa(cfg.FailPercent)}); err != nil {
			logger.Error("error configuring driver", "error", err)
			return 2
		}
	}

	var transcript *streams.Transcript
	if cfg.Transcript != "" {
		transcript, err = streams.Create(cfg.Transcript)
	} else {
		transcript, err = streams.InMemory("qconsole")
	}
	if err != nil {
		logger.Error("error creating transcript", "error", err)
		return 2
	}
	defer transcript.Close()

	c := console.New(console.Options{
		Driver:     driver,
		Logger:     logger,
		Output:     os.Stdout,
		Transcript: transcript,
		BufSize:    cfg.BufSize,
		Echo:       cfg.Echo,
	})

	if len(scripts) == 0 {
		if err := c.Run(os.Stdin); err != nil {
			logger.Error("error reading commands", "error", err)
			return 2
		}
	}
	for _, path := range scripts {
		if c.Quit() {
			break
		}
		if err := c.Source(path); err != nil {
			logger.Debug("script failed", "script", path)
		}
	}

	c.Close()

	if n := c.Errors(); n > 0 {
		logger.Info("session finished with errors", "errors", n)
		return 1
	}
	return 0
}
