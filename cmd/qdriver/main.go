package main

import (
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/reeveci/strqueue/config"
	"github.com/reeveci/strqueue/plugin"
)

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "qdriver",
		Level:      hclog.LevelFromString(config.GetEnvDef(config.ENV_LOG_LEVEL, "info")),
		Output:     os.Stderr,
		JSONFormat: true,
	})

	driver := plugin.NewLocal(logger)
	defer driver.Close()

	plugin.Serve(&plugin.PluginConfig{
		Driver: driver,
		Logger: logger,
	})
}
