package plugin

import (
	"fmt"
	"os/exec"

	"github.com/hashicorp/go-hclog"
	goplugin "github.com/hashicorp/go-plugin"
)

type PluginConfig struct {
	Driver Driver
	Logger hclog.Logger
}

// Serve runs the driver as a plugin process. It blocks until the host
// disconnects.
func Serve(config *PluginConfig) {
	goplugin.Serve(&goplugin.ServeConfig{
		HandshakeConfig: Handshake,

		Plugins: goplugin.PluginSet{
			"driver": &DriverPlugin{Impl: config.Driver},
		},

		Logger: config.Logger,
	})
}

// Open launches the driver binary at path and returns a Driver talking to it.
// The returned kill function terminates the plugin process.
func Open(path string, logger hclog.Logger) (driver Driver, kill func(), err error) {
	client := goplugin.NewClient(&goplugin.ClientConfig{
		HandshakeConfig: Handshake,
		Plugins:         PluginMap,
		Cmd:             exec.Command(path),
		Logger:          logger,
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, nil, fmt.Errorf("error starting driver plugin %s - %w", path, err)
	}

	raw, err := rpcClient.Dispense("driver")
	if err != nil {
		client.Kill()
		return nil, nil, fmt.Errorf("error dispensing driver from plugin %s - %w", path, err)
	}

	driver, ok := raw.(Driver)
	if !ok {
		client.Kill()
		return nil, nil, fmt.Errorf("plugin %s does not provide a queue driver", path)
	}

	return driver, client.Kill, nil
}
