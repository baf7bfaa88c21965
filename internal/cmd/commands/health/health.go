package health

import (
	"context"
	"flag"
	"fmt"

	"github.com/hashicorp-forge/hermes-dmclient/internal/cmd/base"
	"github.com/hashicorp-forge/hermes-dmclient/pkg/document/adapters/api"
)

type Command struct {
	*base.Command

	flagConfig string
	flagFormat string
}

func (c *Command) Synopsis() string {
	return "Check the metadata gateway health"
}

func (c *Command) Help() string {
	return `Usage: dmclient health [options]

  Query the gateway health endpoint and print the result. Exits non-zero
  unless the gateway reports UP.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("health", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "",
		"Path to dmclient config file",
	)
	f.StringVar(
		&c.flagFormat, "format", base.FormatJSON,
		"Output format (json or yaml)",
	)
	c.LogLevelFlag(f)

	return f
}

func (c *Command) Run(args []string) int {
	ui := c.UI

	f := c.Flags()
	if err := f.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if !base.ValidFormat(c.flagFormat) {
		ui.Error(fmt.Sprintf("unsupported output format: %q", c.flagFormat))
		return 1
	}

	cfg, err := c.LoadConfig(c.flagConfig)
	if err != nil {
		ui.Error(fmt.Sprintf("error loading config: %v", err))
		return 1
	}
	apiCfg, err := cfg.MetadataConfig(c.Log)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	client, err := api.NewMetadataClient(apiCfg)
	if err != nil {
		ui.Error(fmt.Sprintf("error creating metadata client: %v", err))
		return 1
	}

	status, err := client.Health(context.Background())
	if err != nil {
		ui.Error(fmt.Sprintf("health check failed: %v", err))
		return 1
	}

	if err := c.Output(c.flagFormat, status); err != nil {
		ui.Error(err.Error())
		return 1
	}
	if !status.IsUp() {
		ui.Error(fmt.Sprintf("gateway status is %s", status.Status))
		return 1
	}
	return 0
}
