package version

import (
	"github.com/hashicorp-forge/hermes-dmclient/internal/cmd/base"
	dmversion "github.com/hashicorp-forge/hermes-dmclient/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the dmclient version"
}

func (c *Command) Help() string {
	return `Usage: dmclient version

  Print the dmclient version.`
}

func (c *Command) Run(args []string) int {
	c.UI.Output(dmversion.Version)
	return 0
}
