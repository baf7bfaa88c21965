package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/hermes-dmclient/internal/cmd/base"
	"github.com/hashicorp-forge/hermes-dmclient/internal/cmd/commands/health"
	"github.com/hashicorp-forge/hermes-dmclient/internal/cmd/commands/metadata"
	"github.com/hashicorp-forge/hermes-dmclient/internal/cmd/commands/upload"
	"github.com/hashicorp-forge/hermes-dmclient/internal/cmd/commands/version"
)

// Commands is the mapping of all available dmclient commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	b := base.New(log, ui)

	Commands = map[string]cli.CommandFactory{
		"health": func() (cli.Command, error) {
			return &health.Command{Command: b}, nil
		},
		"metadata": func() (cli.Command, error) {
			return &metadata.Command{Command: b}, nil
		},
		"upload": func() (cli.Command, error) {
			return &upload.Command{Command: b, FS: afero.NewOsFs()}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
