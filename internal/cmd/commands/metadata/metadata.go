package metadata

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/hashicorp-forge/hermes-dmclient/internal/cmd/base"
	"github.com/hashicorp-forge/hermes-dmclient/internal/config"
	"github.com/hashicorp-forge/hermes-dmclient/pkg/document"
	"github.com/hashicorp-forge/hermes-dmclient/pkg/document/adapters/api"
)

type Command struct {
	*base.Command

	flagConfig    string
	flagAuthToken string
	flagPath      string
	flagID        string
	flagFormat    string
}

func (c *Command) Synopsis() string {
	return "Fetch document metadata from the gateway"
}

func (c *Command) Help() string {
	return `Usage: dmclient metadata [options] (-id=UUID | -path=PATH)

  Fetch the metadata record of a document and print it unchanged.

  -path is appended to the gateway URL as given. -id is a shortcut for
  -path=documents/UUID.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("metadata", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "",
		"Path to dmclient config file",
	)
	f.StringVar(
		&c.flagAuthToken, "auth-token", "",
		"["+config.EnvAuthToken+"] User authorization token",
	)
	f.StringVar(
		&c.flagPath, "path", "",
		"Document metadata path relative to the gateway URL",
	)
	f.StringVar(
		&c.flagID, "id", "",
		"Document UUID",
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

	path, err := c.metadataPath()
	if err != nil {
		ui.Error(err.Error())
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

	authToken := base.StringFromEnv(c.flagAuthToken, config.EnvAuthToken)

	doc, err := client.GetMetadata(context.Background(), authToken, path)
	if err != nil {
		ui.Error(fmt.Sprintf("error fetching metadata: %v", err))
		return 1
	}

	logger := c.Log
	if id, err := doc.ID(); err == nil {
		logger = logger.With("id", id.String())
	}
	if modified, err := doc.ModifiedAt(); err == nil {
		logger = logger.With("modified", modified.UTC().Format(time.RFC3339))
	}
	logger.Debug("fetched document metadata", "path", path, "binary_url", doc.BinaryURL())

	if err := c.Output(c.flagFormat, doc); err != nil {
		ui.Error(err.Error())
		return 1
	}
	return 0
}

func (c *Command) metadataPath() (string, error) {
	switch {
	case c.flagPath != "" && c.flagID != "":
		return "", fmt.Errorf("only one of -path and -id may be set")
	case c.flagID != "":
		id, err := document.ParseID(c.flagID)
		if err != nil {
			return "", err
		}
		return document.MetadataPath(id), nil
	case c.flagPath != "":
		return c.flagPath, nil
	default:
		return "", fmt.Errorf("one of -path or -id is required")
	}
}
