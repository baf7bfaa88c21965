package base

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/hermes-dmclient/internal/config"
)

// Command carries what every subcommand shares.
type Command struct {
	Log hclog.Logger
	UI  cli.Ui

	flagLogLevel string
}

// New returns a Command for log and ui.
func New(log hclog.Logger, ui cli.Ui) *Command {
	return &Command{
		Log: log,
		UI:  ui,
	}
}

// LogLevelFlag registers -log-level on f.
func (c *Command) LogLevelFlag(f *FlagSet) {
	f.StringVar(
		&c.flagLogLevel, "log-level", "",
		"Log level (trace, debug, info, warn, error); overrides log_level in the config file",
	)
}

// LoadConfig loads the configuration file at path, which may be empty, and
// sets the command log level from -log-level or the file's log_level.
func (c *Command) LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.NewConfig(path)
	if err != nil {
		return nil, err
	}

	switch {
	case c.flagLogLevel != "":
		level := hclog.LevelFromString(c.flagLogLevel)
		if level == hclog.NoLevel {
			return nil, fmt.Errorf("unknown log level %q", c.flagLogLevel)
		}
		c.Log.SetLevel(level)
	case cfg.LogLevel != "":
		c.Log.SetLevel(cfg.Level())
	}
	return cfg, nil
}

// FlagSet wraps flag.FlagSet so commands can render their flags in Help.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet wraps f. Flag output is discarded; commands report parse errors
// through the UI.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	f.SetOutput(&bytes.Buffer{})
	return &FlagSet{FlagSet: f}
}

// Help returns the flag usage text.
func (f *FlagSet) Help() string {
	var b strings.Builder
	b.WriteString("\n\nOptions:\n")
	f.VisitAll(func(fl *flag.Flag) {
		fmt.Fprintf(&b, "\n  -%s", fl.Name)
		if fl.DefValue != "" && fl.DefValue != "false" {
			fmt.Fprintf(&b, "=%s", fl.DefValue)
		}
		fmt.Fprintf(&b, "\n      %s\n", fl.Usage)
	})
	return b.String()
}

// StringFromEnv returns flagValue, or the value of env when the flag is empty.
func StringFromEnv(flagValue, env string) string {
	if val, ok := os.LookupEnv(env); ok && flagValue == "" {
		return val
	}
	return flagValue
}
