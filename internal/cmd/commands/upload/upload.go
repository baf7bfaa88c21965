package upload

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/hashicorp-forge/hermes-dmclient/internal/cmd/base"
	"github.com/hashicorp-forge/hermes-dmclient/internal/config"
	"github.com/hashicorp-forge/hermes-dmclient/pkg/document"
	"github.com/hashicorp-forge/hermes-dmclient/pkg/document/adapters/api"
	"github.com/hashicorp-forge/hermes-dmclient/pkg/resilience"
)

type Command struct {
	*base.Command

	// FS is where file arguments are read from.
	FS afero.Fs

	flagConfig           string
	flagAuthToken        string
	flagServiceAuthToken string
	flagUserID           string
	flagContentType      string
	flagFormat           string
}

func (c *Command) Synopsis() string {
	return "Upload files to the document management store"
}

func (c *Command) Help() string {
	return `Usage: dmclient upload [options] FILE...

  Upload one or more files in a single multipart request and print the
  per-file results. Content types are taken from -content-type, otherwise
  from the file extension, otherwise sniffed from the file content.

  When the configuration has a resilience block, uploads go through a
  circuit breaker and files are reported as SERVICE_UNAVAILABLE while it
  is open.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("upload", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "",
		"Path to dmclient config file",
	)
	f.StringVar(
		&c.flagAuthToken, "auth-token", "",
		"["+config.EnvAuthToken+"] User authorization token",
	)
	f.StringVar(
		&c.flagServiceAuthToken, "service-auth-token", "",
		"["+config.EnvServiceAuthToken+"] Service authorization token",
	)
	f.StringVar(
		&c.flagUserID, "user-id", "",
		"User ID sent in the user-id header",
	)
	f.StringVar(
		&c.flagContentType, "content-type", "",
		"Content type for every file (detected per file when empty)",
	)
	f.StringVar(
		&c.flagFormat, "format", base.FormatJSON,
		"Output format (json or yaml)",
	)
	c.LogLevelFlag(f)

	return f
}

func (c *Command) Run(args []string) int {
	logger, ui := c.Log, c.UI

	f := c.Flags()
	if err := f.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	paths := f.Args()
	if len(paths) == 0 {
		ui.Error("at least one file is required")
		return 1
	}
	if !base.ValidFormat(c.flagFormat) {
		ui.Error(fmt.Sprintf("unsupported output format: %q", c.flagFormat))
		return 1
	}

	authToken := base.StringFromEnv(c.flagAuthToken, config.EnvAuthToken)
	serviceAuthToken := base.StringFromEnv(c.flagServiceAuthToken, config.EnvServiceAuthToken)

	cfg, err := c.LoadConfig(c.flagConfig)
	if err != nil {
		ui.Error(fmt.Sprintf("error loading config: %v", err))
		return 1
	}

	client, err := c.newClient(cfg)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	fs := c.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}
	files := make([]document.File, 0, len(paths))
	for _, p := range paths {
		file, err := c.file(fs, p)
		if err != nil {
			ui.Error(err.Error())
			return 1
		}
		files = append(files, file)
	}

	logger.Debug("uploading files", "count", len(files), "user_id", c.flagUserID)

	resp, err := client.Upload(context.Background(), authToken, serviceAuthToken, c.flagUserID, files)
	if err != nil {
		ui.Error(fmt.Sprintf("error uploading files: %v", err))
		return 1
	}

	if err := c.Output(c.flagFormat, newResults(resp)); err != nil {
		ui.Error(err.Error())
		return 1
	}

	for _, r := range resp.Results {
		if r.Status != http.StatusOK && r.Status != http.StatusCreated {
			ui.Warn(fmt.Sprintf("%s: %s", r.FileName, r.Status.Name()))
		}
	}
	return 0
}

func (c *Command) newClient(cfg *config.Config) (document.UploadClient, error) {
	apiCfg, err := cfg.UploadConfig(c.Log)
	if err != nil {
		return nil, err
	}
	client, err := api.NewUploadClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("error creating upload client: %w", err)
	}

	settings, ok, err := cfg.ResilienceSettings(c.Log)
	if err != nil {
		return nil, err
	}
	if !ok {
		return client, nil
	}
	return resilience.NewUploadClient(client, settings)
}

// file describes the file at path. Its content is read when the upload is
// sent.
func (c *Command) file(fs afero.Fs, path string) (document.File, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return document.File{}, fmt.Errorf("error reading %s: %w", path, err)
	}
	if info.IsDir() {
		return document.File{}, fmt.Errorf("error reading %s: is a directory", path)
	}

	contentType := c.flagContentType
	if contentType == "" {
		contentType, err = detectContentType(fs, path)
		if err != nil {
			return document.File{}, err
		}
	}

	return document.File{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Content: func() ([]byte, error) {
			return afero.ReadFile(fs, path)
		},
	}, nil
}

func detectContentType(fs afero.Fs, path string) (string, error) {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct, nil
	}

	f, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("error reading %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := f.Read(head)
	if err != nil && n == 0 && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("error reading %s: %w", path, err)
	}
	return http.DetectContentType(head[:n]), nil
}

// result is one upload result as printed: the store's fields plus the
// document ID and timestamps parsed from them.
type result struct {
	document.FileUploadResult
	ID       string     `json:"documentId,omitempty"`
	Created  *time.Time `json:"createdAt,omitempty"`
	Modified *time.Time `json:"modifiedAt,omitempty"`
}

func newResults(resp *document.UploadResponse) []result {
	out := make([]result, 0, len(resp.Results))
	for _, r := range resp.Results {
		v := result{FileUploadResult: r}
		if id, err := r.DocumentID(); err == nil {
			v.ID = id.String()
		}
		if t, err := r.CreatedAt(); err == nil {
			v.Created = &t
		}
		if t, err := r.ModifiedAt(); err == nil {
			v.Modified = &t
		}
		out = append(out, v)
	}
	return out
}
