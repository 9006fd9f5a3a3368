package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/m4sc0/new/internal/catalog"
	"github.com/m4sc0/new/internal/config"
	"github.com/m4sc0/new/internal/image"
	"github.com/m4sc0/new/internal/logger"
	"github.com/m4sc0/new/internal/remote"
	"github.com/m4sc0/new/internal/store"
)

// app bundles what a command needs, built once per invocation from the
// resolved configuration.
type app struct {
	cfg    *config.Config
	logger *zerolog.Logger
	store  *store.Store
}

func configPath() string {
	if rootConfigPath != "" {
		return rootConfigPath
	}
	return config.FilePath()
}

func loadApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if rootVerbose {
		level = "debug"
	}
	log := logger.New(logger.WithLevel(level), logger.WithOutput(cmd.ErrOrStderr()))
	log.Debug().Str("config", cfg.Path()).Str("store", cfg.StoreRoot).Str("remote", cfg.Remote).Msg("loaded config")

	return &app{cfg: cfg, logger: log, store: store.New(cfg.StoreRoot, log)}, nil
}

func (a *app) remote() *remote.Client {
	return remote.New(a.cfg.Remote, a.store, remote.WithLogger(a.logger))
}

func (a *app) catalog() *catalog.Catalog {
	return catalog.Load(a.cfg.TemplateDirs(), a.logger)
}

// parseRef parses a command-line reference honoring allow_missing_version.
func (a *app) parseRef(arg string) (image.Reference, error) {
	return image.Parse(arg, a.cfg.AllowMissingVersion)
}

// localRef parses arg and resolves a missing version against the store.
func (a *app) localRef(arg string) (image.Reference, error) {
	ref, err := a.parseRef(arg)
	if err != nil {
		return image.Reference{}, err
	}
	return a.store.Resolve(ref)
}

// interactive reports whether prompts can be shown.
var interactive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func requireVersion(ref image.Reference) error {
	if !ref.HasVersion() {
		return fmt.Errorf("%w: %s (a version is required)", image.ErrInvalidReference, ref)
	}
	return nil
}
