package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/m4sc0/new/internal/branding"
	"github.com/m4sc0/new/internal/image"
	"github.com/m4sc0/new/internal/placeholder"
	"github.com/m4sc0/new/internal/ui"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	rootVerbose    bool
	rootConfigPath string
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` creates new projects and documents from versioned template images.

Images are addressed as category/name:version, built from a local folder
containing a template.json, cached under the store root, and shared through
a remote registry.`,
	Example: `  ` + branding.CLIName() + ` build python/fastapi:1.0.0 ./my-template
  ` + branding.CLIName() + ` create python/fastapi my-service
  ` + branding.CLIName() + ` pull python/fastapi:1.0.0
  ` + branding.CLIName() + ` list --remote`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Log every filesystem and network step")
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "", "Config file (default $"+branding.EnvVar("CONFIG")+" or ~/"+branding.ConfigDir()+"/config.json)")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	err := rootCmd.Execute()
	if err != nil {
		ui.Error(os.Stderr, "%v", err)
		if h := hint(err); h != "" {
			ui.Dim(os.Stderr, "%s", h)
		}
	}
	return err
}

// hint suggests a next step for the error kinds users can act on.
func hint(err error) string {
	cli := branding.CLIName()
	switch {
	case errors.Is(err, image.ErrAuth):
		return "set a token with '" + cli + " config set upload_token <token>'"
	case errors.Is(err, image.ErrInvalidReference):
		return "images are written as category/name:version"
	case errors.Is(err, placeholder.ErrUnresolved):
		return "pass values with --set key=value or run in a terminal to be prompted"
	case errors.Is(err, image.ErrRemoteTransport):
		return "check the registry URL with '" + cli + " config get remote'"
	}
	return ""
}
