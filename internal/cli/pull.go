package cli

import (
	"github.com/spf13/cobra"

	"github.com/m4sc0/new/internal/ui"
)

var pullCmd = &cobra.Command{
	Use:   "pull <category/name[:version]>",
	Short: "Download an image from the registry",
	Long: `Pull downloads an image from the configured registry into the local store.
Without a version the highest version in the registry is pulled. An existing
local copy of the same reference is replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: runPull,
}

func init() {
	rootCmd.AddCommand(pullCmd)
}

func runPull(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	ref, err := a.parseRef(args[0])
	if err != nil {
		return err
	}
	client := a.remote()
	if ref, err = client.Resolve(ref); err != nil {
		return err
	}

	if a.store.Exists(ref) {
		ui.Warning(cmd.ErrOrStderr(), "%s is already in the local store and will be replaced", ref)
	}

	path, err := client.Pull(ref)
	if err != nil {
		return err
	}
	ui.Success(cmd.OutOrStdout(), "Pulled %s", ref)
	ui.Dim(cmd.OutOrStdout(), "path: %s", path)
	return nil
}
