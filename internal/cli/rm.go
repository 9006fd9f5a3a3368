package cli

import (
	"github.com/spf13/cobra"

	"github.com/m4sc0/new/internal/ui"
)

var rmCmd = &cobra.Command{
	Use:     "rm <category/name:version>...",
	Aliases: []string{"remove"},
	Short:   "Remove images from the local store",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	for _, arg := range args {
		ref, err := a.parseRef(arg)
		if err != nil {
			return err
		}
		if err := requireVersion(ref); err != nil {
			return err
		}
		if err := a.store.Remove(ref); err != nil {
			return err
		}
		ui.Success(cmd.OutOrStdout(), "Removed %s", ref)
	}
	return nil
}
