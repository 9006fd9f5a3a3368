package cli

import (
	"github.com/spf13/cobra"

	"github.com/m4sc0/new/internal/builder"
	"github.com/m4sc0/new/internal/ui"
)

var (
	buildForce  bool
	buildDryRun bool
)

var buildCmd = &cobra.Command{
	Use:   "build <category/name:version> [source-dir]",
	Short: "Build a template folder into the local store",
	Long: `Build copies a template folder (default: the current directory) into the
local store under the given reference. The folder must contain a template.json;
its category, name, and version are replaced by the reference, and the content
hash, size, and creation time are recorded.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVarP(&buildForce, "force", "f", false, "Replace an existing image with the same reference")
	buildCmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "Show what would be built without writing anything")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	ref, err := a.parseRef(args[0])
	if err != nil {
		return err
	}
	if err := requireVersion(ref); err != nil {
		return err
	}

	source := "."
	if len(args) == 2 {
		source = args[1]
	}

	res, err := builder.New(a.store, a.logger).Build(ref, source, builder.Options{Force: buildForce, DryRun: buildDryRun})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case res.DryRun:
		ui.Success(out, "Dry run: would build %s (%d files)", res.Ref, res.Files)
	case res.Replaced:
		ui.Success(out, "Rebuilt %s (%d files)", res.Ref, res.Files)
	default:
		ui.Success(out, "Built %s (%d files)", res.Ref, res.Files)
	}
	ui.Dim(out, "path: %s", res.Path)
	ui.Dim(out, "hash: %s", res.Metadata.HashString())
	return nil
}
