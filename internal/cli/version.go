package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/m4sc0/new/internal/branding"
	"github.com/m4sc0/new/internal/ui"
)

var (
	versionShort  bool
	versionOutput string
)

type versionInfo struct {
	Version  string `json:"version" yaml:"version"`
	Commit   string `json:"commit" yaml:"commit"`
	Built    string `json:"built" yaml:"built"`
	Go       string `json:"go" yaml:"go"`
	Platform string `json:"platform" yaml:"platform"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print the version number only")
	versionCmd.Flags().StringVarP(&versionOutput, "output", "o", "text", "Output format: text, json, yaml")
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := currentVersion()
	out := cmd.OutOrStdout()
	if versionShort {
		fmt.Fprintln(out, info.Version)
		return nil
	}

	switch versionOutput {
	case "text", "":
		ui.Title(out, "%s %s", branding.CLIName(), info.Version)
		ui.Field(out, "Commit", info.Commit)
		ui.Field(out, "Built", info.Built)
		ui.Field(out, "Go", info.Go)
		ui.Field(out, "Platform", info.Platform)
		return nil
	case ui.FormatJSON, ui.FormatYAML:
		return ui.Encode(out, versionOutput, info)
	default:
		return fmt.Errorf("unknown output format %q (use text, json, or yaml)", versionOutput)
	}
}

// currentVersion falls back to the module version recorded by
// "go install" when no version was injected at link time.
func currentVersion() versionInfo {
	info := versionInfo{
		Version:  buildVersion,
		Commit:   buildCommit,
		Built:    buildDate,
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info.Version == "" || info.Version == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	return info
}
