package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/m4sc0/new/internal/image"
	"github.com/m4sc0/new/internal/metadata"
	"github.com/m4sc0/new/internal/placeholder"
	"github.com/m4sc0/new/internal/ui"
)

var (
	infoRemote bool
	infoOutput string
)

var infoCmd = &cobra.Command{
	Use:   "info <category/name[:version]>",
	Short: "Show an image's metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().BoolVarP(&infoRemote, "remote", "r", false, "Read the metadata from the registry")
	infoCmd.Flags().StringVarP(&infoOutput, "output", "o", "text", "Output format: text, json, yaml")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	ref, err := a.parseRef(args[0])
	if err != nil {
		return err
	}

	var record *metadata.Record
	if infoRemote {
		client := a.remote()
		if ref, err = client.Resolve(ref); err != nil {
			return err
		}
		record, err = client.FetchMetadata(ref)
	} else {
		if ref, err = a.store.Resolve(ref); err != nil {
			return err
		}
		record, err = a.store.Load(ref)
	}
	if err != nil {
		return err
	}

	switch infoOutput {
	case "text", "":
		printInfo(cmd, ref, record)
		return nil
	case ui.FormatJSON, ui.FormatYAML:
		return ui.Encode(cmd.OutOrStdout(), infoOutput, record)
	default:
		return fmt.Errorf("unknown output format %q (use text, json, or yaml)", infoOutput)
	}
}

func printInfo(cmd *cobra.Command, ref image.Reference, r *metadata.Record) {
	out := cmd.OutOrStdout()
	ui.Title(out, "%s", ref)
	ui.Field(out, "Name", r.Name)
	ui.Field(out, "Description", r.Description)
	ui.Field(out, "Placeholders", strings.Join(r.Placeholders, ", "))
	if pending := placeholder.Pending(r.Placeholders, autoKeySet()); len(pending) > 0 {
		ui.Field(out, "Prompted", strings.Join(pending, ", "))
	}
	ui.Field(out, "Open", r.OpenFile())
	if r.Created != nil {
		ui.Field(out, "Created", r.Created.Local().Format(time.RFC1123))
	} else {
		ui.Field(out, "Created", "")
	}
	ui.Field(out, "Hash", r.HashString())
	if r.Size != nil {
		ui.Field(out, "Size", strconv.FormatInt(*r.Size, 10)+" bytes")
	} else {
		ui.Field(out, "Size", "")
	}
}

func autoKeySet() map[string]string {
	m := make(map[string]string, len(placeholder.AutoKeys))
	for _, k := range placeholder.AutoKeys {
		m[k] = ""
	}
	return m
}
