package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/m4sc0/new/internal/image"
	"github.com/m4sc0/new/internal/ui"
)

var (
	listRemote    bool
	listTemplates bool
	listOutput    string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List images in the local store, the registry, or template folders",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listRemote, "remote", "r", false, "List the registry instead of the local store")
	listCmd.Flags().BoolVarP(&listTemplates, "templates", "t", false, "List templates from the template folders")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", ui.FormatTree, "Output format: tree, table, quiet, json, yaml")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	if listRemote && listTemplates {
		return fmt.Errorf("--remote and --templates cannot be combined")
	}
	if !ui.ValidListFormat(listOutput) {
		return fmt.Errorf("unknown output format %q (use tree, table, quiet, json, or yaml)", listOutput)
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	var entries []ui.Entry
	where := "the local store"
	switch {
	case listRemote:
		refs, err := a.remote().List()
		if err != nil {
			return err
		}
		for _, ref := range refs {
			entries = append(entries, ui.NewEntry(ui.OriginRemote, ref, ""))
		}
		where = a.cfg.Remote
	case listTemplates:
		for _, tmpl := range a.catalog().All() {
			entries = append(entries, ui.NewEntry(ui.OriginTemplate, tmpl.Reference(), tmpl.Metadata.Description))
		}
		where = "the template folders"
	default:
		entries = localEntries(a)
	}

	if len(entries) == 0 && (listOutput == ui.FormatTree || listOutput == ui.FormatTable) {
		fmt.Fprintf(cmd.OutOrStdout(), "No images in %s.\n", where)
		return nil
	}
	return ui.RenderList(cmd.OutOrStdout(), listOutput, entries)
}

func localEntries(a *app) []ui.Entry {
	var refs []image.Reference
	for ref := range a.store.Enumerate() {
		refs = append(refs, ref)
	}
	image.Sort(refs)

	entries := make([]ui.Entry, 0, len(refs))
	for _, ref := range refs {
		var desc string
		if record, err := a.store.Load(ref); err == nil {
			desc = record.Description
		}
		entries = append(entries, ui.NewEntry(ui.OriginLocal, ref, desc))
	}
	return entries
}
