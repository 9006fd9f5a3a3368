package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/m4sc0/new/internal/image"
	"github.com/m4sc0/new/internal/metadata"
	"github.com/m4sc0/new/internal/placeholder"
	"github.com/m4sc0/new/internal/render"
	"github.com/m4sc0/new/internal/ui"
)

var (
	createOutput string
	createSet    []string
	createNoOpen bool
)

var createCmd = &cobra.Command{
	Use:   "create <category/name[:version]> <project-name>",
	Short: "Create a new project from an image",
	Long: `Create renders an image from the local store into <output>/<project-name>.

A reference without a version that is not in the store is looked up in the
template folders (template_paths, then ~/.config/new/templates), each indexed
by a templates.json file.

Every {{key}} in file names and text files is replaced. Values such as
project_name, project_title, date, user, and uuid are filled in automatically;
other placeholders the template declares are taken from --set or asked for
interactively.`,
	Args: cobra.ExactArgs(2),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVarP(&createOutput, "output", "o", "", "Directory to create the project in (default: current directory)")
	createCmd.Flags().StringArrayVar(&createSet, "set", nil, "Placeholder value as key=value (repeatable)")
	createCmd.Flags().BoolVar(&createNoOpen, "no-open", false, "Do not open the main file in $EDITOR")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	src, err := a.locate(args[0])
	if err != nil {
		return err
	}
	ref, record := src.ref, src.record

	projectName := args[1]
	if projectName == "" || strings.ContainsAny(projectName, `/\`) || projectName == "." || projectName == ".." {
		return fmt.Errorf("invalid project name %q", projectName)
	}

	sets, err := parseSets(createSet)
	if err != nil {
		return err
	}
	resolvers := placeholder.Chain{sets}
	if interactive() {
		resolvers = append(resolvers, placeholder.Interactive(ui.PlaceholderPrompt))
	}

	values, err := placeholder.Resolve(record.Placeholders, placeholder.NewContext(projectName, ref), resolvers)
	if err != nil {
		return err
	}
	// Explicit --set values also override automatic ones.
	for k, v := range sets {
		values[k] = v
	}

	outDir := createOutput
	if outDir == "" {
		if outDir, err = os.Getwd(); err != nil {
			return fmt.Errorf("resolving current directory: %w", err)
		}
	}
	target := filepath.Join(outDir, projectName)

	out := cmd.OutOrStdout()
	ui.Title(out, "Creating %s from %s", projectName, ref)

	res, err := render.New(a.logger).Render(src.dir, target, values)
	if err != nil {
		return err
	}
	ui.Success(out, "Project created at %s (%d files)", res.TargetDir, len(res.Files))

	if open := record.OpenFile(); open != "" && a.cfg.OpenMainFile && !createNoOpen {
		return openInEditor(cmd, filepath.Join(target, filepath.FromSlash(render.Substitute(open, values))))
	}
	return nil
}

// source is what create renders from.
type source struct {
	ref    image.Reference
	dir    string
	record *metadata.Record
}

// locate finds arg in the store, falling back to the template folders for
// references without a version.
func (a *app) locate(arg string) (source, error) {
	ref, err := image.Parse(arg, true)
	if err != nil {
		return source{}, err
	}

	if ref.HasVersion() || a.cfg.AllowMissingVersion {
		resolved, err := a.store.Resolve(ref)
		if err == nil {
			record, err := a.store.Load(resolved)
			if err != nil {
				return source{}, err
			}
			return source{ref: resolved, dir: a.store.Path(resolved), record: record}, nil
		}
		if !errors.Is(err, image.ErrNotFound) {
			return source{}, err
		}
	}

	tmpl, err := a.catalog().Lookup(ref.Category, ref.Name)
	if err == nil {
		a.logger.Debug().Str("dir", tmpl.Dir).Str("index", tmpl.Index).Msg("using template folder")
		return source{ref: ref, dir: tmpl.Dir, record: tmpl.Metadata}, nil
	}
	if !a.cfg.AllowMissingVersion {
		return source{}, requireVersion(ref)
	}
	return source{}, fmt.Errorf("%w: %s is neither in the local store nor in a template folder", image.ErrNotFound, ref)
}

// parseSets turns key=value flags into a resolver.
func parseSets(pairs []string) (placeholder.Static, error) {
	out := placeholder.Static{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --set %q (expected key=value)", p)
		}
		out[k] = v
	}
	return out, nil
}

func openInEditor(cmd *cobra.Command, path string) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		ui.Warning(cmd.ErrOrStderr(), "open_main_file is set but $EDITOR is empty; not opening %s", path)
		return nil
	}

	fields := strings.Fields(editor)
	ui.Dim(cmd.OutOrStdout(), "opening %s in %s", path, fields[0])

	c := exec.Command(fields[0], append(fields[1:], path)...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("running %s: %w", editor, err)
	}
	return nil
}
