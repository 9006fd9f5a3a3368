package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/m4sc0/new/internal/branding"
	"github.com/m4sc0/new/internal/config"
)

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configAddPathCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage user settings",
	Long: `Read and write settings stored at ~/` + branding.ConfigDir() + `/config.json.

Keys: store_root, remote, allow_missing_version, open_main_file, upload_token,
log_level, template_paths (comma-separated). Any key can be overridden with an environment variable such as
` + branding.EnvVar("REMOTE") + `.`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := config.Set(configPath(), key, value); err != nil {
			return fmt.Errorf("setting config key %q: %w", key, err)
		}
		if key == config.KeyUploadToken {
			value = mask(value)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := config.Get(configPath(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show every setting with its effective value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, err := config.All(configPath())
		if err != nil {
			return err
		}
		for _, k := range config.Keys() {
			v := all[k]
			if k == config.KeyUploadToken && v != config.NoToken {
				v = mask(v)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, v)
		}
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), configPath())
		return nil
	},
}

var configAddPathCmd = &cobra.Command{
	Use:   "add-path <dir>",
	Short: "Add a template folder to template_paths",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving %s: %w", args[0], err)
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
		added, err := config.AddTemplatePath(configPath(), dir)
		if err != nil {
			return fmt.Errorf("adding template path: %w", err)
		}
		if !added {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is already in template_paths\n", dir)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s to template_paths\n", dir)
		return nil
	},
}

func mask(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:2] + "****" + secret[len(secret)-2:]
}
