package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/m4sc0/new/internal/config"
	"github.com/m4sc0/new/internal/ui"
)

var pushCmd = &cobra.Command{
	Use:   "push <category/name[:version]>",
	Short: "Upload an image to the registry",
	Long: `Push uploads an image from the local store to the configured registry.
Without a version the highest local version is pushed. The upload token is
read from the upload_token setting; in a terminal you are asked for it when
it is missing.`,
	Args: cobra.ExactArgs(1),
	RunE: runPush,
}

func init() {
	rootCmd.AddCommand(pushCmd)
}

func runPush(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	ref, err := a.localRef(args[0])
	if err != nil {
		return err
	}

	token, ok := a.cfg.UploadToken()
	if !ok && interactive() {
		if token, err = promptToken(cmd, a.cfg); err != nil {
			return err
		}
	}

	if err := a.remote().Push(ref, token); err != nil {
		return err
	}
	ui.Success(cmd.OutOrStdout(), "Pushed %s to %s", ref, a.cfg.Remote)
	return nil
}

// promptToken asks for an upload token and offers to save it.
func promptToken(cmd *cobra.Command, cfg *config.Config) (string, error) {
	token, err := ui.Secret("Upload token for " + cfg.Remote)
	if err != nil {
		return "", err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", nil
	}

	save, err := ui.Confirm("Save this token to " + cfg.Path() + "?")
	if err != nil {
		return "", err
	}
	if save {
		if err := config.Set(cfg.Path(), config.KeyUploadToken, token); err != nil {
			return "", err
		}
		ui.Dim(cmd.OutOrStdout(), "token saved")
	}
	return token, nil
}
