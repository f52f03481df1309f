package cli

import (
	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration (defaults, file and OXYKEY_* environment)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Format == FormatText {
				return app.Config.Encode(cmd.OutOrStdout())
			}
			return writeOut(cmd, app, app.Config)
		},
	}
	return cmd
}
