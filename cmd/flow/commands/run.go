package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [tasks...]",
		Short: "Run the named tasks and everything they require",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				// Display command usage help without returning an error
				_ = cmd.Help()
				return nil
			}

			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			return c.app.Run(cmd.Context(), configPath, args)
		},
	}
}
