package cmd

import (
	"log"

	"github.com/cansudoganay/shellgibi-shell/core/config"
	"github.com/spf13/cobra"
)

// initCmd intializes the shell configuration
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration into the configuration directory.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		logger := log.New(cmd.ErrOrStderr(), "", 0)

		dir, err := configDir()
		if err != nil {
			return err
		}

		_, err = config.Initialize(dir, logger)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
