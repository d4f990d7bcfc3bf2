package cmd

import (
	"fmt"

	"github.com/cansudoganay/shellgibi-shell/commands"
	"github.com/spf13/cobra"
)

var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "Show the builtin commands of the shell.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range commands.BuiltinNames() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
}
