package commands

import (
	"fmt"

	"github.com/cansudoganay/shellgibi-shell/core/proc"
)

// Which shows what a command name runs: a builtin or the resolved program.
func Which(ec *ExecContext) int {
	cmd := &SimpleCommand{
		Use:   "which [COMMAND...]",
		Short: "Locate a command.",
	}

	return cmd.RunEachArg(ec, func(arg string) error {
		if _, ok := AllBuiltins[arg]; ok {
			fmt.Fprintf(ec.Stdout, "%s: shell builtin\n", arg)
			return nil
		}

		res := ec.Shell.Supervisor.Launcher.Resolver.Resolve(arg)
		info, err := ec.Shell.Fs.Stat(res)
		if err != nil || info.IsDir() {
			return fmt.Errorf("%s: %w", arg, proc.ErrExecutableNotFound)
		}
		fmt.Fprintln(ec.Stdout, res)
		return nil
	})
}

var _ ShellBuiltin = ShellBuiltinFunc(Which)

func init() {
	AllBuiltins["which"] = ShellBuiltinFunc(Which)
}
