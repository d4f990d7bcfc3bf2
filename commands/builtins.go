package commands

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/cansudoganay/shellgibi-shell/core/proc"
)

// AllBuiltins holds a list of all registered shell builtins
var AllBuiltins = make(map[string]ShellBuiltin)

type ShellBuiltin interface {
	Main(ec *ExecContext) int
}

type ShellBuiltinFunc func(ec *ExecContext) int

func (f ShellBuiltinFunc) Main(ec *ExecContext) int {
	return f(ec)
}

var _ ShellBuiltin = (ShellBuiltinFunc)(nil)

// BuiltinNames returns the registered builtins in sorted order.
func BuiltinNames() []string {
	var names []string
	for k := range AllBuiltins {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Cd is the cd shell builtin
func Cd(ec *ExecContext) int {
	args := ec.Args
	switch len(args) {
	case 1:
		args = append(args, ec.Shell.Home)
		fallthrough
	case 2:
		dir := args[1]
		if err := os.Chdir(dir); err != nil {
			ec.Errorf("%s: %s", dir, proc.Message(err))
			return 1
		}
		if wd, err := os.Getwd(); err == nil {
			os.Setenv("OLDPWD", os.Getenv("PWD"))
			os.Setenv("PWD", wd)
		}
	default:
		ec.Errorf("too many arguments")
		return 1
	}
	return 0
}

// ExitShell quits the shell
func ExitShell(ec *ExecContext) int {
	code := ec.Shell.lastRet
	switch len(ec.Args) {
	case 1:
	case 2:
		n, err := strconv.Atoi(ec.Args[1])
		if err != nil {
			ec.Errorf("%s: numeric argument required", ec.Args[1])
			ec.LogInvalidInvocation(err)
			n = 2
		}
		code = n & 0xff
	default:
		ec.Errorf("too many arguments")
		return 1
	}

	ec.Shell.quit = true
	return code
}

func History(ec *ExecContext) int {
	cmd := &SimpleCommand{
		Use:   "history [-c]",
		Short: "Display the history list with line numbers.",
	}
	clear := cmd.Flags().Bool('c', "clear the history by deleting all entries")

	return cmd.Run(ec, func() int {
		s := ec.Shell
		if *clear {
			if s.input != nil {
				s.input.ResetHistory()
			}
			s.history = nil
			return 0
		}

		for i, line := range s.history {
			fmt.Fprintf(ec.Stdout, "% 5d  %s\n", i, line)
		}
		return 0
	})
}

func Help(ec *ExecContext) int {
	w := ec.Stdout
	fmt.Fprintf(w, "%s, a small job control shell\n", ec.Shell.sysname())
	fmt.Fprintln(w, "These shell commands are defined internally.  Type `help' to see this list.")
	fmt.Fprintln(w, "Type `name --help' to find out more about the command `name'.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Builtins:")
	fmt.Fprintln(w)

	for _, name := range BuiltinNames() {
		fmt.Fprintln(w, name)
	}

	return 0
}

func init() {
	AllBuiltins["cd"] = ShellBuiltinFunc(Cd)
	AllBuiltins["history"] = ShellBuiltinFunc(History)
	AllBuiltins["help"] = ShellBuiltinFunc(Help)
	AllBuiltins["exit"] = ShellBuiltinFunc(ExitShell)
}
