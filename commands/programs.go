package commands

import (
	"fmt"
	"strconv"
)

// MyJobs lists the processes owned by the current user.
func MyJobs(ec *ExecContext) int {
	cmd := &SimpleCommand{
		Use:   "myjobs",
		Short: "List every process of the current user.",
	}

	return cmd.Run(ec, func() int {
		if len(cmd.Args()) != 0 {
			err := fmt.Errorf("usage: %s", cmd.Use)
			ec.Errorf("%v", err)
			ec.LogInvalidInvocation(err)
			return 2
		}
		return ec.Shell.runProgram(ec, "ps", "-u", ec.Shell.User)
	})
}

// PsVis draws the process tree, rooted at the given pid if one is given.
func PsVis(ec *ExecContext) int {
	cmd := &SimpleCommand{
		Use:   "psvis [pid]",
		Short: "Visualize the process tree.",
	}

	return cmd.Run(ec, func() int {
		args := cmd.Args()
		switch len(args) {
		case 0:
			return ec.Shell.runProgram(ec, "pstree")
		case 1:
			if pid, err := strconv.Atoi(args[0]); err != nil || pid <= 0 {
				err := fmt.Errorf("%s: not a process ID", args[0])
				ec.Errorf("%v", err)
				ec.LogInvalidInvocation(err)
				return 1
			}
			return ec.Shell.runProgram(ec, "pstree", args[0])
		default:
			err := fmt.Errorf("usage: %s", cmd.Use)
			ec.Errorf("%v", err)
			ec.LogInvalidInvocation(err)
			return 2
		}
	})
}

func init() {
	AllBuiltins["myjobs"] = ShellBuiltinFunc(MyJobs)
	AllBuiltins["psvis"] = ShellBuiltinFunc(PsVis)
}
