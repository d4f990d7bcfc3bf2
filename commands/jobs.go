package commands

import (
	"fmt"
	"strings"

	"github.com/cansudoganay/shellgibi-shell/core/logger"
)

// Jobs lists the background jobs of the session.
func Jobs(ec *ExecContext) int {
	cmd := &SimpleCommand{
		Use:   "jobs [-l]",
		Short: "Display status of jobs.",
	}
	showPids := cmd.Flags().Bool('l', "list process IDs in addition to the normal information")

	return cmd.Run(ec, func() int {
		for _, job := range ec.Shell.Supervisor.Jobs() {
			if *showPids {
				var pids []string
				for _, pid := range job.Pids() {
					pids = append(pids, fmt.Sprint(pid))
				}
				fmt.Fprintf(ec.Stdout, "[%d] %s %s\t%s\n", job.ID, strings.Join(pids, ","), job.Status(), job.Line)
				continue
			}
			fmt.Fprintf(ec.Stdout, "[%d] %s\t%s\n", job.ID, job.Status(), job.Line)
		}
		return 0
	})
}

// signalCommand builds a builtin that sends one job control signal to the
// process or job named by its only argument.
func signalCommand(use, short, signal string, send func(ec *ExecContext, target int) (int, error)) ShellBuiltinFunc {
	return func(ec *ExecContext) int {
		cmd := &SimpleCommand{
			Use:   use,
			Short: short,
		}

		return cmd.Run(ec, func() int {
			args := cmd.Args()
			if len(args) != 1 {
				err := fmt.Errorf("usage: %s", use)
				ec.Errorf("%v", err)
				ec.LogInvalidInvocation(err)
				return 2
			}

			event := &logger.JobSignal{
				Builtin: ec.Args[0],
				Target:  args[0],
				Signal:  signal,
			}
			defer ec.Shell.record(event)

			target, err := ec.Shell.Supervisor.Target(args[0])
			if err != nil {
				event.Error = err.Error()
				ec.Errorf("%v", err)
				return 1
			}

			code, err := send(ec, target)
			if err != nil {
				event.Error = err.Error()
				ec.Errorf("%v", err)
				return 1
			}
			return code
		})
	}
}

var (
	// Pause stops a running process.
	Pause = signalCommand(
		"pause <pid|%job>",
		"Stop a process or job.",
		"SIGSTOP",
		func(ec *ExecContext, target int) (int, error) {
			return 0, ec.Shell.Relay.Pause(target)
		})

	// MyBg continues a stopped process without waiting for it.
	MyBg = signalCommand(
		"mybg <pid|%job>",
		"Continue a stopped process or job in the background.",
		"SIGCONT",
		func(ec *ExecContext, target int) (int, error) {
			return 0, ec.Shell.Relay.ResumeBackground(target)
		})

	// MyFg continues a stopped process and waits for it to end.
	MyFg = signalCommand(
		"myfg <pid|%job>",
		"Continue a stopped process or job and wait for it.",
		"SIGCONT",
		func(ec *ExecContext, target int) (int, error) {
			code, err := ec.Shell.Relay.ResumeForeground(target)
			if code < 0 {
				code = 0
			}
			return code, err
		})
)

var _ ShellBuiltin = Pause

func init() {
	AllBuiltins["jobs"] = ShellBuiltinFunc(Jobs)
	AllBuiltins["pause"] = Pause
	AllBuiltins["mybg"] = MyBg
	AllBuiltins["myfg"] = MyFg
}
