package cmd

import (
	"fmt"

	"github.com/cansudoganay/shellgibi-shell/core/logger"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Explore the shell event log.",
}

// readEvents feeds every entry of the configured event log to handler.
func readEvents(handler func(le *logger.LogEntry)) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}

	fd, err := config.ReadEventLog()
	if err != nil {
		return err
	}
	defer fd.Close()

	return logger.ReadJSONLinesLog(fd, handler)
}

func printYAML(cmd *cobra.Command, v interface{}) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

var reportCommand = &cobra.Command{
	Use:   "report",
	Short: "Show a report of events.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		var report logger.Report
		if err := readEvents(report.Update); err != nil {
			return err
		}

		return printYAML(cmd, report)
	},
}

var bugsCommand = &cobra.Command{
	Use:   "bugs",
	Short: "Show commands that couldn't be run or were invoked wrong.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		report := logger.NewBugReport()
		if err := readEvents(report.Update); err != nil {
			return err
		}

		return printYAML(cmd, report)
	},
}

var sessionsCommand = &cobra.Command{
	Use:   "sessions [SESSION_ID]",
	Short: "Show what happened in each session, or in one.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		var report logger.InteractionReport
		if err := readEvents(report.Update); err != nil {
			return err
		}

		if len(args) == 0 {
			return printYAML(cmd, &report)
		}

		session, ok := report.Session(args[0])
		if !ok {
			return fmt.Errorf("no session with ID %q", args[0])
		}
		return printYAML(cmd, session)
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(reportCommand)
	eventsCmd.AddCommand(bugsCommand)
	eventsCmd.AddCommand(sessionsCommand)
}
