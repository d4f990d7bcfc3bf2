package cmd

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/cansudoganay/shellgibi-shell/commands"
	"github.com/cansudoganay/shellgibi-shell/core/config"
	"github.com/cansudoganay/shellgibi-shell/core/logger"
	"github.com/cansudoganay/shellgibi-shell/core/proc"
	"github.com/spf13/cobra"
)

var (
	cfgPath  string
	command  string
	debug    bool
	exitCode int
)

// configDir returns the directory given with --config or the default one.
func configDir() (string, error) {
	if cfgPath != "" {
		return cfgPath, nil
	}
	return config.DefaultDir()
}

func loadConfig() (*config.Configuration, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}

	configuration, err := config.Load(dir)
	if errors.Is(err, fs.ErrNotExist) {
		log.Println("Couldn't load config: did you run init?")
	}

	return configuration, err
}

// shellConfig loads the configuration, falling back to the built in one when
// none has been initialized.
func shellConfig() (*config.Configuration, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}

	configuration, err := config.Load(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return configuration, err
}

// openEvents creates the session's event recorder. Configurations without a
// directory record nothing.
func openEvents(configuration *config.Configuration) (*logger.SessionLogger, func() error, error) {
	fd, err := configuration.OpenEventLog()
	if errors.Is(err, config.ErrNotPersistent) {
		return logger.Discard().NewSession(), func() error { return nil }, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return logger.NewJsonLinesLogRecorder(fd).NewSession(), fd.Close, nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shellgibi",
	Short: "A small job control shell",
	Long: `An interactive shell with pipelines, redirection, background jobs and
job control builtins. Lines ending in '?' list completions instead of running.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		configuration, err := shellConfig()
		if err != nil {
			return err
		}

		sh := commands.NewShell(configuration, proc.Stdio{
			In:  cmd.InOrStdin(),
			Out: cmd.OutOrStdout(),
			Err: cmd.ErrOrStderr(),
		})
		sh.Debug = debug

		events, closeEvents, err := openEvents(configuration)
		if err != nil {
			return err
		}
		defer closeEvents()
		sh.Events = events

		if cmd.Flags().Changed("command") {
			sh.RunCommand(command)
			exitCode = sh.ExitCode()
			return nil
		}

		input, err := commands.NewLineReader(sh)
		if err != nil {
			sh.Reporter.Report(proc.ScopeSession, "readline", err)
			exitCode = 1
			return nil
		}
		defer input.Close()

		exitCode = sh.RunInteractive(input)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
	os.Exit(exitCode)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config directory (default ~/"+config.DefaultDirName+")")
	rootCmd.Flags().StringVarP(&command, "command", "c", "", "run one line and exit with its status")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "print every parsed pipeline before running it")
}
