package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

var errFound = errors.New("found")

// findFile walks root depth first and returns the first path whose base
// name is name. Directories that can't be read are skipped.
func findFile(fs afero.Fs, root, name string) (string, bool) {
	var match string
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if path != root && info.Name() == name {
			match = path
			return errFound
		}
		return nil
	})
	return match, errors.Is(err, errFound)
}

// Search looks for a file by name under the home directory.
func Search(ec *ExecContext) int {
	cmd := &SimpleCommand{
		Use:   "search <name>",
		Short: "Find a file by name in the home directory.",
	}

	return cmd.Run(ec, func() int {
		args := cmd.Args()
		if len(args) != 1 {
			err := fmt.Errorf("usage: %s", cmd.Use)
			ec.Errorf("%v", err)
			ec.LogInvalidInvocation(err)
			return 2
		}

		name := args[0]
		root := filepath.Clean(ec.Shell.Home)
		if path, ok := findFile(ec.Shell.Fs, root, name); ok {
			fmt.Fprintln(ec.Stdout, path)
			return 0
		}

		fmt.Fprintf(ec.Stdout, "%s is searched, but could not be found.\n", name)
		return 1
	})
}

func init() {
	AllBuiltins["search"] = ShellBuiltinFunc(Search)
}
