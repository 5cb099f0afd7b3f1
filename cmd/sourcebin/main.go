// Command sourcebin edits bins from the terminal against the same store the
// web server uses.
package main

import (
	"fmt"
	"os"

	"github.com/sakif/sourcebin/internal/apperror"
	"github.com/sakif/sourcebin/internal/commands"
)

func main() {
	app := commands.NewApp(commands.DefaultEnv())
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, apperror.Message(err, err.Error()))
		os.Exit(1)
	}
}
