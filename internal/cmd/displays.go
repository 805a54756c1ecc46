package cmd

import (
	"flag"
	"io"
)

func newDisplaysCommand() command {
	return command{
		name:        "displays",
		description: "List active displays; the primary display is the confinement target",
		skipInit:    true,
		run: func(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
			printDisplays(stdout, newPlatform(false).displays())
			return nil
		},
	}
}
