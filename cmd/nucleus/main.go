// Command nucleus is the operator-facing CLI around pkg/kernel: it
// boots a nucleus against a simulated machine, lets an operator attach
// to its terminal device, and exposes a read-only diagnostic snapshot
// (pkg/diag). Subcommand dispatch follows the same google/subcommands
// pattern the teacher's own runsc CLI uses.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&bootCmd{}, "")
	subcommands.Register(&attachCmd{}, "")
	subcommands.Register(&inspectCmd{}, "")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
