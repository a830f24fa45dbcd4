// Command typeinfo computes layout descriptors for plain-data types declared
// in CUE or YAML schema files.
package main

import (
	"os"

	"github.com/roach88/typeinfo/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	os.Exit(cli.GetExitCode(err))
}
