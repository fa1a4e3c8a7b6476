// loop is a command-line client for the Loop social feed.
package main

import (
	"os"

	"github.com/hupe1980/loop/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
