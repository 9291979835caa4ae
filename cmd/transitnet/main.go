package main

import (
	"os"

	"github.com/transitnet/transitnet-cli/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
