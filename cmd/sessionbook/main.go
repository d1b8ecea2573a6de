package main

import (
	"os"

	"github.com/jamesnordlund/sessionbook/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
