package main

import (
	"os"

	"github.com/marcelocantos/pipesh/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
