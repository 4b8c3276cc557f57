// Package main is the avatar command itself.
package main

import (
	"os"

	"github.com/unixpickle/essentials"

	"github.com/yanioaioan/swooz/cli"
)

func main() {
	essentials.Must(cli.NewApp(os.Stdout, os.Stderr).Run(os.Args))
}
