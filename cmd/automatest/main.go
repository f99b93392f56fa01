// Package main is the entry point for the automatest CLI.
package main

import (
	"os"

	"github.com/AndreyAkinshin/automatest/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
