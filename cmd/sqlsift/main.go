// Package main is the sqlsift command-line entry point.
package main

import (
	"os"

	"github.com/sqlsift/sqlsift/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
