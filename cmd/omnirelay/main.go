// Package main is the entry point for the omnirelay binary.
package main

import (
	"os"

	_ "github.com/mattn/go-sqlite3"

	"omnirelay/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
