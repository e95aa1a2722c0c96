// Command notjs is the CLI entry point for the notjs toolchain.
//
// Usage:
//
//	notjs [file]                   Run a program (stdin when omitted)
//	notjs tokens <file> [-o json]  Print tokens
//	notjs parse  <file> [-o yaml]  Print the syntax tree
//	notjs fmt    <file> [--check]  Print a program in canonical form
//	notjs check  <file>            Report problems without running
//	notjs repl                     Start an interactive session
package main

import (
	"context"
	"notjs/cli"
	"os"
)

func main() {
	// cli.Run logs its own failures with the configured logger.
	if err := cli.Run(context.Background(), os.Exit, cli.StdIO(), os.Args[1:]...); err != nil {
		os.Exit(1)
	}
}
