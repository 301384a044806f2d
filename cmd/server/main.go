// ABOUTME: Standalone MCP server entry point with stdio transport
// ABOUTME: Equivalent to "recall mcp" for agent hosts that launch a bare binary
package main

import (
	"fmt"
	"os"

	"github.com/harper/recall/cmd/recall/commands"
)

var version = "dev"

func main() {
	commands.SetVersion(version, "none", "unknown")

	root := commands.NewRootCmd()
	root.SetArgs(append([]string{"mcp"}, os.Args[1:]...))
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
