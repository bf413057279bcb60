// Command hxpart serves content items with their parts over HTTP.
//
// Usage:
//
//	hxpart serve     Run the HTTP server
//	hxpart schema    Print the GraphQL schema types as JSON
//	hxpart version   Print version
//
// Configuration comes from HXPART_* environment variables; see Config.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set with -ldflags at build time.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "hxpart",
		Short:        "Content part host",
		Long:         `hxpart renders, edits and queries content items built from typed parts.`,
		Version:      version,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newSchemaCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hxpart version %s\n", version)
		},
	}
}
