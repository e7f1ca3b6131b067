// Package main provides the entry point for the politewalk CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for politewalk.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "politewalk",
		Short: "Polite crawler for paginated listing pages",
		Long: `politewalk crawls paginated listing pages (product catalogs, article
indexes, search results) one page at a time while staying polite:
it honors robots.txt, waits a jittered delay between requests, retries
transient failures with exponential backoff, and obeys Retry-After when
the server asks it to slow down.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
