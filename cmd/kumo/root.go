// Package main provides the entry point for the kumo CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for kumo.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kumo",
		Short: "Concurrent web crawler",
		Long: `Kumo is a concurrent web crawler. Starting from one or more seed URLs,
it fetches pages on a pool of workers, extracts the links on each page,
and follows the ones inside the crawl scope until no eligible links remain.

By default the crawl stays on the registrable domains of the seeds, so
crawling https://example.com also covers blog.example.com but never
leaves example.com. Use --scope to restrict or widen this.`,
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
