package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/TianxingChang/Kairos-sub000/internal/repl"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start the interactive shell",
	Long: `Start an interactive shell for content discovery.

Plain-English input is classified and dispatched:
- 'find rust tutorials' runs a topic search
- 'crawl https://example.com/post' fetches a URL
- 'health' and 'jobs' inspect the session

Type 'help' in the shell for all commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cur, err := newCurator()
		if err != nil {
			return err
		}
		defer cur.Close()

		r, err := repl.New(&repl.Config{Curator: cur})
		if err != nil {
			return err
		}
		return r.Run(context.Background())
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
