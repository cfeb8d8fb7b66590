package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var crawlOutput string

var crawlCmd = &cobra.Command{
	Use:   "crawl [url]",
	Short: "Fetch the content behind a URL",
	Long: `Crawl a URL through the discovery backend and print the fetched
content payload. The crawl is tracked as a session job.

Examples:
  kairos crawl https://example.com/article
  kairos crawl --output content.json https://example.com/article`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := args[0]

		cur, err := newCurator()
		if err != nil {
			return err
		}
		defer cur.Close()

		job, err := cur.Crawl(context.Background(), url)
		if err != nil {
			return err
		}

		if crawlOutput != "" {
			if err := os.WriteFile(crawlOutput, job.Content.Data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", crawlOutput, err)
			}
			fmt.Printf("Wrote %d bytes to %s\n", len(job.Content.Data), crawlOutput)
			return nil
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(job)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s job %s\n", green("Fetched:"), job.ID)
		fmt.Printf("URL:   %s\n", job.Content.URL)
		fmt.Printf("Bytes: %d\n", len(job.Content.Data))
		fmt.Printf("At:    %s\n", job.Content.FetchedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

func init() {
	crawlCmd.Flags().StringVarP(&crawlOutput, "output", "o", "", "Write the fetched payload to a file")
	rootCmd.AddCommand(crawlCmd)
}
