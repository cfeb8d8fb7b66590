package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [topic]",
	Short: "Find and rank learning resources for a topic",
	Long: `Search the discovery backend for learning resources on a topic.

The topic is expanded into optimized queries, the aggregated results
are ranked by relevance and estimated quality, and at most max_results
resources are printed with per-domain diversity applied.

Examples:
  kairos search "rust concurrency"
  kairos search --json "machine learning"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic := strings.Join(args, " ")

		cur, err := newCurator()
		if err != nil {
			return err
		}
		defer cur.Close()

		result, err := cur.SearchTopic(context.Background(), topic)
		if err != nil {
			return err
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(result)
		}

		if len(result.Resources) == 0 {
			fmt.Println("No resources found.")
			return nil
		}

		green := color.New(color.FgGreen).SprintFunc()
		for i, res := range result.Resources {
			fmt.Printf("%2d. %s\n", i+1, green(res.Title))
			fmt.Printf("    %s\n", res.URL)
			fmt.Printf("    type=%s relevance=%.2f quality=%.2f\n",
				res.ContentType, res.RelevanceScore, res.EstimatedQuality)
			if res.Description != "" {
				fmt.Printf("    %s\n", snippet(res.Description))
			}
		}
		fmt.Printf("\n%d resources from %d hits in %s\n",
			len(result.Resources), result.Metadata.TotalHits,
			result.Metadata.Duration.Round(time.Millisecond))
		return nil
	},
}

// snippet shortens a description for terminal display.
func snippet(s string) string {
	const limit = 100
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
