package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/TianxingChang/Kairos-sub000/internal/types"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe [file]",
	Short: "Detect duplicates in a library of stored items",
	Long: `Scan previously curated items for duplicates. The input is a JSON
array of stored items, read from the given file or from stdin.

The scan reports pairwise matches (exact, near-exact or similar) and
the transitive duplicate groups they form.

Examples:
  kairos dedupe library.json
  cat library.json | kairos dedupe
  kairos dedupe --json library.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			data []byte
			err  error
		)
		if len(args) == 1 {
			data, err = os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
		} else {
			data, err = io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
		}

		var items []types.StoredItem
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("parsing stored items: %w", err)
		}
		for i := range items {
			if items[i].ItemID == "" {
				return fmt.Errorf("item at index %d has no item_id", i)
			}
		}

		cur, err := newCurator()
		if err != nil {
			return err
		}
		defer cur.Close()

		report := cur.DetectDuplicates(items)

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(report)
		}

		if len(report.Matches) == 0 {
			fmt.Printf("No duplicates among %d items.\n", len(items))
			return nil
		}

		yellow := color.New(color.FgYellow).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		for _, m := range report.Matches {
			label := yellow(string(m.MatchType))
			if m.MatchType == types.MatchExact {
				label = red(string(m.MatchType))
			}
			fmt.Printf("%s  %s <-> %s  score=%.3f\n", label, m.Item1ID, m.Item2ID, m.SimilarityScore)
			fmt.Printf("  title=%.2f url=%.2f domain=%.2f tags=%.2f\n",
				m.Scores.Title, m.Scores.URL, m.Scores.Domain, m.Scores.Tag)
		}

		fmt.Printf("\n%d match(es) in %d group(s):\n", len(report.Matches), len(report.Groups))
		for i, group := range report.Groups {
			fmt.Printf("  group %d: %s\n", i+1, strings.Join(group, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dedupeCmd)
}
