package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/TianxingChang/Kairos-sub000/internal/classify"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [text]",
	Short: "Classify a free-text command without executing it",
	Long: `Classify free text into an intent (topic search, URL crawl or unknown)
and show the extracted topic or URL with the confidence score.

Examples:
  kairos classify "find python tutorials"
  kairos classify "crawl https://example.com/article"
  kairos classify --json "learn about kubernetes"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		parsed := classify.New().Classify(text)

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(parsed)
		}

		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()

		fmt.Printf("Intent:     %s\n", green(string(parsed.Intent)))
		fmt.Printf("Confidence: %.2f\n", parsed.Confidence)
		if parsed.Topic != "" {
			fmt.Printf("Topic:      %s\n", parsed.Topic)
		}
		if parsed.URL != "" {
			fmt.Printf("URL:        %s\n", parsed.URL)
		}
		for _, part := range parsed.AmbiguousParts {
			fmt.Printf("%s %s\n", yellow("Note:"), part)
		}
		if parsed.NeedsClarification() {
			fmt.Printf("%s too uncertain to dispatch\n", yellow("Note:"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
