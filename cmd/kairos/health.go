package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/TianxingChang/Kairos-sub000/internal/discovery"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check connectivity to the discovery backend",
	Long: `Probe the discovery backend and report the connection state, health
and current rate-limit window.

Examples:
  kairos health
  kairos health --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cur, err := newCurator()
		if err != nil {
			return err
		}
		defer cur.Close()

		status, probeErr := cur.Health(context.Background())

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(status)
		}

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		state := red(string(status.State))
		if status.State == discovery.StateConnected || status.Healthy {
			state = green(string(status.State))
		}
		fmt.Printf("Server:  %s\n", cfg.MCPServerURL)
		fmt.Printf("State:   %s\n", state)
		fmt.Printf("Healthy: %t\n", status.Healthy)
		if !status.LastCheck.IsZero() {
			fmt.Printf("Checked: %s\n", status.LastCheck.Format("2006-01-02 15:04:05"))
		}
		if status.Latency > 0 {
			fmt.Printf("Latency: %s\n", status.Latency)
		}
		if status.Reason != "" {
			fmt.Printf("Reason:  %s\n", status.Reason)
		}

		w := status.RateLimit
		if !w.WindowStart.IsZero() {
			fmt.Printf("Rate:    %d used, %d remaining", w.RequestsMade, w.RequestsRemaining)
			if !w.ResetTime.IsZero() {
				fmt.Printf(", resets %s", w.ResetTime.Format("15:04:05"))
			}
			fmt.Println()
		}

		if probeErr != nil {
			return fmt.Errorf("backend probe failed: %w", probeErr)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
