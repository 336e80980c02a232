package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newSwapsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swaps",
		Short: "List swap proposals awaiting approval",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/swaps/pending")
			if err != nil {
				return fmt.Errorf("list swaps: %w", err)
			}

			var data []map[string]any
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(data) == 0 {
				fmt.Println("No pending swaps.")
				return nil
			}

			fmt.Printf("%-38s  %-14s  %-14s  %-6s  %s\n", "ID", "INTERVIEW", "BACKUP", "RANK", "REASON")
			for _, sp := range data {
				id, _ := sp["id"].(string)
				interviewID, _ := sp["interview_id"].(string)
				reason, _ := sp["reason"].(string)

				backupID, rank := "-", 0.0
				if backup, ok := sp["backup"].(map[string]any); ok {
					backupID, _ = backup["candidate_id"].(string)
					rank, _ = backup["rank"].(float64)
				}

				fmt.Printf("%-38s  %-14s  %-14s  %-6.1f  %s\n", id, interviewID, backupID, rank, reason)
			}
			return nil
		},
	}

	cmd.AddCommand(newApproveCmd(), newRejectCmd())
	return cmd
}

func newApproveCmd() *cobra.Command {
	var flagBy string

	cmd := &cobra.Command{
		Use:   "approve <swap_id>",
		Short: "Approve a pending swap proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := client.Post("/api/v1/swaps/"+args[0]+"/approve", map[string]any{
				"decided_by": flagBy,
			})
			if err != nil {
				return fmt.Errorf("approve swap: %w", err)
			}
			fmt.Printf("Swap approved: %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&flagBy, "by", "operator", "Operator identity recorded on the decision")
	return cmd
}

func newRejectCmd() *cobra.Command {
	var (
		flagBy     string
		flagReason string
	)

	cmd := &cobra.Command{
		Use:   "reject <swap_id>",
		Short: "Reject a pending swap proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := client.Post("/api/v1/swaps/"+args[0]+"/reject", map[string]any{
				"decided_by": flagBy,
				"reason":     flagReason,
			})
			if err != nil {
				return fmt.Errorf("reject swap: %w", err)
			}
			fmt.Printf("Swap rejected: %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&flagBy, "by", "operator", "Operator identity recorded on the decision")
	cmd.Flags().StringVar(&flagReason, "reason", "", "Rejection reason")
	return cmd
}
