package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newQueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "Show the ranked scheduling queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/requests/queue")
			if err != nil {
				return fmt.Errorf("get queue: %w", err)
			}

			var data []map[string]any
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(data) == 0 {
				fmt.Println("Queue is empty.")
				return nil
			}

			fmt.Printf("%-4s  %-14s  %-14s  %-10s  %-7s  %s\n", "#", "ID", "CANDIDATE", "TIER", "SCORE", "FLAGS")
			for i, req := range data {
				id, _ := req["id"].(string)
				candidateID, _ := req["candidate_id"].(string)

				tier, total := "-", 0.0
				if score, ok := req["score"].(map[string]any); ok {
					tier, _ = score["tier"].(string)
					total, _ = score["total"].(float64)
				}

				flags := ""
				if urgent, _ := req["urgent"].(bool); urgent {
					flags += "urgent "
				}
				if override, _ := req["manual_override"].(bool); override {
					flags += "override"
				}

				fmt.Printf("%-4d  %-14s  %-14s  %-10s  %-7.1f  %s\n", i+1, id, candidateID, tier, total, flags)
			}
			return nil
		},
	}
}

func newWithdrawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw <request_id>",
		Short: "Withdraw a scheduling request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := client.Delete("/api/v1/requests/" + args[0]); err != nil {
				return fmt.Errorf("withdraw request: %w", err)
			}
			fmt.Printf("Request withdrawn: %s\n", args[0])
			return nil
		},
	}
}

func newOverrideCmd() *cobra.Command {
	var (
		flagReason string
		flagClear  bool
	)

	cmd := &cobra.Command{
		Use:   "override <request_id>",
		Short: "Pin a request to the top of its priority tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !flagClear && flagReason == "" {
				return fmt.Errorf("--reason is required unless --clear is set")
			}

			_, err := client.Put("/api/v1/requests/"+args[0]+"/override", map[string]any{
				"override": !flagClear,
				"reason":   flagReason,
			})
			if err != nil {
				return fmt.Errorf("update override: %w", err)
			}

			if flagClear {
				fmt.Printf("Override cleared: %s\n", args[0])
			} else {
				fmt.Printf("Override set: %s (%s)\n", args[0], flagReason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagReason, "reason", "", "Reason for the override")
	cmd.Flags().BoolVar(&flagClear, "clear", false, "Clear an existing override")

	return cmd
}
