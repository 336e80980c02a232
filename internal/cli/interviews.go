package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newInterviewsCmd() *cobra.Command {
	var flagState string

	cmd := &cobra.Command{
		Use:   "interviews",
		Short: "List interview instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/interviews/"
			if flagState != "" {
				path += "?state=" + flagState
			}
			resp, err := client.Get(path)
			if err != nil {
				return fmt.Errorf("list interviews: %w", err)
			}

			var data []map[string]any
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(data) == 0 {
				fmt.Println("No interviews found.")
				return nil
			}

			fmt.Printf("%-14s  %-16s  %-14s  %-10s  %s\n", "ID", "STATE", "CANDIDATE", "SLA", "SLOT")
			for _, iv := range data {
				id, _ := iv["id"].(string)
				state, _ := iv["state"].(string)
				candidateID, _ := iv["candidate_id"].(string)
				sla, _ := iv["sla_status"].(string)
				slotStart := ""
				if slot, ok := iv["slot"].(map[string]any); ok {
					slotStart, _ = slot["start"].(string)
				}
				fmt.Printf("%-14s  %-16s  %-14s  %-10s  %s\n", id, state, candidateID, sla, slotStart)
			}

			if resp.Pagination != nil && resp.Pagination.HasMore {
				fmt.Printf("\n(%d of %d shown)\n", len(data), resp.Pagination.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagState, "state", "", "Filter by lifecycle state")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <interview_id>",
		Short: "Show an interview's lifecycle and SLA position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/interviews/" + args[0])
			if err != nil {
				return fmt.Errorf("get interview: %w", err)
			}

			var data map[string]any
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			state, _ := data["state"].(string)
			candidateID, _ := data["candidate_id"].(string)
			sla, _ := data["sla_status"].(string)

			fmt.Printf("Interview: %s\n", args[0])
			fmt.Printf("  Candidate: %s\n", candidateID)
			fmt.Printf("  State:     %s\n", state)
			if sla != "" {
				fmt.Printf("  SLA:       %s\n", sla)
			}
			if deadline, ok := data["sla_deadline"].(string); ok && deadline != "" {
				fmt.Printf("  Deadline:  %s\n", deadline)
			}

			if history, ok := data["history"].([]any); ok && len(history) > 0 {
				fmt.Println("  History:")
				for _, h := range history {
					entry, ok := h.(map[string]any)
					if !ok {
						continue
					}
					hState, _ := entry["state"].(string)
					ts, _ := entry["timestamp"].(string)
					by, _ := entry["triggered_by"].(string)
					fmt.Printf("    - %s  %s  (%s)\n", ts, hState, by)
				}
			}

			if participants, ok := data["participants"].([]any); ok && len(participants) > 0 {
				fmt.Println("  Participants:")
				for _, p := range participants {
					js, ok := p.(map[string]any)
					if !ok {
						continue
					}
					pid, _ := js["participant_id"].(string)
					joined, _ := js["joined"].(bool)
					noShow, _ := js["no_show"].(bool)
					mark := "pending"
					if joined {
						mark = "joined"
					}
					if noShow {
						mark = "no-show"
					}
					fmt.Printf("    - %s: %s\n", pid, mark)
				}
			}
			return nil
		},
	}
}

func newRetryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry <interview_id>",
		Short: "Send a join nudge to missing participants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := client.Post("/api/v1/interviews/"+args[0]+"/retry", map[string]any{}); err != nil {
				return fmt.Errorf("retry: %w", err)
			}
			fmt.Printf("Retry sent: %s\n", args[0])
			return nil
		},
	}
}

func newNoShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "noshow <interview_id> <participant_id>",
		Short: "Declare a participant a no-show",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := client.Post("/api/v1/interviews/"+args[0]+"/no-show", map[string]any{
				"participant_id": args[1],
			})
			if err != nil {
				return fmt.Errorf("mark no-show: %w", err)
			}
			fmt.Printf("No-show recorded: %s (%s)\n", args[1], args[0])
			return nil
		},
	}
}
