package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSubmitCmd() *cobra.Command {
	var (
		flagCandidate string
		flagJob       string
		flagRound     string
		flagUrgent    bool
		flagNotice    string
		flagStage     int
		flagSlots     []string
		flagDuration  int
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a scheduling request",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagCandidate == "" || flagRound == "" {
				return fmt.Errorf("--candidate and --round are required")
			}

			slots := make([]map[string]string, 0, len(flagSlots))
			for _, raw := range flagSlots {
				start, err := time.Parse(time.RFC3339, raw)
				if err != nil {
					return fmt.Errorf("parse slot %q: %w", raw, err)
				}
				end := start.Add(time.Duration(flagDuration) * time.Minute)
				slots = append(slots, map[string]string{
					"start": start.Format(time.RFC3339),
					"end":   end.Format(time.RFC3339),
				})
			}

			resp, err := client.Post("/api/v1/requests/", map[string]any{
				"candidate_id": flagCandidate,
				"job_id":       flagJob,
				"round_id":     flagRound,
				"urgent":       flagUrgent,
				"notice":       flagNotice,
				"pipeline_pos": flagStage,
				"slots":        slots,
			})
			if err != nil {
				return fmt.Errorf("submit request: %w", err)
			}

			var data map[string]any
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
			id, _ := data["id"].(string)
			fmt.Printf("Request submitted: %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagCandidate, "candidate", "", "Candidate ID (required)")
	cmd.Flags().StringVar(&flagJob, "job", "", "Job ID")
	cmd.Flags().StringVar(&flagRound, "round", "", "Round ID (required)")
	cmd.Flags().BoolVar(&flagUrgent, "urgent", false, "Flag the request as urgent")
	cmd.Flags().StringVar(&flagNotice, "notice", "2_weeks", "Notice category (immediate, 2_weeks, 1_month, longer)")
	cmd.Flags().IntVar(&flagStage, "stage", 0, "Pipeline position (1=screening .. 5=final; 0 uses the round default)")
	cmd.Flags().StringArrayVar(&flagSlots, "slot", nil, "Compatible slot start (RFC3339, repeatable)")
	cmd.Flags().IntVar(&flagDuration, "duration", 60, "Slot duration in minutes")

	return cmd
}
