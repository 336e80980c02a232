package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newErrorsCmd() *cobra.Command {
	var flagAll bool

	cmd := &cobra.Command{
		Use:   "errors",
		Short: "Show the operator error queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/operator/errors/"
			if flagAll {
				path += "?all=true"
			}
			resp, err := client.Get(path)
			if err != nil {
				return fmt.Errorf("list errors: %w", err)
			}

			var data []map[string]any
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(data) == 0 {
				fmt.Println("No operator errors.")
				return nil
			}

			fmt.Printf("%-14s  %-24s  %-14s  %s\n", "ID", "CODE", "ENTITY", "MESSAGE")
			for _, oe := range data {
				id, _ := oe["id"].(string)
				code, _ := oe["code"].(string)
				entityID, _ := oe["entity_id"].(string)
				msg, _ := oe["message"].(string)
				if resolved, _ := oe["resolved"].(bool); resolved {
					code += " (resolved)"
				}
				fmt.Printf("%-14s  %-24s  %-14s  %s\n", id, code, entityID, msg)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagAll, "all", false, "Include resolved errors")

	cmd.AddCommand(&cobra.Command{
		Use:   "resolve <error_id>",
		Short: "Mark an operator error resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := client.Post("/api/v1/operator/errors/"+args[0]+"/resolve", map[string]any{}); err != nil {
				return fmt.Errorf("resolve error: %w", err)
			}
			fmt.Printf("Resolved: %s\n", args[0])
			return nil
		},
	})

	return cmd
}
