package main

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/orderdesk/backoffice/client"
)

func newLogCmd() *cobra.Command {
	var (
		entityID      int64
		actorID       int64
		departmentID  int64
		message       string
		beforeJSON    string
		afterJSON     string
		actions       []string
		collectBefore bool
		collectAfter  bool
	)

	cmd := &cobra.Command{
		Use:   "log <entity-type>",
		Short: "Record a change for an entity",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.RecordChangeRequest{
				EntityType:    args[0],
				ActorID:       actorID,
				Message:       message,
				Actions:       actions,
				CollectBefore: collectBefore,
				CollectAfter:  collectAfter,
			}
			if entityID > 0 {
				req.EntityID = &entityID
			}
			if departmentID > 0 {
				req.ScopeDepartmentID = &departmentID
			}
			if beforeJSON != "" {
				req.Before = json.RawMessage(beforeJSON)
			}
			if afterJSON != "" {
				req.After = json.RawMessage(afterJSON)
			}

			rec, err := apiClient.ChangeLog.Record(context.Background(), req)
			if err != nil {
				fatal("record change", err)
			}
			output(rec, strconv.FormatInt(rec.ID, 10))
		},
	}

	cmd.Flags().Int64Var(&entityID, "entity-id", 0, "Target entity ID")
	cmd.Flags().Int64Var(&actorID, "actor", 0, "Acting user ID (required)")
	cmd.Flags().Int64Var(&departmentID, "department", 0, "Scope department ID")
	cmd.Flags().StringVar(&message, "message", "", "Free-form message")
	cmd.Flags().StringVar(&beforeJSON, "before", "", "Before snapshot as JSON")
	cmd.Flags().StringVar(&afterJSON, "after", "", "After snapshot as JSON")
	cmd.Flags().StringSliceVar(&actions, "actions", nil, "Explicit action tags")
	cmd.Flags().BoolVar(&collectBefore, "collect-before", false, "Collect before snapshot from current state")
	cmd.Flags().BoolVar(&collectAfter, "collect-after", false, "Collect after snapshot from current state")
	cmd.MarkFlagRequired("actor") //nolint:errcheck

	return cmd
}
