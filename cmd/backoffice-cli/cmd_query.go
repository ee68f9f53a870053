package main

import (
	"context"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/orderdesk/backoffice/client"
)

func newQueryCmd() *cobra.Command {
	var opts client.ChangeLogQueryOptions
	var fromStr, toStr string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query the change log",
		Run: func(cmd *cobra.Command, args []string) {
			if fromStr != "" {
				t, err := time.Parse(time.RFC3339, fromStr)
				if err != nil {
					fatal("parse --from", err)
				}
				opts.From = &t
			}
			if toStr != "" {
				t, err := time.Parse(time.RFC3339, toStr)
				if err != nil {
					fatal("parse --to", err)
				}
				opts.To = &t
			}

			page, err := apiClient.ChangeLog.Query(context.Background(), &opts)
			if err != nil {
				fatal("query change log", err)
			}

			if flagFmt == "table" {
				printRecordTable(page)
				return
			}
			output(page, strconv.Itoa(page.Total))
		},
	}

	cmd.Flags().StringVar(&opts.EntityType, "entity-type", "", "Filter by entity type")
	cmd.Flags().Int64Var(&opts.EntityID, "entity-id", 0, "Filter by entity ID")
	cmd.Flags().Int64Var(&opts.DepartmentID, "department", 0, "Filter by scope department ID")
	cmd.Flags().StringVar(&opts.Actor, "actor", "", "Free-text actor filter")
	cmd.Flags().StringVar(&opts.Target, "target", "", "Free-text target filter")
	cmd.Flags().StringSliceVar(&opts.Actions, "actions", nil, "Filter by action tags (OR)")
	cmd.Flags().StringVar(&fromStr, "from", "", "Lower time bound (RFC3339)")
	cmd.Flags().StringVar(&toStr, "to", "", "Upper time bound (RFC3339)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Page size")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Page offset")

	return cmd
}

func printRecordTable(page *client.ChangeLogPage) {
	rows := make([][]string, 0, len(page.Records))
	for _, r := range page.Records {
		entityID := ""
		if r.EntityID != nil {
			entityID = strconv.FormatInt(*r.EntityID, 10)
		}
		actions := ""
		for i, a := range r.Actions {
			if i > 0 {
				actions += ","
			}
			actions += a
		}
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.EntityType,
			entityID,
			r.ActorDisplay,
			actions,
		})
	}
	formatTable([]string{"ID", "TIME", "ENTITY", "ENTITY_ID", "ACTOR", "ACTIONS"}, rows)
}
