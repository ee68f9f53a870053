package main

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/orderdesk/backoffice/client"
)

func newPropagateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "propagate",
		Short: "Propagate a committed change onto dependent entities",
	}
	cmd.AddCommand(propagateServiceKitCmd())
	cmd.AddCommand(propagateBookingCmd())
	cmd.AddCommand(propagateBookingDeletedCmd())
	return cmd
}

func propagateServiceKitCmd() *cobra.Command {
	var req client.ServiceKitChangeRequest

	cmd := &cobra.Command{
		Use:   "service-kit",
		Short: "Propagate a service kit field change",
		Run: func(cmd *cobra.Command, args []string) {
			n, err := apiClient.Propagate.ServiceKitChanged(context.Background(), &req)
			if err != nil {
				fatal("propagate service kit change", err)
			}
			output(map[string]int{"records_written": n}, strconv.Itoa(n))
		},
	}

	cmd.Flags().Int64Var(&req.ActorID, "actor", 0, "Acting user ID (required)")
	cmd.Flags().Int64Var(&req.KitID, "kit", 0, "Service kit ID (required)")
	cmd.Flags().StringVar(&req.Field, "field", "", "Changed field name (required)")
	cmd.Flags().StringVar(&req.OldValue, "old", "", "Old value")
	cmd.Flags().StringVar(&req.NewValue, "new", "", "New value")
	cmd.MarkFlagRequired("actor") //nolint:errcheck
	cmd.MarkFlagRequired("kit")   //nolint:errcheck
	cmd.MarkFlagRequired("field") //nolint:errcheck

	return cmd
}

func propagateBookingCmd() *cobra.Command {
	var actorID int64
	var beforeJSON, afterJSON string

	cmd := &cobra.Command{
		Use:   "booking",
		Short: "Propagate a booking change onto its linked order",
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.BookingChangeRequest{ActorID: actorID}
			if err := json.Unmarshal([]byte(beforeJSON), &req.Before); err != nil {
				fatal("parse --before", err)
			}
			if err := json.Unmarshal([]byte(afterJSON), &req.After); err != nil {
				fatal("parse --after", err)
			}

			n, err := apiClient.Propagate.BookingChanged(context.Background(), req)
			if err != nil {
				fatal("propagate booking change", err)
			}
			output(map[string]int{"records_written": n}, strconv.Itoa(n))
		},
	}

	cmd.Flags().Int64Var(&actorID, "actor", 0, "Acting user ID (required)")
	cmd.Flags().StringVar(&beforeJSON, "before", "", "Booking snapshot before the change, as JSON (required)")
	cmd.Flags().StringVar(&afterJSON, "after", "", "Booking snapshot after the change, as JSON (required)")
	cmd.MarkFlagRequired("actor")  //nolint:errcheck
	cmd.MarkFlagRequired("before") //nolint:errcheck
	cmd.MarkFlagRequired("after")  //nolint:errcheck

	return cmd
}

func propagateBookingDeletedCmd() *cobra.Command {
	var actorID int64
	var finalJSON string

	cmd := &cobra.Command{
		Use:   "booking-deleted",
		Short: "Record a booking deletion on its linked order",
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.BookingDeleteRequest{ActorID: actorID}
			if err := json.Unmarshal([]byte(finalJSON), &req.Final); err != nil {
				fatal("parse --final", err)
			}

			n, err := apiClient.Propagate.BookingDeleted(context.Background(), req)
			if err != nil {
				fatal("propagate booking deletion", err)
			}
			output(map[string]int{"records_written": n}, strconv.Itoa(n))
		},
	}

	cmd.Flags().Int64Var(&actorID, "actor", 0, "Acting user ID (required)")
	cmd.Flags().StringVar(&finalJSON, "final", "", "Final booking snapshot, as JSON (required)")
	cmd.MarkFlagRequired("actor") //nolint:errcheck
	cmd.MarkFlagRequired("final") //nolint:errcheck

	return cmd
}
