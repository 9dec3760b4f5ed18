package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ticketless/ticketless/internal/core"
)

var (
	renewalAddKind   string
	renewalAddDue    string
	renewalAddState  string
	renewalListJSON  bool
	renewalListDueIn time.Duration
)

var renewalCmd = &cobra.Command{
	Use:   "renewal",
	Short: "Manage stored renewal obligations",
}

var renewalAddCmd = &cobra.Command{
	Use:   "add PLATE",
	Short: "Record a renewal obligation for a vehicle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plate := strings.ToUpper(strings.TrimSpace(args[0]))
		if plate == "" {
			return fmt.Errorf("plate is required")
		}

		due, err := time.Parse("2006-01-02", strings.TrimSpace(renewalAddDue))
		if err != nil {
			return fmt.Errorf("invalid --due date (want YYYY-MM-DD): %w", err)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		if err := db.UpsertVehicle(cmd.Context(), core.Vehicle{
			Plate: plate,
			State: strings.ToUpper(strings.TrimSpace(renewalAddState)),
		}); err != nil {
			return err
		}

		if err := db.AddRenewal(cmd.Context(), core.Renewal{
			Plate:   plate,
			Kind:    strings.TrimSpace(renewalAddKind),
			DueDate: due,
		}); err != nil {
			return err
		}

		fmt.Printf("recorded %s renewal for %s due %s\n", renewalAddKind, plate, due.Format("2006-01-02"))
		return nil
	},
}

var renewalListCmd = &cobra.Command{
	Use:   "list [PLATE]",
	Short: "List stored renewals, optionally for one plate or by due window",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		var renewals []core.Renewal
		if len(args) == 1 {
			renewals, err = db.ListRenewals(cmd.Context(), strings.ToUpper(strings.TrimSpace(args[0])))
		} else {
			cutoff := time.Now().UTC().Add(renewalListDueIn)
			renewals, err = db.ListDueRenewals(cmd.Context(), cutoff)
		}
		if err != nil {
			return err
		}

		if renewalListJSON {
			payload, err := json.MarshalIndent(renewals, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(payload))
			return nil
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"ID", "Plate", "Kind", "Due", "Done"})
		for _, renewal := range renewals {
			t.AppendRow(table.Row{
				renewal.ID,
				renewal.Plate,
				renewal.Kind,
				renewal.DueDate.Format("2006-01-02"),
				renewal.Completed,
			})
		}
		if len(renewals) == 0 {
			t.AppendRow(table.Row{"-", "-", "no renewals on file", "", ""})
		}
		fmt.Println(t.Render())
		return nil
	},
}

var renewalCompleteCmd = &cobra.Command{
	Use:   "complete ID",
	Short: "Mark a renewal as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid renewal id: %w", err)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		if err := db.CompleteRenewal(cmd.Context(), id); err != nil {
			return err
		}

		fmt.Printf("renewal %d marked complete\n", id)
		return nil
	},
}

func init() {
	renewalAddCmd.Flags().StringVar(&renewalAddKind, "kind", "city-sticker", "Renewal kind (city-sticker, plate-sticker, emissions)")
	renewalAddCmd.Flags().StringVar(&renewalAddDue, "due", "", "Due date (YYYY-MM-DD, required)")
	renewalAddCmd.Flags().StringVar(&renewalAddState, "state", "IL", "Registration state")
	_ = renewalAddCmd.MarkFlagRequired("due")

	renewalListCmd.Flags().BoolVar(&renewalListJSON, "json", false, "Output JSON instead of a table")
	renewalListCmd.Flags().DurationVar(&renewalListDueIn, "due-in", 90*24*time.Hour, "Due window when no plate is given")

	renewalCmd.AddCommand(renewalAddCmd)
	renewalCmd.AddCommand(renewalListCmd)
	renewalCmd.AddCommand(renewalCompleteCmd)
	rootCmd.AddCommand(renewalCmd)
}
