package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sirosfoundation/go-ebics/internal/storage"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		filter storage.Filter
		since  string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if since != "" {
				t, err := time.Parse(time.DateOnly, since)
				if err != nil {
					return fmt.Errorf("invalid --since date: %w", err)
				}
				filter.Since = &t
			}

			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close(cmd.Context())

			records, err := store.List(cmd.Context(), &filter)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tORDER\tSTATE\tSEGMENTS\tRETURN CODE\tUPDATED")
			for _, rec := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
					rec.ID, rec.OrderType, rec.State,
					rec.Segments, rec.NumSegments,
					rec.ReturnCode, rec.UpdatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&filter.OrderType, "order-type", "t", "", "only this order type")
	cmd.Flags().StringVar(&filter.State, "state", "", "only this state (complete, failed ...)")
	cmd.Flags().StringVar(&since, "since", "", "only transactions started on or after this day (yyyy-mm-dd)")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", 20, "maximum number of transactions, 0 for all")

	cmd.AddCommand(newHistoryShowCmd(a))
	return cmd
}

func newHistoryShowCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one journaled transaction and export its order data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close(cmd.Context())

			rec, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("transaction %s: %w", args[0], err)
			}

			if output == "" {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			}

			if !rec.HasData() {
				return fmt.Errorf("transaction %s has no archived order data", rec.ID)
			}
			data, err := store.GetData(cmd.Context(), rec.ID)
			if err != nil {
				return err
			}
			if output == "-" {
				_, err = a.out.Write(data)
				return err
			}
			return os.WriteFile(output, data, 0o600)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "export the archived order data to a file (- for stdout)")
	return cmd
}
