package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cdia2025/cheque-app/internal/domain"
	"github.com/cdia2025/cheque-app/internal/service"
	"github.com/cdia2025/cheque-app/internal/tabular"
)

func newApplyCommand(ctx *commandContext) *cobra.Command {
	var (
		ids     []string
		actor   string
		confirm bool
		fields  map[string]string
	)
	cmd := &cobra.Command{
		Use:   "apply <name> <transition>",
		Short: "Apply a transition to selected recipients",
		Long: "Apply a transition to the recipients selected with --id. Transitions:\n" +
			"  override-approve   mark both reflection flags Y\n" +
			"  export             record the document date and --actor\n" +
			"  revert-export      undo an export (needs --confirm)\n" +
			"  confirm-collected  record collection\n" +
			"  revert-collected   undo a collection (needs --confirm)\n" +
			"  edit-fields        change descriptive fields with --set key=value",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := domain.ParseTransition(args[1])
			if err != nil {
				return err
			}
			sess, engine, err := ctx.session(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			result, err := sess.Apply(cmd.Context(), engine, t, ids, domain.TransitionParams{
				Actor:     actor,
				Confirmed: confirm,
				Fields:    fields,
			})
			if err != nil {
				return err
			}
			printBatch(cmd.OutOrStdout(), t, result)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&ids, "id", nil, "Recipient id (repeatable or comma-separated)")
	cmd.Flags().StringVar(&actor, "actor", "", "Acting staff member for export (default --staff)")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm a revert")
	cmd.Flags().StringToStringVar(&fields, "set", nil, "Field to change for edit-fields, as key=value")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		ids   []string
		actor string
		out   string
	)
	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Export selected recipients for cheque mail merge",
		Long: "Move the selected recipients to awaiting collection and write their data,\n" +
			"plus StaffName and TodayDate, to --out (.xlsx or .csv).",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := tabular.FormatFromFilename(out)
			if err != nil {
				return err
			}
			sess, engine, err := ctx.session(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			result, err := sess.Apply(cmd.Context(), engine, domain.TransitionExport, ids, domain.TransitionParams{Actor: actor})
			if err != nil {
				return err
			}
			printBatch(cmd.OutOrStdout(), domain.TransitionExport, result)
			if len(result.Exports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing exported; no file written")
				return nil
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := service.WriteExport(f, format, result.Exports); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(result.Exports), out)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&ids, "id", nil, "Recipient id (repeatable or comma-separated)")
	cmd.Flags().StringVar(&actor, "actor", "", "Acting staff member (default --staff)")
	cmd.Flags().StringVarP(&out, "out", "o", domain.ExportFileName, "Output file, .xlsx or .csv")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

// printBatch reports a batch outcome: a one-line summary plus a table of
// every row that was not applied.
func printBatch(w io.Writer, t domain.Transition, r service.ApplyResult) {
	fmt.Fprintf(w, "%s: %d applied, %d unmatched, %d skipped\n", t, len(r.Applied), len(r.Unmatched), len(r.Skipped))
	if len(r.Unmatched) == 0 && len(r.Skipped) == 0 {
		return
	}
	rows := make([][]string, 0, len(r.Unmatched)+len(r.Skipped))
	for _, id := range r.Unmatched {
		rows = append(rows, []string{id, "unmatched", "not found in roster"})
	}
	for _, s := range r.Skipped {
		rows = append(rows, []string{s.ID, "skipped", s.Reason})
	}
	fmt.Fprint(w, renderTable([]string{"ID", "Outcome", "Reason"}, rows, nil))
	if len(r.Unmatched) > 0 {
		fmt.Fprintln(w, "Unmatched rows may have been deleted or renumbered; run show to refresh.")
	}
}
