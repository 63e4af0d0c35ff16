package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cdia2025/cheque-app/internal/tabular"
)

// errNeedsConfirm is returned by destructive commands run without --confirm.
var errNeedsConfirm = errors.New("this cannot be undone; re-run with --confirm")

func newRostersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rosters",
		Short: "List rosters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.rosterService(cmd.Context())
			if err != nil {
				return err
			}
			names, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No rosters")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <name> <file>",
		Short: "Create a roster from a .csv or .xlsx file",
		Long: "Create a roster from a spreadsheet. The first row is treated as a header and\n" +
			"skipped; the first nine columns map by position onto the roster columns.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]
			format, err := tabular.FormatFromFilename(path)
			if err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			svc, err := ctx.rosterService(cmd.Context())
			if err != nil {
				return err
			}
			roster, err := svc.Import(cmd.Context(), name, f, format)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d recipients from %s into %s\n",
				len(roster.Recipients), filepath.Base(path), roster.Name)
			return nil
		},
	}
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "clear <name>",
		Short: "Remove every recipient from a roster, keeping its columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errNeedsConfirm
			}
			svc, err := ctx.rosterService(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.Clear(cmd.Context(), args[0], true); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm removing every recipient")
	return cmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errNeedsConfirm
			}
			svc, err := ctx.rosterService(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.Delete(cmd.Context(), args[0], true); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm deleting the roster")
	return cmd
}
