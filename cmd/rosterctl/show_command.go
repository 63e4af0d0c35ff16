package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cdia2025/cheque-app/internal/domain"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var stageFlag string
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "List a roster's recipients and their stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.rosterService(cmd.Context())
			if err != nil {
				return err
			}
			roster, err := svc.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rows := roster.Recipients
			if stageFlag != "" {
				stage, err := domain.ParseStage(stageFlag)
				if err != nil {
					return err
				}
				rows = domain.FilterByStage(rows, stage)
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recipients")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "English Name", "Stage", "Doc Date", "Staff", "Collected"},
				buildRecipientRows(rows),
				nil,
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&stageFlag, "stage", "", "Only show one stage: not_eligible, eligible_pending_export, awaiting_collection, collected")
	return cmd
}

func buildRecipientRows(rows []domain.Recipient) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.ID,
			r.NameLocal,
			r.NameLatin,
			string(domain.Classify(r)),
			r.DocGeneratedDate,
			r.ResponsibleStaff,
			r.CollectedDate,
		})
	}
	return out
}

func newSummaryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <name>",
		Short: "Count a roster's recipients per stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.rosterService(cmd.Context())
			if err != nil {
				return err
			}
			counts, err := svc.Summary(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(domain.Stages)+1)
			total := 0
			for _, stage := range domain.Stages {
				rows = append(rows, []string{string(stage), strconv.Itoa(counts[stage])})
				total += counts[stage]
			}
			rows = append(rows, []string{"total", strconv.Itoa(total)})
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Stage", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}
