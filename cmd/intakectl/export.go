// cmd/intakectl/export.go
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"talent-intake/internal/dashboard"
)

func newExportCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export candidates",
	}
	cmd.AddCommand(newExportCSVCmd(c), newExportSheetsCmd(c))
	return cmd
}

func newExportCSVCmd(c *cli) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Write the selected candidates as CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			board, _, closeStore, err := c.board(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			ids, err := c.selectedIDs(ctx, board)
			if err != nil {
				return err
			}
			csv, err := board.Export(ctx, ids)
			if err != nil {
				return err
			}
			apps, err := board.Applications(ctx)
			if err != nil {
				return err
			}

			if outPath == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), csv)
				return err
			}
			if outPath == "auto" {
				outPath = fmt.Sprintf("candidates_export_%s.csv", time.Now().Format(time.DateOnly))
			}
			if err := os.WriteFile(outPath, []byte(csv), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d candidates to %s\n", dashboard.CountSelected(apps, ids), outPath)
			return nil
		},
	}
	addSelectionFlags(cmd, &c.filter)
	cmd.Flags().StringVarP(&outPath, "out", "o", "", `output file; "auto" names it candidates_export_<date>.csv (default stdout)`)
	return cmd
}

func newExportSheetsCmd(c *cli) *cobra.Command {
	var spreadsheetID, sheetRange string
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Replace a Google Sheets range with the selected candidates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			board, cfg, closeStore, err := c.board(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			if spreadsheetID == "" {
				spreadsheetID = cfg.Integrations.Sheets.SpreadsheetID
			}
			if sheetRange == "" {
				sheetRange = cfg.Integrations.Sheets.Range
			}
			if spreadsheetID == "" {
				return fmt.Errorf("a spreadsheet id is required (--spreadsheet or integrations.sheets.spreadsheet_id)")
			}

			ids, err := c.selectedIDs(ctx, board)
			if err != nil {
				return err
			}
			apps, err := board.Applications(ctx)
			if err != nil {
				return err
			}
			writer, err := c.openSheets(ctx, cfg)
			if err != nil {
				return err
			}
			rows, err := dashboard.ExportToSheet(ctx, writer, spreadsheetID, sheetRange, apps, ids)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s (%d candidates)\n", rows, sheetRange, dashboard.CountSelected(apps, ids))
			return nil
		},
	}
	addSelectionFlags(cmd, &c.filter)
	cmd.Flags().StringVar(&spreadsheetID, "spreadsheet", "", "target spreadsheet id")
	cmd.Flags().StringVar(&sheetRange, "range", "", "target range, e.g. Applications!A1")
	return cmd
}
