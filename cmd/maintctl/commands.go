package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/david/maintenance-analyzer/internal/analysis"
	"github.com/david/maintenance-analyzer/internal/ingest"
	"github.com/david/maintenance-analyzer/internal/models"
	"github.com/david/maintenance-analyzer/internal/sheet"
)

func newClassifyCmd(opts *rootOptions) *cobra.Command {
	var showInvalid bool

	cmd := &cobra.Command{
		Use:   "classify <file>",
		Short: "Print the classified records of a sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.load(args[0])
			if err != nil {
				return err
			}
			records := st.Filtered(opts.Filter)

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"#", "Date", "Time", "Venue", "Area", "Work Type", "Fault Tags", "Materials"})
			for _, r := range records {
				t.AppendRow(table.Row{
					r.OriginalIndex, r.RequestDate, r.RequestTime, r.Venue, r.Area,
					r.WorkTypeClassification, strings.Join(r.FaultTags, ", "), sheet.FormatMaterials(r.MaterialsUsed),
				})
			}
			t.AppendFooter(table.Row{"", "", "", "", "", "", "Total", len(records)})
			t.Render()

			if !showInvalid {
				return nil
			}
			var invalid []models.MaintenanceRecord
			for _, r := range st.Records() {
				if !r.IsValid {
					invalid = append(invalid, r)
				}
			}
			if len(invalid) == 0 {
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout())
			it := newTable(cmd.OutOrStdout())
			it.AppendHeader(table.Row{"#", "Fault Description", "Problems"})
			for _, r := range invalid {
				labels := make([]string, len(r.ValidationErrors))
				for i, code := range r.ValidationErrors {
					labels[i] = ingest.ValidationLabel(code)
				}
				it.AppendRow(table.Row{r.OriginalIndex, r.FaultDescription, strings.Join(labels, ", ")})
			}
			it.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&showInvalid, "invalid", false, "also list the rows that failed validation")
	return cmd
}

func newUncategorizedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "uncategorized <file>",
		Short: "Print fault descriptions and material strings no vocabulary covers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.load(args[0])
			if err != nil {
				return err
			}
			b := st.Buckets()

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Kind", "Item"})
			for _, d := range b.FaultDescriptions {
				t.AppendRow(table.Row{"fault", d})
			}
			for _, m := range b.MaterialStrings {
				t.AppendRow(table.Row{"material", m})
			}
			t.Render()
			return nil
		},
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the classified records and summary to a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.load(args[0])
			if err != nil {
				return err
			}
			records := st.Filtered(opts.Filter)
			if len(records) == 0 {
				return fmt.Errorf("no records to export")
			}
			summary := analysis.BuildSummary(records, st.Records(), opts.Filter.Year, opts.Filter.Month)
			data, err := sheet.WriteExport(sheet.ExportRows(records), sheet.SummaryStats(summary))
			if err != nil {
				return err
			}
			if output == "" {
				output = sheet.ExportFilename(time.Now())
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", len(records), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output workbook path")
	return cmd
}

func newSummaryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <file>",
		Short: "Print dashboard aggregations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.load(args[0])
			if err != nil {
				return err
			}
			dash := st.Dashboard(opts.Filter)
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Records: %d\n\n", dash.Summary.TotalRecords)
			renderCounts(out, "Venue", dash.Summary.Venues)
			renderCounts(out, "Hotspot", dash.Summary.AreaHotspots)
			renderCounts(out, "Fault Type", dash.Summary.FaultTypes)

			t := newTable(out)
			t.AppendHeader(table.Row{"Material", "Quantity"})
			for _, m := range dash.Summary.Materials {
				t.AppendRow(table.Row{m.Name, ingest.FormatQuantity(m.Quantity)})
			}
			t.Render()
			return nil
		},
	}
}

func renderCounts(w io.Writer, label string, rows []analysis.Aggregation) {
	t := newTable(w)
	t.AppendHeader(table.Row{label, "Count"})
	for _, a := range rows {
		t.AppendRow(table.Row{a.Value, a.Count})
	}
	t.Render()
	fmt.Fprintln(w)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}
