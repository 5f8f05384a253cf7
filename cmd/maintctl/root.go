package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/david/maintenance-analyzer/internal/logging"
	"github.com/david/maintenance-analyzer/internal/sheet"
	"github.com/david/maintenance-analyzer/internal/store"
	"github.com/david/maintenance-analyzer/internal/vocab"
)

// rootOptions holds the flags shared by every subcommand.
type rootOptions struct {
	FaultsFile    string
	MaterialsFile string
	SheetIndex    int
	LogLevel      string
	Filter        store.Filter
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "maintctl",
		Short:         "Classify and summarize facility maintenance spreadsheets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.FaultsFile, "faults", "", "fault reason vocabulary (JSON array)")
	pf.StringVar(&opts.MaterialsFile, "materials", "", "material name vocabulary (JSON array)")
	pf.IntVar(&opts.SheetIndex, "sheet", 0, "worksheet index to read")
	pf.StringVar(&opts.LogLevel, "log-level", "error", "log level (debug, info, warn, error)")
	pf.StringVar(&opts.Filter.Venue, "venue", "", "only records of this venue")
	pf.StringVar(&opts.Filter.Area, "area", "", "only records of this area")
	pf.StringVar(&opts.Filter.WorkType, "work-type", "", "only records of this work type")
	pf.StringVar(&opts.Filter.Year, "year", "", "only records of this year")
	pf.StringVar(&opts.Filter.Month, "month", "", "only records of this month (1-12)")
	pf.StringVar(&opts.Filter.Search, "search", "", "free-text search over descriptions and tags")

	cmd.AddCommand(
		newClassifyCmd(opts),
		newUncategorizedCmd(opts),
		newExportCmd(opts),
		newSummaryCmd(opts),
	)
	return cmd
}

// load reads path into a fresh store seeded with the configured vocabularies.
func (o *rootOptions) load(path string) (*store.Store, error) {
	if err := o.Filter.Validate(); err != nil {
		return nil, err
	}
	logger, err := logging.NewLogger(o.LogLevel, "console", "")
	if err != nil {
		return nil, err
	}

	st := store.New(logger)
	if _, err := st.ImportTermsFile(vocab.KindFault, o.FaultsFile); err != nil {
		return nil, err
	}
	if _, err := st.ImportTermsFile(vocab.KindMaterial, o.MaterialsFile); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := sheet.Read(f, o.SheetIndex)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	res := st.Ingest(rows)
	logger.Debug("sheet loaded", zap.String("path", path), zap.Int("valid", res.Valid), zap.Int("invalid", res.Invalid))
	return st, nil
}
