package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/samples"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/pkg/metrics"
)

// IngestResult summarizes an ingest run.
type IngestResult struct {
	samples.Report
	Stars    int    `json:"stars"`
	Imported int    `json:"imported"`
	Database string `json:"database"`
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		in, db         string
		strict, dedupe bool
	)
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load observation rows from CSV into a SQLite database",
		Long: `Validates observation rows and appends them to a SQLite database that
extract, predict and the batch worker can read with --db.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := rootOpts.formatter(cmd)
			cfg, err := rootOpts.config(cmd)
			if err != nil {
				return err
			}
			if db == "" {
				db = cfg.SamplesDB
			}
			if in == "" || db == "" {
				return out.Fail(ExitCommandError, "E001", "--in and --db are required", nil)
			}

			b, err := readRows(in, strict, dedupe)
			if err != nil {
				return out.Fail(ExitCommandError, "E002", "read rows", err)
			}
			rep := b.Report()
			metrics.RecordObservations(rep.Accepted, rep.Dropped)

			store, err := samples.OpenSQLite(db)
			if err != nil {
				return out.Fail(ExitCommandError, "E003", "open database", err)
			}
			defer store.Close()
			n, err := store.Import(commandContext(cmd), b.Store())
			if err != nil {
				return out.Fail(ExitCommandError, "E003", "import rows", err)
			}

			res := IngestResult{Report: rep, Stars: b.Store().Len(), Imported: n, Database: db}
			return out.Success(res, func(w io.Writer) {
				fmt.Fprintf(w, "imported %d rows of %d stars into %s\n", res.Imported, res.Stars, res.Database)
				if d := rep.DroppedTotal(); d > 0 {
					fmt.Fprintf(w, "dropped %d of %d rows: %v\n", d, rep.Rows, rep.Dropped)
				}
			})
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "observation rows CSV")
	cmd.Flags().StringVar(&db, "db", "", "SQLite database to create or append to")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on the first invalid row instead of dropping it")
	cmd.Flags().BoolVar(&dedupe, "dedupe", false, "drop rows repeating an earlier (star_id, time)")
	return cmd
}
