package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/csvio"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/repository"
)

// StoreResult summarizes a store run.
type StoreResult struct {
	Stored int `json:"stored"`
	Total  int `json:"total"`
}

// NewStoreCommand creates the store command.
func NewStoreCommand(rootOpts *RootOptions) *cobra.Command {
	var in, dsn string
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Upsert a feature CSV into the Postgres feature store",
		Long: `Writes every vector of a feature CSV to the feature_vectors table served by
the API's /candidates and /stars routes. Replacing a vector clears its score.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmtr := rootOpts.formatter(cmd)
			cfg, err := rootOpts.config(cmd)
			if err != nil {
				return err
			}
			if dsn == "" {
				dsn = cfg.FeaturesDSN
			}
			if in == "" || dsn == "" {
				return fmtr.Fail(ExitCommandError, "E001", "--in and --dsn are required", nil)
			}
			f, err := os.Open(in)
			if err != nil {
				return fmtr.Fail(ExitCommandError, "E002", "open features", err)
			}
			vectors, err := csvio.ReadMatrix(f)
			f.Close()
			if err != nil {
				return fmtr.Fail(ExitCommandError, "E002", "read features", err)
			}

			ctx := commandContext(cmd)
			store, err := repository.OpenPostgres(ctx, dsn)
			if err != nil {
				return fmtr.Fail(ExitCommandError, "E003", "open feature store", err)
			}
			defer store.Close()
			for i := range vectors {
				if err := store.Put(ctx, vectors[i]); err != nil {
					return fmtr.Fail(ExitCommandError, "E003", "store "+vectors[i].StarID, err)
				}
				fmtr.VerboseLog("stored %s", vectors[i].StarID)
			}

			res := StoreResult{Stored: len(vectors), Total: store.Count(ctx)}
			return fmtr.Success(res, func(w io.Writer) {
				fmt.Fprintf(w, "stored %d vectors, %d in store\n", res.Stored, res.Total)
			})
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "feature CSV")
	cmd.Flags().StringVar(&dsn, "dsn", "", "Postgres DSN (default features_dsn)")
	return cmd
}
