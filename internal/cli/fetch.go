package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/model"
)

// FetchResult holds what the archive knows about one star.
type FetchResult struct {
	StarID     string              `json:"star_id"`
	Attributes model.StarAttributes `json:"attributes"`
	Candidates int                 `json:"candidates"`
	Label      string              `json:"label"`
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <kic-id>...",
		Short: "Look up stellar parameters and KOI dispositions in the exoplanet archive",
		Args:  cobra.MinimumNArgs(1),
		Example: `  exoscan fetch 757450
  exoscan fetch "KIC 10666592" --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmtr := rootOpts.formatter(cmd)
			cfg, err := rootOpts.config(cmd)
			if err != nil {
				return err
			}
			client, closeCache, err := newCatalog(cfg)
			if err != nil {
				return fmtr.Fail(ExitCommandError, "E003", "open catalog cache", err)
			}
			defer closeCache()

			ctx := commandContext(cmd)
			results := make([]FetchResult, 0, len(args))
			for _, arg := range args {
				id := model.NormalizeStarID(arg)
				attrs, err := client.Attributes(ctx, id)
				if err != nil {
					return fmtr.Fail(ExitCommandError, "E005", "fetch "+id, err)
				}
				n, err := client.CandidateCount(ctx, id)
				if err != nil {
					return fmtr.Fail(ExitCommandError, "E005", "fetch "+id, err)
				}
				label := model.LabelNegative
				if n > 0 {
					label = model.LabelPositive
				}
				results = append(results, FetchResult{
					StarID:     id,
					Attributes: attrs,
					Candidates: n,
					Label:      label.String(),
				})
			}
			return fmtr.Success(results, func(w io.Writer) {
				for _, r := range results {
					a := r.Attributes
					fmt.Fprintf(w, "%s  teff=%s radius=%s mass=%s logg=%s feh=%s  candidates=%d label=%s\n",
						r.StarID, a.Teff, a.Radius, a.Mass, a.Logg, a.FeH, r.Candidates, r.Label)
				}
			})
		},
	}
	return cmd
}
