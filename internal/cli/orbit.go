package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/csvio"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/orbit"
)

// OrbitResult holds the estimate of one star; Params is nil when the
// vector lacks what the estimate needs.
type OrbitResult struct {
	StarID string        `json:"star_id"`
	Params *orbit.Params `json:"params"`
	Error  string        `json:"error,omitempty"`
}

// NewOrbitCommand creates the orbit command.
func NewOrbitCommand(rootOpts *RootOptions) *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "orbit",
		Short: "Estimate planet radius and orbit from a feature CSV",
		Long: `Treats depth_mean as the fractional transit depth and duration_mean (days)
as the orbital period proxy, and derives planet radius, semi-major axis, orbital
velocity, impact parameter, inclination and ingress duration.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmtr := rootOpts.formatter(cmd)
			if in == "" {
				return fmtr.Fail(ExitCommandError, "E001", "--in is required", nil)
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

			results := make([]OrbitResult, len(vectors))
			for i := range vectors {
				results[i].StarID = vectors[i].StarID
				p, err := orbit.Estimate(&vectors[i])
				if err != nil {
					results[i].Error = err.Error()
					continue
				}
				results[i].Params = p
			}
			return fmtr.Success(results, func(w io.Writer) {
				for _, r := range results {
					if r.Params == nil {
						fmt.Fprintf(w, "%-12s %s\n", r.StarID, r.Error)
						continue
					}
					p := r.Params
					fmt.Fprintf(w, "%-12s radius=%.2f R_earth  a=%.3g m  v=%.2f km/s  b=%.3f  i=%.2f deg  ingress=%.2f h\n",
						r.StarID, p.PlanetRadius[1], p.SemiMajorAxis, p.OrbitalVelocity, p.ImpactParameter, p.Inclination, p.IngressEgress)
				}
			})
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "feature CSV")
	return cmd
}
