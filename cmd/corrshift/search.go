package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abworrall/corrshift/pkg/shift"
)

func (c *cli) searchCmd() *cobra.Command {
	var fMap, fHDR string

	cmd := &cobra.Command{
		Use:   "search A.tif B.tif",
		Short: "Print the offset (dx dy score) that best lines B up with A",
		Long: `Tries every offset in the search window and prints the one where B
correlates best with A, as "dx dy score". A(x,y) lines up with
B(x+dx, y+dy).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := shift.Load(args[0])
			if err != nil {
				return err
			}
			b, err := shift.Load(args[1])
			if err != nil {
				return err
			}
			c.log.Debug().Stringer("a", a).Stringer("b", b).Msg("loaded")

			opts := shift.Options{
				Workers:    c.cfg.Workers,
				KeepScores: fMap != "" || fHDR != "",
				Log:        &c.log,
			}
			res, err := shift.Search(cmd.Context(), a, b, c.cfg.Bounds, opts)
			if err != nil {
				return err
			}
			c.log.Info().Stringer("result", res).Msg("search done")

			if fMap != "" {
				if err := res.Scores.WritePNG(fmt.Sprintf("%s vs %s", args[0], args[1]), fMap); err != nil {
					return err
				}
			}
			if fHDR != "" {
				if err := res.Scores.WriteHDR(fHDR); err != nil {
					return err
				}
			}

			fmt.Fprintf(c.stdout, "%d %d %.6f\n", res.Offset.DX, res.Offset.DY, res.Score)
			return nil
		},
	}

	c.addBoundsFlags(cmd)
	cmd.Flags().StringVar(&fMap, "map", "", "write a PNG heat map of every offset's score")
	cmd.Flags().StringVar(&fHDR, "hdr", "", "write the raw scores as a Radiance HDR file")
	return cmd
}
