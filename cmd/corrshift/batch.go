package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abworrall/corrshift/pkg/batch"
)

func (c *cli) batchCmd() *cobra.Command {
	var (
		fOne, fTwo    []string
		fOut          string
		fRequireEmpty bool
		fMaps         bool
	)

	cmd := &cobra.Command{
		Use:   "batch --one DIR --two DIR --out DIR",
		Short: "Shift every channel-one image onto its channel-two partner",
		Long: `Pairs the TIFFs of the two channels by file name, finds the shift for
each pair, logs it to ShiftOffset.csv in the output dir, and writes a
shifted copy of the channel-one image. A pair that fails is reported
and skipped. Interrupt stops the batch after the current pair.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("out") {
				c.cfg.OutputDir = fOut
			}
			if flags.Changed("require-empty") {
				c.cfg.RequireEmptyOutput = fRequireEmpty
			}
			if flags.Changed("maps") {
				c.cfg.ScoreMaps = fMaps
			}

			one, err := batch.CollectTIFFs(fOne...)
			if err != nil {
				return err
			}
			two, err := batch.CollectTIFFs(fTwo...)
			if err != nil {
				return err
			}
			pairs, err := batch.PairFiles(one, two)
			if err != nil {
				return err
			}
			if len(pairs) == 0 {
				return fmt.Errorf("no TIFF files found")
			}

			runner, err := batch.NewRunner(c.cfg, &c.log)
			if err != nil {
				return err
			}

			task := batch.Start(cmd.Context(), runner, pairs)
			for p := range task.Progress() {
				c.log.Info().Int("percent", p.Percent()).Msgf("[%d/%d] %s", p.Done, p.Total, p.Last)
			}
			report, err := task.Wait()
			fmt.Fprintln(c.stdout, report.Summary())
			if err != nil {
				return err
			}
			if failed := len(report.Failed()); failed > 0 {
				return fmt.Errorf("%d of %d pairs failed", failed, len(report.Results))
			}
			return nil
		},
	}

	c.addBoundsFlags(cmd)
	c.addApplierFlags(cmd)
	f := cmd.Flags()
	f.StringSliceVar(&fOne, "one", nil, "channel one files or dirs (these get shifted)")
	f.StringSliceVar(&fTwo, "two", nil, "channel two files or dirs")
	f.StringVar(&fOut, "out", "", "output dir")
	f.BoolVar(&fRequireEmpty, "require-empty", false, "refuse to write into a non-empty output dir")
	f.BoolVar(&fMaps, "maps", false, "also write a score map per pair")
	cmd.MarkFlagRequired("one")
	cmd.MarkFlagRequired("two")
	return cmd
}
