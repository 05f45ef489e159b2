package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abworrall/corrshift/pkg/apply"
	"github.com/abworrall/corrshift/pkg/batch"
	"github.com/abworrall/corrshift/pkg/shiftlog"
)

func (c *cli) applyCmd() *cobra.Command {
	var fLog, fOut string

	cmd := &cobra.Command{
		Use:   "apply --log ShiftOffset.csv --out DIR FILES...",
		Short: "Apply offsets from an earlier batch's log to images",
		Long: `Looks each file up by name in the shift log and writes a shifted copy
into the output dir. Files the log does not mention are skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if fOut != "" {
				c.cfg.OutputDir = fOut
			}

			entries, err := shiftlog.Read(fLog)
			if err != nil {
				return err
			}
			offsets := shiftlog.Offsets(entries)

			files, err := batch.CollectTIFFs(args...)
			if err != nil {
				return err
			}

			jobs := []apply.Job{}
			for _, f := range files {
				off, ok := offsets[filepath.Base(f)]
				if !ok {
					c.log.Warn().Str("file", f).Msg("not in shift log, skipped")
					continue
				}
				jobs = append(jobs, apply.Job{Path: f, Offset: off})
			}
			if len(jobs) == 0 {
				return fmt.Errorf("none of %d files are in %s", len(files), fLog)
			}

			if err := os.MkdirAll(c.cfg.OutputDir, 0o755); err != nil {
				return err
			}
			applier, err := apply.New(c.cfg.Applier, c.cfg.OutputDir, c.cfg.ImageJPath, &c.log)
			if err != nil {
				return err
			}
			if err := applier.Apply(cmd.Context(), jobs); err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "applied %d shifts into %s\n", len(jobs), c.cfg.OutputDir)
			return nil
		},
	}

	c.addApplierFlags(cmd)
	cmd.Flags().StringVar(&fLog, "log", shiftlog.Filename, "shift log to read")
	cmd.Flags().StringVar(&fOut, "out", "", "output dir")
	cmd.MarkFlagRequired("out")
	return cmd
}
