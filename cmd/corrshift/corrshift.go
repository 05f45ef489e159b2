package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/abworrall/corrshift/pkg/batch"
)

// cli holds the flags shared by every subcommand, and what they turn
// into once parsed.
type cli struct {
	fConfig    string
	fVerbosity int
	fMinX      int
	fMaxX      int
	fMinY      int
	fMaxY      int
	fWorkers   int
	fApplier   string
	fImageJ    string

	stdout io.Writer
	stderr io.Writer

	cfg batch.Config
	log zerolog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "corrshift",
		Short:         "Find and fix the pixel shift between two imaging channels",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd.Flags())
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&c.fConfig, "config", "", "config file (.yaml or .toml)")
	pf.CountVarP(&c.fVerbosity, "verbose", "v", "how verbose to get (repeat for more)")

	root.AddCommand(c.searchCmd(), c.batchCmd(), c.applyCmd())
	return root
}

// addBoundsFlags registers the search window flags on cmd.
func (c *cli) addBoundsFlags(cmd *cobra.Command) {
	def := batch.NewConfig().Bounds
	f := cmd.Flags()
	f.IntVar(&c.fMinX, "minx", def.MinX, "smallest horizontal offset to try")
	f.IntVar(&c.fMaxX, "maxx", def.MaxX, "largest horizontal offset to try")
	f.IntVar(&c.fMinY, "miny", def.MinY, "smallest vertical offset to try")
	f.IntVar(&c.fMaxY, "maxy", def.MaxY, "largest vertical offset to try")
	f.IntVar(&c.fWorkers, "workers", 0, "goroutines per search (0 = one per CPU)")
}

func (c *cli) addApplierFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&c.fApplier, "apply", "native", "how to apply shifts: native, imagej or none")
	f.StringVar(&c.fImageJ, "imagej", "", "ImageJ executable, for --apply=imagej")
}

// setup loads the config file, lays any flags given on the command
// line over it, and builds the logger.
func (c *cli) setup(flags *pflag.FlagSet) error {
	c.cfg = batch.NewConfig()
	if c.fConfig != "" {
		cfg, err := batch.LoadConfig(c.fConfig)
		if err != nil {
			return err
		}
		c.cfg = cfg
	}

	set := func(name string, fn func()) {
		if f := flags.Lookup(name); f != nil && f.Changed {
			fn()
		}
	}
	set("verbose", func() { c.cfg.Verbosity = c.fVerbosity })
	set("minx", func() { c.cfg.Bounds.MinX = c.fMinX })
	set("maxx", func() { c.cfg.Bounds.MaxX = c.fMaxX })
	set("miny", func() { c.cfg.Bounds.MinY = c.fMinY })
	set("maxy", func() { c.cfg.Bounds.MaxY = c.fMaxY })
	set("workers", func() { c.cfg.Workers = c.fWorkers })
	set("apply", func() { c.cfg.Applier = c.fApplier })
	set("imagej", func() { c.cfg.ImageJPath = c.fImageJ })

	c.log = zerolog.New(zerolog.ConsoleWriter{Out: c.stderr, TimeFormat: time.Kitchen}).
		Level(c.cfg.LogLevel()).
		With().
		Timestamp().
		Logger()

	if c.cfg.Verbosity > 0 {
		c.log.Debug().Msgf("Final configuration:-\n\n%s", c.cfg.AsYaml())
	}

	return c.cfg.Bounds.Validate()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "corrshift: %v\n", err)
		stop()
		os.Exit(1)
	}
}
