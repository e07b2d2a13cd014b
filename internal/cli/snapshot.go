package cli

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/moto/pkg/cache"
	"github.com/matzehuels/moto/pkg/controller"
	"github.com/matzehuels/moto/pkg/layout"
	"github.com/matzehuels/moto/pkg/particle"
	"github.com/matzehuels/moto/pkg/render"
)

const (
	formatPNG = "png"
	formatSVG = "svg"
)

// snapshotCacheTTL keeps rendered frames for a week. Frames are fully
// determined by their options, so staleness is not a concern.
const snapshotCacheTTL = 7 * 24 * time.Hour

type snapshotOptions struct {
	output    string
	format    string
	width     int
	seed      uint64
	at        time.Duration
	scale     float64
	particles bool
	noBand    bool
	noCache   bool
	framesDir string
	frames    int
}

func (c *CLI) snapshotCommand() *cobra.Command {
	opts := snapshotOptions{width: defaultWidth, seed: 1, at: 2 * time.Second, scale: 1}
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render one frame of the card stream to PNG or SVG",
		Long: `Render the card stream as it looks after --at of simulated time. The
stream runs on a fixed clock with a seeded deck, so the same options always
produce the same image.

With --frames-dir, also write --frames PNGs of the particle layer.`,
		Example: `  moto snapshot -o stream.png
  moto snapshot -o stream.svg --at 5s --seed 42
  moto snapshot --frames-dir particles/ --frames 60`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSnapshot(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "moto.png", "output file")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "png or svg (default from --output)")
	cmd.Flags().IntVarP(&opts.width, "width", "w", opts.width, "container width in px")
	cmd.Flags().Uint64Var(&opts.seed, "seed", opts.seed, "deck seed")
	cmd.Flags().DurationVar(&opts.at, "at", opts.at, "simulated time of the frame")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG pixel density")
	cmd.Flags().BoolVar(&opts.particles, "particles", true, "draw the particle field")
	cmd.Flags().BoolVar(&opts.noBand, "no-band", false, "hide the scan line")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the snapshot cache")
	cmd.Flags().StringVar(&opts.framesDir, "frames-dir", "", "write particle layer frames here")
	cmd.Flags().IntVar(&opts.frames, "frames", 30, "number of particle frames")
	return cmd
}

func (c *CLI) runSnapshot(ctx context.Context, opts snapshotOptions) error {
	format, err := snapshotFormat(opts.format, opts.output)
	if err != nil {
		return err
	}
	opts.format = format
	if opts.width <= 0 {
		return fmt.Errorf("width must be positive, got %d", opts.width)
	}

	store, err := c.newCache(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer store.Close()

	key := c.keyer().SnapshotKey(cache.SnapshotKeyOpts{
		Width:     opts.width,
		Seed:      opts.seed,
		At:        opts.at,
		Format:    opts.format,
		Particles: opts.particles,
	})
	// Keys cover the default scale with the band shown.
	cacheable := opts.scale == 1 && !opts.noBand

	data, cached, err := store.Get(ctx, key)
	if err != nil || !cacheable {
		cached = false
	}
	if !cached {
		data, err = c.renderSnapshot(opts)
		if err != nil {
			return err
		}
		if cacheable {
			if err := store.Set(ctx, key, data, snapshotCacheTTL); err != nil {
				loggerFromContext(ctx).Debug("snapshot cache write failed", "error", err)
			}
		}
	}

	if err := os.WriteFile(opts.output, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess("Rendered %s", strings.ToUpper(opts.format))
	printFile(opts.output)
	printFacts(cached, fmt.Sprintf("%dpx", opts.width), fmt.Sprintf("seed %d", opts.seed), "at "+opts.at.String())

	if opts.framesDir != "" {
		prog := newProgress(loggerFromContext(ctx))
		n, err := c.writeParticleFrames(opts)
		if err != nil {
			return err
		}
		prog.done(fmt.Sprintf("Rendered %d particle frames", n))
		printSuccess("Wrote %d particle frames", n)
		printFile(opts.framesDir)
	}
	return nil
}

// snapshotFormat picks the format from the flag or the output extension.
func snapshotFormat(flag, output string) (string, error) {
	f := strings.ToLower(flag)
	if f == "" {
		f = strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
	}
	switch f {
	case formatPNG, formatSVG:
		return f, nil
	case "":
		return formatPNG, nil
	}
	return "", fmt.Errorf("unsupported format %q (want png or svg)", f)
}

// snapshotClock is the fixed epoch snapshots are simulated from.
var snapshotClock = time.Unix(0, 0).UTC()

// simulate steps a seeded stream on a fixed clock up to opts.at and returns
// the last frame, with the particle field stepped alongside when enabled.
func (c *CLI) simulate(opts snapshotOptions) (controller.Snapshot, *particle.Field) {
	cfg := c.config()
	ctl := c.newController(layout.Fixed(cfg.Geometry(float64(opts.width))), opts.seed)
	defer ctl.Close()

	var field *particle.Field
	if opts.particles {
		field = particle.NewField(cfg.Particle(), float64(opts.width), rand.New(rand.NewPCG(opts.seed, opts.seed+1)))
	}

	step := cfg.Stream.FrameInterval.Duration
	snap := ctl.Frame(snapshotClock)
	for t := step; t <= opts.at; t += step {
		snap = ctl.Frame(snapshotClock.Add(t))
		if field != nil {
			field.Step(step.Seconds(), t.Seconds())
		}
	}
	return snap, field
}

func (c *CLI) renderSnapshot(opts snapshotOptions) ([]byte, error) {
	snap, field := c.simulate(opts)
	ropts := []render.Option{render.WithScale(opts.scale)}
	if field != nil {
		ropts = append(ropts, render.WithParticles(field.Points(nil), field.View()))
	}
	if opts.noBand {
		ropts = append(ropts, render.WithoutBand())
	}
	if opts.format == formatSVG {
		return render.RenderSVG(snap, ropts...)
	}
	return render.RenderPNG(snap, ropts...)
}

// writeParticleFrames steps a fresh field and draws each frame to a PNG
// surface in opts.framesDir.
func (c *CLI) writeParticleFrames(opts snapshotOptions) (int, error) {
	cfg := c.config()
	surface, err := render.NewPNGSurface(opts.framesDir, opts.frames)
	if err != nil {
		return 0, err
	}
	defer surface.Close()

	field := particle.NewField(cfg.Particle(), float64(opts.width), rand.New(rand.NewPCG(opts.seed, opts.seed+1)))
	step := cfg.Particles.Interval.Duration
	var points []particle.Point
	for i := 0; i < opts.frames; i++ {
		field.Step(step.Seconds(), float64(i)*step.Seconds())
		points = field.Points(points)
		if err := surface.Draw(points, field.View()); err != nil {
			return surface.Frames(), err
		}
	}
	return surface.Frames(), nil
}
