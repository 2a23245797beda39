package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/velopane/velopane/pkg/cache"
	"github.com/velopane/velopane/pkg/dataset"
	"github.com/velopane/velopane/pkg/dataset/h5ad"
	"github.com/velopane/velopane/pkg/render"
	"github.com/velopane/velopane/pkg/stats"
	"github.com/velopane/velopane/pkg/velocity"
)

// plotOpts holds the command-line flags for the plot command.
type plotOpts struct {
	output      string   // output file path (or base path for multiple formats)
	genes       []string // explicit gene names
	groupBy     string   // grouping annotation key for ranked selection
	groups      []string // group subset within groupBy
	basis       string   // embedding key for layer panels
	vkey        string   // velocity layer key
	layers      string   // comma-separated layer list or "all"
	fits        string   // comma-separated fit list or "all"
	stochastic  bool     // add the covariability portrait
	color       string   // phase-portrait color key
	cmap        string   // single color map overriding the paired default
	perc        []float64
	ncols       int
	dpi         float64
	formats     []string
	noCache     bool
	interactive bool
}

// validPlotFormats is the set of supported output formats.
var validPlotFormats = map[string]bool{"svg": true, "png": true, "pdf": true}

// plotCommand creates the plot command for rendering phase-portrait grids.
func (c *CLI) plotCommand() *cobra.Command {
	var formatsStr string
	opts := plotOpts{
		basis: c.Config.Plot.Basis,
		vkey:  c.Config.Plot.VKey,
		dpi:   c.Config.Plot.DPI,
		ncols: velocity.DefaultNCols,
	}

	cmd := &cobra.Command{
		Use:   "plot [dataset.h5ad]",
		Short: "Render velocity phase portraits from a dataset",
		Long: `Render per-gene phase portraits with fitted steady-state lines,
embedding panels colored by velocity and expression, and optionally the
stochastic covariability portrait. Genes are chosen explicitly, ranked per
group, or picked interactively.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parsePlotFormats(formatsStr)
			if err := validatePlotFormats(opts.formats); err != nil {
				return err
			}
			return c.runPlot(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path")
	cmd.Flags().StringSliceVarP(&opts.genes, "genes", "g", nil, "gene names to plot (comma-separated)")
	cmd.Flags().StringVar(&opts.groupBy, "groupby", "", "obs key for ranked gene selection")
	cmd.Flags().StringSliceVar(&opts.groups, "groups", nil, "group subset within --groupby")
	cmd.Flags().StringVar(&opts.basis, "basis", opts.basis, "embedding for layer panels (e.g. umap)")
	cmd.Flags().StringVar(&opts.vkey, "vkey", opts.vkey, "velocity layer key")
	cmd.Flags().StringVar(&opts.layers, "layers", "", "layer panels: comma-separated names or 'all'")
	cmd.Flags().StringVar(&opts.fits, "fits", "", "steady-state fits: comma-separated names or 'all'")
	cmd.Flags().BoolVar(&opts.stochastic, "stochastic", false, "add the second-order covariability portrait")
	cmd.Flags().StringVar(&opts.color, "color", "", "phase-portrait color key (obs column or layer)")
	cmd.Flags().StringVar(&opts.cmap, "cmap", "", "single color map overriding the paired default")
	cmd.Flags().Float64SliceVar(&opts.perc, "perc", nil, "percentile clip bounds for continuous colors")
	cmd.Flags().IntVar(&opts.ncols, "ncols", opts.ncols, "gene columns in the grid")
	cmd.Flags().Float64Var(&opts.dpi, "dpi", opts.dpi, "raster resolution for png output")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf (comma-separated)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the artifact cache")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "pick genes interactively")

	return cmd
}

// parsePlotFormats parses the --format flag, defaulting to ["svg"].
func parsePlotFormats(s string) []string {
	if s == "" {
		return []string{"svg"}
	}
	return strings.Split(s, ",")
}

// validatePlotFormats checks that all requested formats are supported.
func validatePlotFormats(formats []string) error {
	for _, f := range formats {
		if !validPlotFormats[f] {
			return fmt.Errorf("invalid format: %s (must be 'svg', 'png', or 'pdf')", f)
		}
	}
	return nil
}

// plotBasePath derives the extensionless output base from the output flag and
// the input dataset path.
func plotBasePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if validPlotFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// runPlot loads the dataset, resolves the gene selection, and renders one
// artifact per requested format, consulting the cache first.
func (c *CLI) runPlot(ctx context.Context, input string, opts *plotOpts) error {
	spinner := newSpinnerWithContext(ctx, "Loading "+filepath.Base(input))
	spinner.Start()

	ds, err := h5ad.Load(input)
	if err != nil {
		spinner.StopWithError(fmt.Sprintf("Failed to load dataset: %v", err))
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Loaded %s: %d cells × %d genes",
		filepath.Base(input), ds.NumCells(), ds.NumGenes()))

	if opts.interactive {
		genes, err := pickGenes(ds)
		if err != nil {
			return err
		}
		opts.genes = genes
	}

	vopts, err := c.buildOptions(opts)
	if err != nil {
		return err
	}

	store := c.newCache(ctx, opts.noCache)
	defer store.Close()

	dsHash, err := cache.HashFile(input)
	if err != nil {
		return err
	}

	base := plotBasePath(opts.output, input)
	for _, format := range opts.formats {
		path := base + "." + format
		if len(opts.formats) == 1 && opts.output != "" && filepath.Ext(opts.output) != "" {
			path = opts.output
		}
		if err := c.plotFormat(ctx, ds, store, dsHash, format, path, opts, vopts); err != nil {
			return fmt.Errorf("%s: %w", format, err)
		}
	}
	return nil
}

// plotFormat renders (or retrieves) one artifact and writes it to path.
func (c *CLI) plotFormat(ctx context.Context, ds *dataset.Dataset, store cache.Cache, dsHash, format, path string, opts *plotOpts, vopts velocity.Options) error {
	key := cache.ArtifactKey(dsHash, c.artifactKeyOpts(format, opts, vopts))

	if data, ok, err := store.Get(ctx, key); err == nil && ok {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		printInfo("Using cached %s artifact", format)
		printFile(path)
		return nil
	}

	spinner := newSpinnerWithContext(ctx, "Rendering "+format)
	spinner.Start()

	vopts.Save = path
	artifact, err := velocity.RenderPanels(ds, render.NewSVGRenderer(), vopts)
	if err != nil {
		spinner.StopWithError(fmt.Sprintf("Render failed: %v", err))
		return err
	}
	spinner.StopWithSuccess("Rendered " + format)
	printFile(path)

	if err := store.Set(ctx, key, artifact, 0); err != nil {
		c.Logger.Warn("cache store failed", "err", err)
	}
	return nil
}

// buildOptions translates plot flags and configuration into render options.
func (c *CLI) buildOptions(opts *plotOpts) (velocity.Options, error) {
	vopts := velocity.DefaultOptions()
	vopts.Genes = opts.genes
	vopts.GroupBy = opts.groupBy
	vopts.Groups = opts.groups
	vopts.Basis = opts.basis
	vopts.Stochastic = opts.stochastic
	vopts.Color = opts.color
	vopts.NCols = opts.ncols
	vopts.Ranker = stats.NewRanker()
	vopts.Moments = stats.NewMomentEstimator()

	if opts.vkey != "" {
		vopts.VKey = opts.vkey
	}
	if opts.dpi > 0 {
		vopts.DPI = opts.dpi
	}
	if opts.layers != "" {
		vopts.Layers = strings.Split(opts.layers, ",")
	}
	if opts.fits != "" {
		vopts.Fits = strings.Split(opts.fits, ",")
	}
	if opts.cmap != "" {
		vopts.ColorMap = velocity.SingleColorMap(opts.cmap)
	} else if c.Config.Plot.VelocityColorMap != "" || c.Config.Plot.ExpressionColorMap != "" {
		vopts.ColorMap = velocity.PairedColorMap(c.Config.Plot.VelocityColorMap, c.Config.Plot.ExpressionColorMap)
	}
	if len(opts.perc) == 2 {
		vopts.Perc = [2]float64{opts.perc[0], opts.perc[1]}
	} else if len(opts.perc) != 0 {
		return vopts, fmt.Errorf("--perc requires exactly two values")
	}

	if len(vopts.Genes) == 0 && vopts.GroupBy == "" {
		return vopts, fmt.Errorf("no genes selected: pass --genes, --groupby, or --interactive")
	}
	return vopts, nil
}

// artifactKeyOpts collects the option fields that change the artifact bytes.
func (c *CLI) artifactKeyOpts(format string, opts *plotOpts, vopts velocity.Options) cache.ArtifactKeyOpts {
	cmaps := [2]string{c.Config.Plot.VelocityColorMap, c.Config.Plot.ExpressionColorMap}
	if opts.cmap != "" {
		cmaps = [2]string{opts.cmap, opts.cmap}
	}
	return cache.ArtifactKeyOpts{
		Format:     format,
		Genes:      vopts.Genes,
		GroupBy:    vopts.GroupBy,
		Groups:     vopts.Groups,
		Basis:      vopts.Basis,
		VKey:       vopts.VKey,
		Layers:     vopts.Layers,
		Fits:       vopts.Fits,
		Stochastic: vopts.Stochastic,
		Color:      vopts.Color,
		ColorMaps:  cmaps,
		Perc:       vopts.Perc,
		NCols:      vopts.NCols,
		DPI:        vopts.DPI,
	}
}
