package velocity

import (
	"fmt"

	"github.com/velopane/velopane/pkg/dataset"
)

// Fallback fit parameters used when a "<fit>_<param>" annotation is absent.
const (
	fallbackOffset  = 0
	fallbackBeta    = 1
	fallbackGamma   = 1
	fallbackOffset2 = 0
)

// linePoints is how many samples an overlay line is drawn with.
const linePoints = 50

// correctedCoordinates transforms raw abundances and second-order moments
// into the covariability portrait coordinates:
//
//	x = 2*(ss - s^2) - s
//	y = 2*(us - u*s) + u + 2*s*offset/beta
//
// offset and beta come from the first stochastic-capable fit and fall back
// to 0 and 1 when absent.
func correctedCoordinates(s, u, ss, us []float64, offset, beta float64) (x, y []float64) {
	x = make([]float64, len(s))
	y = make([]float64, len(s))
	for i := range s {
		x[i] = 2*(ss[i]-s[i]*s[i]) - s[i]
		y[i] = 2*(us[i]-u[i]*s[i]) + u[i] + 2*s[i]*offset/beta
	}
	return x, y
}

// renderStochastic draws the covariability portrait for one gene: a scatter
// of the corrected coordinates plus one dashed slope line per
// stochastic-capable fit. With no stochastic-capable fit the scatter is
// still drawn and the panel simply carries no lines.
func renderStochastic(ds *dataset.Dataset, r Renderer, opts *Options, res Resolved, gene string, panel int) error {
	if opts.Moments == nil {
		return ErrNoMoments
	}
	ss, us, err := opts.Moments.SecondOrderMoments(ds, gene)
	if err != nil {
		return fmt.Errorf("second-order moments for %s: %w", gene, err)
	}
	s := ds.GeneColumn(res.SKey, gene)
	u := ds.GeneColumn(res.UKey, gene)

	offset, beta := float64(fallbackOffset), float64(fallbackBeta)
	if len(res.StochasticFits) > 0 {
		fit := res.StochasticFits[0]
		offset = ds.VarParam(gene, fit+"_offset", fallbackOffset)
		beta = ds.VarParam(gene, fit+"_beta", fallbackBeta)
	}
	x, y := correctedCoordinates(s, u, ss, us, offset, beta)

	err = r.Scatter(ds, ScatterRequest{
		Panel:     panel,
		X:         x,
		Y:         y,
		Color:     opts.Color,
		ColorMap:  opts.ColorMap.Resolve(false),
		Perc:      opts.Perc,
		Title:     gene,
		XLabel:    "2 Σs − ⟨s⟩",
		YLabel:    "2 Σus + ⟨u⟩",
		FontSize:  opts.FontSize,
		Size:      opts.Size,
		Alpha:     opts.Alpha,
		Frame:     true,
		Colorbar:  !opts.HideColorbar,
		LegendLoc: DefaultLegendLoc,
	})
	if err != nil {
		return err
	}

	xmin, xmax := minMax(x)
	xs := linspace(xmin, xmax*1.02, linePoints)
	for _, fit := range res.StochasticFits {
		gamma := ds.VarParam(gene, fit+"_gamma", fallbackGamma)
		beta := ds.VarParam(gene, fit+"_beta", fallbackBeta)
		offset2 := ds.VarParam(gene, fit+"_offset2", fallbackOffset2)

		ys := make([]float64, len(xs))
		for i, v := range xs {
			ys[i] = gamma/beta*v + offset2/beta
		}
		if err := r.Line(panel, xs, ys, LineStyle{Dashed: true, Color: "black"}); err != nil {
			return err
		}
	}
	return nil
}

// minMax returns the minimum and maximum of v; (0, 0) for empty input.
func minMax(v []float64) (lo, hi float64) {
	if len(v) == 0 {
		return 0, 0
	}
	lo, hi = v[0], v[0]
	for _, x := range v[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}

// linspace samples n evenly spaced values over [lo, hi].
func linspace(lo, hi float64, n int) []float64 {
	if n < 2 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
