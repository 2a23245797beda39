package velocity

import (
	"sort"

	"github.com/velopane/velopane/pkg/dataset"
)

// Resolved holds the per-invocation layer and fit decisions.
type Resolved struct {
	// SKey and UKey are the phase-portrait layer pair: raw counts when
	// UseRaw is set or no smoothed layers exist, smoothed moments
	// otherwise.
	SKey, UKey string

	// Layers are the extra layers shown as embedding panels, filtered to
	// those present in the dataset (or the X sentinel).
	Layers []string

	// Fits are the model names overlaid on phase portraits: the requested
	// names that either are the literal "dynamics" or carry a
	// "<fit>_gamma" parameter, with "dynamics" always included exactly
	// once.
	Fits []string

	// StochasticFits are the Fits backed by a "variance_<fit>" layer and
	// therefore eligible for the covariability portrait.
	StochasticFits []string
}

// ResolveLayers decides the phase-portrait pair, the extra panel layers, and
// the overlay fit names for one invocation. Missing layers and fits are
// filtered out silently.
func ResolveLayers(ds *dataset.Dataset, opts *Options) Resolved {
	var r Resolved

	r.SKey, r.UKey = dataset.LayerSpliced, dataset.LayerUnspliced
	if !opts.UseRaw && ds.HasLayer(dataset.LayerMs) {
		r.SKey, r.UKey = dataset.LayerMs, dataset.LayerMu
	}

	layers := opts.Layers
	if len(layers) == 0 || (len(layers) == 1 && layers[0] == LayersAll) {
		layers = []string{opts.VKey, r.SKey}
	}
	for _, layer := range layers {
		if layer == dataset.LayerX || ds.HasLayer(layer) {
			r.Layers = append(r.Layers, layer)
		}
	}

	fits := opts.Fits
	if len(fits) == 1 && fits[0] == FitsAll {
		fits = layerNames(ds)
	}
	for _, fit := range fits {
		if fit == "dynamics" || ds.HasVar(fit+"_gamma") {
			r.Fits = append(r.Fits, fit)
		}
	}
	r.Fits = uniqueStable(append(r.Fits, "dynamics"))

	for _, fit := range r.Fits {
		if ds.HasLayer("variance_" + fit) {
			r.StochasticFits = append(r.StochasticFits, fit)
		}
	}

	return r
}

// layerNames returns all layer keys in deterministic order.
func layerNames(ds *dataset.Dataset) []string {
	names := make([]string, 0, len(ds.Layers))
	for name := range ds.Layers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
