package velocity

import (
	"errors"
	"reflect"
	"testing"
)

func TestValidateAndSetDefaults(t *testing.T) {
	opts := Options{Genes: []string{"Actb"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}

	if opts.VKey != DefaultVKey {
		t.Errorf("VKey = %q, want %q", opts.VKey, DefaultVKey)
	}
	if opts.Alpha != DefaultAlpha {
		t.Errorf("Alpha = %v, want %v", opts.Alpha, DefaultAlpha)
	}
	if opts.Perc != DefaultPerc {
		t.Errorf("Perc = %v, want %v", opts.Perc, DefaultPerc)
	}
	if opts.FigSize != DefaultFigSize {
		t.Errorf("FigSize = %v, want %v", opts.FigSize, DefaultFigSize)
	}
	if opts.DPI != DefaultDPI {
		t.Errorf("DPI = %v, want %v", opts.DPI, DefaultDPI)
	}
	if opts.NCols != DefaultNCols {
		t.Errorf("NCols = %v, want %v", opts.NCols, DefaultNCols)
	}
	if opts.LegendLoc != DefaultLegendLoc {
		t.Errorf("LegendLoc = %q, want %q", opts.LegendLoc, DefaultLegendLoc)
	}
	if opts.ColorMap.IsZero() {
		t.Error("ColorMap not defaulted")
	}
	if want := []string{"velocity", "dynamics"}; !reflect.DeepEqual(opts.Fits, want) {
		t.Errorf("Fits = %v, want %v", opts.Fits, want)
	}
}

func TestValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Gene: "Actb", Genes: []string{"Gapdh"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("first validate: %v", err)
	}
	if want := []string{"Actb", "Gapdh"}; !reflect.DeepEqual(opts.Genes, want) {
		t.Errorf("Genes = %v, want %v", opts.Genes, want)
	}

	// A second validation must not merge Gene again or reorder anything.
	snapshot := opts
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second validate: %v", err)
	}
	if !reflect.DeepEqual(opts.Genes, snapshot.Genes) {
		t.Errorf("Genes changed on revalidation: %v", opts.Genes)
	}
}

func TestValidateRequiresSelection(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("err = %v, want ErrNoSelection", err)
	}

	opts = Options{GroupBy: "clusters"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("groupBy alone should satisfy selection: %v", err)
	}
}

func TestColorMapResolve(t *testing.T) {
	paired := PairedColorMap("RdYlGn", "gnuplot_r")
	if got := paired.Resolve(true); got != "gnuplot_r" {
		t.Errorf("expression map = %q", got)
	}
	if got := paired.Resolve(false); got != "RdYlGn" {
		t.Errorf("velocity map = %q", got)
	}

	single := SingleColorMap("viridis")
	if single.Resolve(true) != "viridis" || single.Resolve(false) != "viridis" {
		t.Error("single map must apply to every panel")
	}
}

func TestResolveBasis(t *testing.T) {
	ds := testDataset(t)

	opts := Options{Basis: "umap"}
	basis, err := opts.resolveBasis(ds)
	if err != nil || basis != "umap" {
		t.Errorf("explicit basis = %q, %v", basis, err)
	}

	opts = Options{Basis: "tsne"}
	if _, err := opts.resolveBasis(ds); err == nil {
		t.Error("missing explicit basis should error")
	}

	opts = Options{}
	basis, err = opts.resolveBasis(ds)
	if err != nil || basis != "umap" {
		t.Errorf("preferred basis = %q, %v", basis, err)
	}

	// Without a preferred embedding any X_* key serves.
	custom := ds.Obsm["X_umap"]
	delete(ds.Obsm, "X_umap")
	ds.Obsm["X_custom"] = custom
	basis, err = opts.resolveBasis(ds)
	if err != nil || basis != "custom" {
		t.Errorf("fallback basis = %q, %v", basis, err)
	}

	delete(ds.Obsm, "X_custom")
	if _, err := opts.resolveBasis(ds); err == nil {
		t.Error("dataset without embeddings should error")
	}
}
