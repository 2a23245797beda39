package velocity

import (
	"errors"
	"testing"

	"github.com/velopane/velopane/pkg/dataset"
)

// =============================================================================
// Test Fixtures
// =============================================================================

// testDataset builds a small 4-cell, 3-gene dataset with smoothed moments,
// a velocity layer with fitted parameters, and a umap embedding.
func testDataset(t *testing.T) *dataset.Dataset {
	t.Helper()

	ds := dataset.New(
		[]string{"c0", "c1", "c2", "c3"},
		[]string{"Actb", "Gapdh", "Tubb5"},
	)

	mustDense := func(data []float64) *dataset.Matrix {
		m, err := dataset.NewDense(4, 3, data)
		if err != nil {
			t.Fatalf("dense matrix: %v", err)
		}
		return m
	}

	ds.X = mustDense([]float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
		2, 4, 6,
	})
	ds.Layers[dataset.LayerSpliced] = mustDense([]float64{
		1, 1, 1,
		2, 2, 2,
		3, 3, 3,
		4, 4, 4,
	})
	ds.Layers[dataset.LayerUnspliced] = mustDense([]float64{
		1, 0, 2,
		2, 1, 3,
		3, 2, 4,
		4, 3, 5,
	})
	ds.Layers[dataset.LayerMs] = mustDense([]float64{
		1, 1, 1,
		2, 2, 2,
		3, 3, 3,
		4, 4, 4,
	})
	ds.Layers[dataset.LayerMu] = mustDense([]float64{
		1, 0, 2,
		2, 1, 3,
		3, 2, 4,
		4, 3, 5,
	})
	ds.Layers["velocity"] = mustDense([]float64{
		0.1, -0.1, 0.2,
		0.2, -0.2, 0.3,
		0.3, -0.3, 0.4,
		0.4, -0.4, 0.5,
	})

	ds.Var["velocity_gamma"] = []float64{0.5, 1.0, 2.0}
	ds.Var["velocity_beta"] = []float64{1.0, 1.0, 2.0}
	ds.Var["velocity_offset"] = []float64{0, 0, 1}

	ds.Obs["clusters"] = []string{"alpha", "alpha", "beta", "beta"}
	ds.ObsCategories["clusters"] = []string{"alpha", "beta"}

	umap, err := dataset.NewDense(4, 2, []float64{
		0, 0,
		1, 0,
		0, 1,
		1, 1,
	})
	if err != nil {
		t.Fatalf("umap matrix: %v", err)
	}
	ds.Obsm["X_umap"] = umap

	return ds
}

// =============================================================================
// Recording Renderer
// =============================================================================

type lineCall struct {
	panel int
	x, y  []float64
	style LineStyle
}

// recordingRenderer captures all draw calls for assertions.
type recordingRenderer struct {
	plan      *Plan
	fig       FigureSpec
	scatters  []ScatterRequest
	lines     []lineCall
	finalized bool
	save      string
}

func (r *recordingRenderer) Init(plan *Plan, fig FigureSpec) error {
	r.plan = plan
	r.fig = fig
	return nil
}

func (r *recordingRenderer) Scatter(ds *dataset.Dataset, req ScatterRequest) error {
	r.scatters = append(r.scatters, req)
	return nil
}

func (r *recordingRenderer) Line(panel int, x, y []float64, style LineStyle) error {
	r.lines = append(r.lines, lineCall{panel: panel, x: x, y: y, style: style})
	return nil
}

func (r *recordingRenderer) Finalize(show bool, save string, dpi float64) ([]byte, error) {
	r.finalized = true
	r.save = save
	return []byte("artifact"), nil
}

// constMoments returns fixed second-order moments for every gene.
type constMoments struct {
	ss, us []float64
	err    error
}

func (m *constMoments) SecondOrderMoments(ds *dataset.Dataset, gene string) ([]float64, []float64, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.ss, m.us, nil
}

// =============================================================================
// RenderPanels
// =============================================================================

func TestRenderPanelsPanelOrder(t *testing.T) {
	ds := testDataset(t)
	r := &recordingRenderer{}

	opts := Options{Genes: []string{"Actb", "Tubb5"}}
	artifact, err := RenderPanels(ds, r, opts)
	if err != nil {
		t.Fatalf("RenderPanels: %v", err)
	}
	if string(artifact) != "artifact" {
		t.Errorf("artifact = %q, want renderer output", artifact)
	}
	if !r.finalized {
		t.Error("renderer was not finalized")
	}

	// Default layers are velocity and Ms: 3 panels per gene, 2 genes.
	if len(r.scatters) != 6 {
		t.Fatalf("got %d scatter calls, want 6", len(r.scatters))
	}
	wantPanels := []int{0, 1, 2, 3, 4, 5}
	for i, req := range r.scatters {
		if req.Panel != wantPanels[i] {
			t.Errorf("scatter %d targets panel %d, want %d", i, req.Panel, wantPanels[i])
		}
	}

	// Gene-major order: first gene's panels before the second gene's.
	if r.scatters[0].Gene != "Actb" || r.scatters[3].Gene != "Tubb5" {
		t.Errorf("unexpected phase genes: %q, %q", r.scatters[0].Gene, r.scatters[3].Gene)
	}
	if r.scatters[1].Gene != "" || r.scatters[1].Color != "Actb" {
		t.Errorf("layer panel colors by %q, want gene via Color", r.scatters[1].Color)
	}
}

func TestRenderPanelsPhasePortrait(t *testing.T) {
	ds := testDataset(t)
	r := &recordingRenderer{}

	opts := Options{Genes: []string{"Actb"}}
	if _, err := RenderPanels(ds, r, opts); err != nil {
		t.Fatalf("RenderPanels: %v", err)
	}

	phase := r.scatters[0]
	if phase.XLayer != dataset.LayerMs || phase.YLayer != dataset.LayerMu {
		t.Errorf("phase layers = %q/%q, want Ms/Mu", phase.XLayer, phase.YLayer)
	}
	if phase.XLabel != "spliced" || phase.YLabel != "unspliced" {
		t.Errorf("phase axis labels = %q/%q", phase.XLabel, phase.YLabel)
	}
	if phase.Title != "Actb" {
		t.Errorf("phase title = %q, want gene name", phase.Title)
	}
	if !phase.Frame {
		t.Error("phase portrait should be framed")
	}
	if len(phase.Fits) == 0 || phase.Fits[len(phase.Fits)-1] != "dynamics" {
		t.Errorf("phase fits = %v, want dynamics last", phase.Fits)
	}
}

func TestRenderPanelsLayerTitles(t *testing.T) {
	ds := testDataset(t)
	r := &recordingRenderer{}

	opts := Options{Genes: []string{"Actb"}}
	if _, err := RenderPanels(ds, r, opts); err != nil {
		t.Fatalf("RenderPanels: %v", err)
	}

	velocityPanel := r.scatters[1]
	if velocityPanel.Title != "velocity" {
		t.Errorf("velocity panel title = %q", velocityPanel.Title)
	}
	if velocityPanel.Frame {
		t.Error("embedding panels should be frameless")
	}
	if velocityPanel.Basis != "umap" {
		t.Errorf("velocity panel basis = %q, want umap", velocityPanel.Basis)
	}
	if velocityPanel.Color != "Actb" || velocityPanel.Layer != "velocity" {
		t.Errorf("velocity panel colors by %q/%q", velocityPanel.Color, velocityPanel.Layer)
	}

	// The abundance layer panel is titled "expression", not "Ms".
	msPanel := r.scatters[2]
	if msPanel.Title != "expression" {
		t.Errorf("abundance panel title = %q, want expression", msPanel.Title)
	}
}

func TestRenderPanelsColorMapPairing(t *testing.T) {
	ds := testDataset(t)
	r := &recordingRenderer{}

	opts := Options{
		Genes:    []string{"Actb"},
		ColorMap: PairedColorMap("RdYlGn", "gnuplot_r"),
	}
	if _, err := RenderPanels(ds, r, opts); err != nil {
		t.Fatalf("RenderPanels: %v", err)
	}

	if got := r.scatters[1].ColorMap; got != "RdYlGn" {
		t.Errorf("velocity panel map = %q, want RdYlGn", got)
	}
	if got := r.scatters[2].ColorMap; got != "gnuplot_r" {
		t.Errorf("abundance panel map = %q, want gnuplot_r", got)
	}
}

func TestRenderPanelsLegendOnlyLastGene(t *testing.T) {
	ds := testDataset(t)
	r := &recordingRenderer{}

	opts := Options{
		Genes:     []string{"Actb", "Gapdh", "Tubb5"},
		LegendLoc: "lower right",
	}
	if _, err := RenderPanels(ds, r, opts); err != nil {
		t.Fatalf("RenderPanels: %v", err)
	}

	var phases []ScatterRequest
	for _, req := range r.scatters {
		if req.Gene != "" && req.XLayer != "" {
			phases = append(phases, req)
		}
	}
	if len(phases) != 3 {
		t.Fatalf("got %d phase portraits, want 3", len(phases))
	}
	for i, req := range phases[:2] {
		if req.LegendLoc != "none" {
			t.Errorf("phase %d legend = %q, want none", i, req.LegendLoc)
		}
	}
	if phases[2].LegendLoc != "lower right" {
		t.Errorf("last phase legend = %q, want lower right", phases[2].LegendLoc)
	}
}

func TestRenderPanelsStochastic(t *testing.T) {
	ds := testDataset(t)
	ds.Layers["variance_velocity"] = ds.Layers["velocity"]
	r := &recordingRenderer{}

	opts := Options{
		Genes:      []string{"Actb"},
		Stochastic: true,
		Moments: &constMoments{
			ss: []float64{1, 4, 9, 16},
			us: []float64{1, 4, 9, 16},
		},
	}
	if _, err := RenderPanels(ds, r, opts); err != nil {
		t.Fatalf("RenderPanels: %v", err)
	}

	// 1 phase + 2 layers + 1 covariability scatter; the spare slot stays empty.
	if len(r.scatters) != 4 {
		t.Fatalf("got %d scatter calls, want 4", len(r.scatters))
	}
	cov := r.scatters[3]
	if cov.Panel != 3 {
		t.Errorf("covariability panel = %d, want 3", cov.Panel)
	}
	if cov.X == nil || cov.Y == nil {
		t.Error("covariability scatter must carry explicit coordinates")
	}
	if len(r.lines) != 1 {
		t.Fatalf("got %d overlay lines, want 1", len(r.lines))
	}
	if !r.lines[0].style.Dashed || r.lines[0].style.Color != "black" {
		t.Errorf("overlay style = %+v, want dashed black", r.lines[0].style)
	}
}

func TestRenderPanelsStochasticWithoutMoments(t *testing.T) {
	ds := testDataset(t)
	r := &recordingRenderer{}

	opts := Options{Genes: []string{"Actb"}, Stochastic: true}
	if _, err := RenderPanels(ds, r, opts); !errors.Is(err, ErrNoMoments) {
		t.Fatalf("err = %v, want ErrNoMoments", err)
	}
}

func TestRenderPanelsNilRenderer(t *testing.T) {
	ds := testDataset(t)
	if _, err := RenderPanels(ds, nil, Options{Genes: []string{"Actb"}}); err == nil {
		t.Fatal("expected error for nil renderer")
	}
}

func TestRenderPanelsSavePropagates(t *testing.T) {
	ds := testDataset(t)
	r := &recordingRenderer{}

	opts := Options{Genes: []string{"Actb"}, Save: "out.svg"}
	if _, err := RenderPanels(ds, r, opts); err != nil {
		t.Fatalf("RenderPanels: %v", err)
	}
	if r.save != "out.svg" {
		t.Errorf("save path = %q, want out.svg", r.save)
	}
}
