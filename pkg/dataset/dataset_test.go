package dataset

import (
	"reflect"
	"testing"
)

func newTestDataset(t *testing.T) *Dataset {
	t.Helper()
	ds := New([]string{"c0", "c1", "c2"}, []string{"g0", "g1"})
	var err error
	ds.X, err = NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatalf("dense: %v", err)
	}
	ds.Layers["spliced"], _ = NewDense(3, 2, []float64{10, 20, 30, 40, 50, 60})
	ds.Var["velocity_gamma"] = []float64{0.5, 2.0}
	ds.Obs["clusters"] = []string{"b", "a", "b"}
	return ds
}

func TestGeneIndex(t *testing.T) {
	ds := newTestDataset(t)
	if i, ok := ds.GeneIndex("g1"); !ok || i != 1 {
		t.Errorf("GeneIndex(g1) = %d, %v", i, ok)
	}
	if _, ok := ds.GeneIndex("nope"); ok {
		t.Error("missing gene reported present")
	}
	if !ds.HasGene("g0") || ds.HasGene("nope") {
		t.Error("HasGene mismatch")
	}
}

func TestHasLayerXSentinel(t *testing.T) {
	ds := newTestDataset(t)
	if !ds.HasLayer(LayerX) {
		t.Error("X sentinel should be present when X is set")
	}
	if ds.Layer(LayerX) != ds.X {
		t.Error("Layer(X) should resolve to the primary matrix")
	}
	ds.X = nil
	if ds.HasLayer(LayerX) {
		t.Error("X sentinel present without primary matrix")
	}
	if !ds.HasLayer("spliced") || ds.HasLayer("nope") {
		t.Error("named layer lookup mismatch")
	}
}

func TestGeneColumn(t *testing.T) {
	ds := newTestDataset(t)
	if got := ds.GeneColumn("spliced", "g1"); !reflect.DeepEqual(got, []float64{20, 40, 60}) {
		t.Errorf("GeneColumn = %v", got)
	}
	if ds.GeneColumn("nope", "g1") != nil {
		t.Error("missing layer should yield nil")
	}
	if ds.GeneColumn("spliced", "nope") != nil {
		t.Error("missing gene should yield nil")
	}
}

func TestVarParam(t *testing.T) {
	ds := newTestDataset(t)
	if got := ds.VarParam("g1", "velocity_gamma", 1); got != 2.0 {
		t.Errorf("VarParam = %v, want 2", got)
	}
	if got := ds.VarParam("g1", "missing_key", 7); got != 7 {
		t.Errorf("missing key fallback = %v, want 7", got)
	}
	if got := ds.VarParam("nope", "velocity_gamma", 7); got != 7 {
		t.Errorf("missing gene fallback = %v, want 7", got)
	}
}

func TestCategories(t *testing.T) {
	ds := newTestDataset(t)

	// Without declared categories: sorted unique observed values.
	if got := ds.Categories("clusters"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Categories = %v", got)
	}

	// Declared order wins.
	ds.ObsCategories["clusters"] = []string{"b", "a"}
	if got := ds.Categories("clusters"); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("declared Categories = %v", got)
	}

	if ds.Categories("nope") != nil {
		t.Error("missing obs key should yield nil")
	}
}

func TestGroupCells(t *testing.T) {
	ds := newTestDataset(t)
	if got := ds.GroupCells("clusters", "b"); !reflect.DeepEqual(got, []int{0, 2}) {
		t.Errorf("GroupCells = %v", got)
	}
	if got := ds.GroupCells("clusters", "nope"); got != nil {
		t.Errorf("missing group = %v, want nil", got)
	}
}
