package velocity

import (
	"errors"
	"reflect"
	"testing"

	"github.com/velopane/velopane/pkg/dataset"
)

// fakeRanker returns a canned ranking and counts invocations.
type fakeRanker struct {
	ranking *dataset.Ranking
	calls   int
}

func (f *fakeRanker) Rank(ds *dataset.Dataset, vkey, groupBy string, nGenes int) (*dataset.Ranking, error) {
	f.calls++
	return f.ranking, nil
}

func TestSelectGenesExplicit(t *testing.T) {
	ds := testDataset(t)

	tests := []struct {
		name  string
		genes []string
		want  []string
	}{
		{"present genes kept in order", []string{"Tubb5", "Actb"}, []string{"Tubb5", "Actb"}},
		{"missing genes dropped", []string{"Actb", "Nope", "Gapdh"}, []string{"Actb", "Gapdh"}},
		{"duplicates collapse to first occurrence", []string{"Actb", "Gapdh", "Actb"}, []string{"Actb", "Gapdh"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Options{Genes: tt.genes}
			got, err := SelectGenes(ds, &opts)
			if err != nil {
				t.Fatalf("SelectGenes: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectGenesNoPresentGene(t *testing.T) {
	ds := testDataset(t)
	opts := Options{Genes: []string{"Nope", "AlsoNope"}}
	if _, err := SelectGenes(ds, &opts); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("err = %v, want ErrNoSelection", err)
	}
}

func TestSelectGenesNoSelectionSource(t *testing.T) {
	ds := testDataset(t)
	opts := Options{}
	if _, err := SelectGenes(ds, &opts); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("err = %v, want ErrNoSelection", err)
	}
}

func TestSelectGenesRankedTopPerGroup(t *testing.T) {
	ds := testDataset(t)
	ranker := &fakeRanker{ranking: &dataset.Ranking{
		GroupBy: "clusters",
		Groups:  []string{"alpha", "beta"},
		Names: [][]string{
			{"Actb", "Gapdh"},
			{"Tubb5", "Actb"},
		},
	}}

	opts := Options{GroupBy: "clusters", Ranker: ranker}
	got, err := SelectGenes(ds, &opts)
	if err != nil {
		t.Fatalf("SelectGenes: %v", err)
	}
	if want := []string{"Actb", "Tubb5"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if ranker.calls != 1 {
		t.Errorf("ranker invoked %d times, want 1", ranker.calls)
	}

	// The ranking is cached on the dataset; a second call must not re-rank.
	if _, err := SelectGenes(ds, &opts); err != nil {
		t.Fatalf("SelectGenes (cached): %v", err)
	}
	if ranker.calls != 1 {
		t.Errorf("ranker invoked %d times after cached call, want 1", ranker.calls)
	}
}

func TestSelectGenesRankedGroupSubset(t *testing.T) {
	ds := testDataset(t)
	ds.Ranking = &dataset.Ranking{
		GroupBy: "clusters",
		Groups:  []string{"alpha", "beta"},
		Names: [][]string{
			{"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8", "a9"},
			{"b0", "b1", "b2", "b3", "b4", "b5", "b6", "b7", "b8", "b9"},
		},
	}

	// One matching group contributes its top 10.
	opts := Options{GroupBy: "clusters", Groups: []string{"alp"}}
	got, err := SelectGenes(ds, &opts)
	if err != nil {
		t.Fatalf("SelectGenes: %v", err)
	}
	if len(got) != 10 || got[0] != "a0" || got[9] != "a9" {
		t.Errorf("single group selection = %v", got)
	}

	// Two matching groups split the budget: floor(10/2) = 5 each.
	opts = Options{GroupBy: "clusters", Groups: []string{"alpha", "beta"}}
	got, err = SelectGenes(ds, &opts)
	if err != nil {
		t.Fatalf("SelectGenes: %v", err)
	}
	want := []string{"a0", "a1", "a2", "a3", "a4", "b0", "b1", "b2", "b3", "b4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSelectGenesRankedNoGroupMatches(t *testing.T) {
	ds := testDataset(t)
	ds.Ranking = &dataset.Ranking{
		GroupBy: "clusters",
		Groups:  []string{"alpha", "beta"},
		Names:   [][]string{{"Actb"}, {"Tubb5"}},
	}

	opts := Options{GroupBy: "clusters", Groups: []string{"gamma"}}
	if _, err := SelectGenes(ds, &opts); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("err = %v, want ErrNoSelection", err)
	}
}

func TestSelectGenesRankerRequired(t *testing.T) {
	ds := testDataset(t)
	opts := Options{GroupBy: "clusters"}
	if _, err := SelectGenes(ds, &opts); !errors.Is(err, ErrNoRanker) {
		t.Fatalf("err = %v, want ErrNoRanker", err)
	}
}

func TestSelectGenesStaleRankingRecomputed(t *testing.T) {
	ds := testDataset(t)
	ds.Ranking = &dataset.Ranking{GroupBy: "other", Groups: []string{"x"}, Names: [][]string{{"Actb"}}}
	ranker := &fakeRanker{ranking: &dataset.Ranking{
		GroupBy: "clusters",
		Groups:  []string{"alpha"},
		Names:   [][]string{{"Gapdh"}},
	}}

	opts := Options{GroupBy: "clusters", Ranker: ranker}
	got, err := SelectGenes(ds, &opts)
	if err != nil {
		t.Fatalf("SelectGenes: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"Gapdh"}) {
		t.Errorf("got %v, want [Gapdh]", got)
	}
	if ranker.calls != 1 {
		t.Errorf("ranker invoked %d times, want 1", ranker.calls)
	}
	if ds.Ranking.GroupBy != "clusters" {
		t.Errorf("cache not replaced: %q", ds.Ranking.GroupBy)
	}
}

func TestSelectGenesMissingGroupingFallsBack(t *testing.T) {
	ds := testDataset(t)
	opts := Options{GroupBy: "no_such_obs", Genes: []string{"Actb"}}
	got, err := SelectGenes(ds, &opts)
	if err != nil {
		t.Fatalf("SelectGenes: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"Actb"}) {
		t.Errorf("got %v, want [Actb]", got)
	}
}
