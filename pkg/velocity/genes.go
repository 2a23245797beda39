package velocity

import (
	"fmt"
	"strings"

	"github.com/velopane/velopane/pkg/dataset"
)

// SelectGenes resolves the ordered, duplicate-free gene set to plot.
//
// When a grouping annotation is configured (and exists on the dataset), the
// ranking collaborator supplies per-group candidate lists: without a group
// subset the top candidate of every group is taken; with a subset of m
// matching groups, each contributes its top floor(10/m) candidates. Group
// matching is substring containment of any requested token in the group
// label.
//
// Otherwise the explicit gene list is filtered to dataset-present names.
// The result preserves first-occurrence order.
func SelectGenes(ds *dataset.Dataset, opts *Options) ([]string, error) {
	var names []string

	switch {
	case opts.GroupBy != "" && len(ds.Obs[opts.GroupBy]) > 0:
		ranked, err := rankedNames(ds, opts)
		if err != nil {
			return nil, err
		}
		if len(opts.Groups) == 0 {
			for _, group := range ranked.Names {
				if len(group) > 0 {
					names = append(names, group[0])
				}
			}
		} else {
			var matched []int
			for i, label := range ranked.Groups {
				if matchesAny(label, opts.Groups) {
					matched = append(matched, i)
				}
			}
			if len(matched) == 0 {
				return nil, fmt.Errorf("%w: no group matches %v", ErrNoSelection, opts.Groups)
			}
			k := rankTopGenes / len(matched)
			for _, i := range matched {
				group := ranked.Names[i]
				if k < len(group) {
					group = group[:k]
				}
				names = append(names, group...)
			}
		}

	case len(opts.Genes) > 0:
		for _, name := range opts.Genes {
			if ds.HasGene(name) {
				names = append(names, name)
			}
		}

	default:
		return nil, ErrNoSelection
	}

	names = uniqueStable(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no requested gene is present in the dataset", ErrNoSelection)
	}
	return names, nil
}

// rankedNames returns the cached gene ranking, invoking the ranking
// collaborator only when the cache is missing or was produced for a
// different grouping.
func rankedNames(ds *dataset.Dataset, opts *Options) (*dataset.Ranking, error) {
	if ds.Ranking != nil && ds.Ranking.GroupBy == opts.GroupBy {
		return ds.Ranking, nil
	}
	if opts.Ranker == nil {
		return nil, ErrNoRanker
	}
	ranking, err := opts.Ranker.Rank(ds, opts.VKey, opts.GroupBy, rankTopGenes)
	if err != nil {
		return nil, fmt.Errorf("rank genes by %q: %w", opts.GroupBy, err)
	}
	ds.Ranking = ranking
	return ranking, nil
}

// matchesAny reports whether any requested token occurs in the group label.
func matchesAny(label string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(label, t) {
			return true
		}
	}
	return false
}

// uniqueStable removes duplicates preserving first-occurrence order.
func uniqueStable(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
