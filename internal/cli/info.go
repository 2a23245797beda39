package cli

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/velopane/velopane/pkg/dataset"
	"github.com/velopane/velopane/pkg/dataset/h5ad"
)

// infoCommand creates the info command for inspecting a dataset.
func (c *CLI) infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info [dataset.h5ad]",
		Short: "Summarize a dataset's layers, annotations, and embeddings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args[0])
		},
	}
}

// runInfo loads the dataset and prints its plotting-relevant contents.
func runInfo(input string) error {
	ds, err := h5ad.Load(input)
	if err != nil {
		return err
	}

	fmt.Println(StyleTitle.Render(filepath.Base(input)))
	fmt.Println()

	printKeyValue("Cells", fmt.Sprintf("%d", ds.NumCells()))
	printKeyValue("Genes", fmt.Sprintf("%d", ds.NumGenes()))
	printKeyValue("Layers", joinSorted(matrixKeys(ds.Layers)))
	printKeyValue("Embeddings", joinSorted(matrixKeys(ds.Obsm)))
	printKeyValue("Graphs", joinSorted(matrixKeys(ds.Obsp)))
	printKeyValue("Var columns", joinSorted(varKeys(ds)))
	fmt.Println()

	obsKeys := make([]string, 0, len(ds.Obs))
	for k := range ds.Obs {
		obsKeys = append(obsKeys, k)
	}
	sort.Strings(obsKeys)
	for _, key := range obsKeys {
		cats := ds.Categories(key)
		label := fmt.Sprintf("%d groups", len(cats))
		if len(cats) <= 8 {
			label = strings.Join(cats, ", ")
		}
		printKeyValue("obs/"+key, label)
	}

	if velocityReady(ds) {
		fmt.Println()
		printSuccess("Velocity layers present, ready to plot")
	} else {
		fmt.Println()
		printWarning("No velocity layer found; run a velocity estimator first")
	}
	return nil
}

// velocityReady reports whether the dataset carries a velocity layer.
func velocityReady(ds *dataset.Dataset) bool {
	for name := range ds.Layers {
		if strings.HasPrefix(name, "velocity") && !strings.HasPrefix(name, "variance_") {
			return true
		}
	}
	return false
}

func matrixKeys(m map[string]*dataset.Matrix) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func varKeys(ds *dataset.Dataset) []string {
	keys := make([]string, 0, len(ds.Var))
	for k := range ds.Var {
		keys = append(keys, k)
	}
	return keys
}

func joinSorted(keys []string) string {
	if len(keys) == 0 {
		return "—"
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
