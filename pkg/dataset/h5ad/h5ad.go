// Package h5ad loads AnnData .h5ad files into a dataset.Dataset.
//
// AnnData stores an annotated expression matrix as an HDF5 file: the primary
// matrix under /X, layer variants under /layers, per-gene and per-cell
// annotation tables under /var and /obs, embeddings under /obsm, and cell
// graphs under /obsp. Matrices are either plain 2D datasets or CSR-encoded
// groups holding data/indices/indptr arrays plus a shape attribute.
//
// Only the pieces the plotting pipeline consumes are loaded; unknown groups
// and columns are skipped. A missing /X is an error, everything else is
// optional.
package h5ad

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/go-hdf5/hdf5"

	"github.com/velopane/velopane/pkg/dataset"
)

// indexAttr names the attribute holding an annotation table's index column.
const indexAttr = "_index"

// Load reads path into a Dataset.
func Load(path string) (*dataset.Dataset, error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	cells, err := tableIndex(f, "obs")
	if err != nil {
		return nil, err
	}
	genes, err := tableIndex(f, "var")
	if err != nil {
		return nil, err
	}

	ds := dataset.New(cells, genes)

	ds.X, err = readMatrix(f, "X", len(cells), len(genes))
	if err != nil {
		return nil, fmt.Errorf("read X: %w", err)
	}

	if err := readLayers(f, ds); err != nil {
		return nil, err
	}
	if err := readVar(f, ds); err != nil {
		return nil, err
	}
	if err := readObs(f, ds); err != nil {
		return nil, err
	}
	if err := readMapping(f, "obsm", ds.NumCells(), ds.Obsm); err != nil {
		return nil, err
	}
	if err := readObsp(f, ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// tableIndex reads the index column of the obs or var table.
func tableIndex(f *hdf5.File, table string) ([]string, error) {
	g, err := f.OpenGroup(table)
	if err != nil {
		return nil, fmt.Errorf("open /%s: %w", table, err)
	}
	column := indexAttr
	if attr := g.Attr(indexAttr); attr != nil {
		var name string
		if err := attr.Read(&name); err == nil && name != "" {
			column = name
		}
	}
	d, err := g.OpenDataset(column)
	if err != nil {
		return nil, fmt.Errorf("open /%s/%s: %w", table, column, err)
	}
	return d.ReadString()
}

// readMatrix loads a dense dataset or a CSR-encoded group at path.
func readMatrix(f *hdf5.File, path string, rows, cols int) (*dataset.Matrix, error) {
	if d, err := f.OpenDataset(path); err == nil {
		values, err := readFloats(d)
		if err != nil {
			return nil, err
		}
		shape := d.Shape()
		if len(shape) == 2 {
			rows, cols = int(shape[0]), int(shape[1])
		}
		return dataset.NewDense(rows, cols, values)
	}

	g, err := f.OpenGroup(path)
	if err != nil {
		return nil, fmt.Errorf("%s is neither dataset nor group: %w", path, err)
	}
	return readCSR(g, rows, cols)
}

// readCSR loads a sparse matrix group (data, indices, indptr, shape attr).
func readCSR(g *hdf5.Group, rows, cols int) (*dataset.Matrix, error) {
	if attr := g.Attr("shape"); attr != nil {
		var shape []int64
		if err := attr.Read(&shape); err == nil && len(shape) == 2 {
			rows, cols = int(shape[0]), int(shape[1])
		}
	}

	data, err := readFloatsAt(g, "data")
	if err != nil {
		return nil, err
	}
	indices, err := readIntsAt(g, "indices")
	if err != nil {
		return nil, err
	}
	indptr, err := readIntsAt(g, "indptr")
	if err != nil {
		return nil, err
	}
	return dataset.NewCSR(rows, cols, data, indices, indptr)
}

// readLayers loads every matrix under /layers.
func readLayers(f *hdf5.File, ds *dataset.Dataset) error {
	g, err := f.OpenGroup("layers")
	if err != nil {
		return nil // layers are optional
	}
	names, err := g.Members()
	if err != nil {
		return fmt.Errorf("list /layers: %w", err)
	}
	for _, name := range names {
		m, err := readMatrix(f, "layers/"+name, ds.NumCells(), ds.NumGenes())
		if err != nil {
			return fmt.Errorf("read layer %s: %w", name, err)
		}
		ds.Layers[name] = m
	}
	return nil
}

// readVar loads the float columns of /var (fitted model parameters).
func readVar(f *hdf5.File, ds *dataset.Dataset) error {
	g, err := f.OpenGroup("var")
	if err != nil {
		return nil
	}
	names, err := g.Members()
	if err != nil {
		return fmt.Errorf("list /var: %w", err)
	}
	for _, name := range names {
		d, err := g.OpenDataset(name)
		if err != nil {
			continue // categorical or nested column
		}
		values, err := readFloats(d)
		if err != nil || len(values) != ds.NumGenes() {
			continue
		}
		ds.Var[name] = values
	}
	return nil
}

// readObs loads the categorical columns of /obs. AnnData encodes them as
// groups holding a categories string array and per-cell integer codes.
func readObs(f *hdf5.File, ds *dataset.Dataset) error {
	g, err := f.OpenGroup("obs")
	if err != nil {
		return nil
	}
	names, err := g.Members()
	if err != nil {
		return fmt.Errorf("list /obs: %w", err)
	}
	index := indexAttr
	if attr := g.Attr(indexAttr); attr != nil {
		var name string
		if err := attr.Read(&name); err == nil && name != "" {
			index = name
		}
	}
	for _, name := range names {
		if name == index {
			continue // cell names, already loaded
		}
		col, err := g.OpenGroup(name)
		if err != nil {
			// Plain string columns are allowed too.
			if d, derr := g.OpenDataset(name); derr == nil {
				if values, serr := d.ReadString(); serr == nil && len(values) == ds.NumCells() {
					ds.Obs[name] = values
				}
			}
			continue
		}
		cats, err := readStringsAt(col, "categories")
		if err != nil {
			continue
		}
		codes, err := readIntsAt(col, "codes")
		if err != nil || len(codes) != ds.NumCells() {
			continue
		}
		values := make([]string, len(codes))
		for i, c := range codes {
			if c >= 0 && c < len(cats) {
				values[i] = cats[c]
			}
		}
		ds.Obs[name] = values
		ds.ObsCategories[name] = cats
	}
	return nil
}

// readMapping loads every matrix under /obsm into dst.
func readMapping(f *hdf5.File, path string, rows int, dst map[string]*dataset.Matrix) error {
	g, err := f.OpenGroup(path)
	if err != nil {
		return nil
	}
	names, err := g.Members()
	if err != nil {
		return fmt.Errorf("list /%s: %w", path, err)
	}
	for _, name := range names {
		m, err := readMatrix(f, path+"/"+name, rows, 0)
		if err != nil {
			continue
		}
		dst[name] = m
	}
	return nil
}

// readObsp loads the cell graphs under /obsp (e.g. connectivities).
func readObsp(f *hdf5.File, ds *dataset.Dataset) error {
	g, err := f.OpenGroup("obsp")
	if err != nil {
		return nil
	}
	names, err := g.Members()
	if err != nil {
		return fmt.Errorf("list /obsp: %w", err)
	}
	for _, name := range names {
		m, err := readMatrix(f, "obsp/"+name, ds.NumCells(), ds.NumCells())
		if err != nil {
			return fmt.Errorf("read obsp/%s: %w", name, err)
		}
		ds.Obsp[name] = m
	}
	return nil
}

// readFloats reads a float dataset of any supported width as float64.
func readFloats(d *hdf5.Dataset) ([]float64, error) {
	if values, err := d.ReadFloat64(); err == nil {
		return values, nil
	}
	values32, err := d.ReadFloat32()
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(values32))
	for i, v := range values32 {
		out[i] = float64(v)
	}
	return out, nil
}

// readFloatsAt reads a named float dataset inside a group.
func readFloatsAt(g *hdf5.Group, name string) ([]float64, error) {
	d, err := g.OpenDataset(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", strings.TrimPrefix(g.Path()+"/"+name, "/"), err)
	}
	return readFloats(d)
}

// readIntsAt reads a named integer dataset inside a group as int.
func readIntsAt(g *hdf5.Group, name string) ([]int, error) {
	d, err := g.OpenDataset(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", strings.TrimPrefix(g.Path()+"/"+name, "/"), err)
	}
	if values, err := d.ReadInt64(); err == nil {
		out := make([]int, len(values))
		for i, v := range values {
			out[i] = int(v)
		}
		return out, nil
	}
	values, err := d.ReadInt32()
	if err != nil {
		return nil, err
	}
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = int(v)
	}
	return out, nil
}

// readStringsAt reads a named string dataset inside a group.
func readStringsAt(g *hdf5.Group, name string) ([]string, error) {
	d, err := g.OpenDataset(name)
	if err != nil {
		return nil, err
	}
	return d.ReadString()
}
