// Package tileset talks to a tile-set viewer catalogue: a tree of
// directories whose leaves are tile sets, each a grid of map ids.
package tileset

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Listing is the content of one catalogue directory
type Listing struct {
	Directories []string `json:"directories"`
	TileSets    []string `json:"tilesets"`
}

// UsageHints carries rendering advice for a tile set
type UsageHints struct {
	HasTransparency bool `json:"has_transparency"`
}

// Metadata describes one tile set. Geometry holds map ids row by row.
type Metadata struct {
	Name        string            `json:"name"`
	Geometry    [][]int           `json:"geometry"`
	Description []string          `json:"desc"`
	Links       map[string]string `json:"links"`
	UsageHints  UsageHints        `json:"usage_hints"`
}

// Source is anything that can browse the catalogue
type Source interface {
	// List returns the directory at prefix, "" being the root
	List(ctx context.Context, prefix string) (*Listing, error)
	// Metadata returns the tile set at path
	Metadata(ctx context.Context, path string) (*Metadata, error)
}

// ErrBadGeometry is returned by Tiles for empty or ragged grids
var ErrBadGeometry = errors.New("tile set geometry is not a rectangle")

// NormalizePath strips leading and trailing slashes
func NormalizePath(path string) string {
	return strings.Trim(path, "/")
}

// Tiles flattens the geometry row-major and reports its size
func Tiles(meta *Metadata) (ids []int, width, height int, err error) {
	height = len(meta.Geometry)
	if height == 0 || len(meta.Geometry[0]) == 0 {
		return nil, 0, 0, fmt.Errorf("%s: %w", meta.Name, ErrBadGeometry)
	}
	width = len(meta.Geometry[0])
	ids = make([]int, 0, width*height)
	for _, row := range meta.Geometry {
		if len(row) != width {
			return nil, 0, 0, fmt.Errorf("%s: %w", meta.Name, ErrBadGeometry)
		}
		ids = append(ids, row...)
	}
	return ids, width, height, nil
}
