// Package tsplib reads problem instances in a subset of the TSPLIB95
// format: EUC_2D instances with a NODE_COORD_SECTION and EXPLICIT
// FULL_MATRIX instances with an EDGE_WEIGHT_SECTION. Distances stay
// real-valued; the nearest-integer rounding rule some TSPLIB solvers apply
// is not.
package tsplib

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/copyleftdev/TRVLR/internal/tsp"
)

// Instance is a parsed TSPLIB problem. Exactly one of Coords and Matrix is
// populated.
type Instance struct {
	Name      string
	Comment   string
	Dimension int
	// Coords holds the city coordinates of a EUC_2D instance, indexed
	// from 0.
	Coords [][2]float64
	// Matrix holds the explicit distances of a FULL_MATRIX instance.
	Matrix [][]float64
}

// Model converts the instance into a distance model.
func (in *Instance) Model() (*tsp.Model, error) {
	if in.Matrix != nil {
		return tsp.NewModelFromMatrix(in.Matrix)
	}
	return tsp.NewModel(in.Coords)
}

// Load reads and parses the TSPLIB file at path.
func Load(path string) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads one instance from r. Header keys it does not know are
// skipped; an unsupported problem type, edge weight encoding, or section
// fails with ErrInvalidInstance.
func Parse(r io.Reader) (*Instance, error) {
	in := &Instance{Dimension: -1}
	var weightType, weightFormat string

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line == "EOF" {
			break
		}

		if key, value, ok := strings.Cut(line, ":"); ok {
			key = strings.TrimSpace(key)
			value = strings.TrimSpace(value)
			switch key {
			case "NAME":
				in.Name = value
			case "COMMENT":
				in.Comment = value
			case "TYPE":
				if value != "TSP" {
					return nil, tsp.NewErrorf(tsp.ErrInvalidInstance, "unsupported problem type %q", value).
						WithOperation("tsplib.Parse")
				}
			case "DIMENSION":
				d, err := strconv.Atoi(value)
				if err != nil {
					return nil, tsp.WrapError(tsp.ErrInvalidInstance, err, "bad DIMENSION").
						WithOperation("tsplib.Parse")
				}
				in.Dimension = d
			case "EDGE_WEIGHT_TYPE":
				weightType = value
			case "EDGE_WEIGHT_FORMAT":
				weightFormat = value
			}
			continue
		}

		switch line {
		case "NODE_COORD_SECTION":
			if err := checkDimension(in); err != nil {
				return nil, err
			}
			if weightType != "" && weightType != "EUC_2D" {
				return nil, tsp.NewErrorf(tsp.ErrInvalidInstance, "unsupported edge weight type %q for coordinates", weightType).
					WithOperation("tsplib.Parse")
			}
			if err := parseCoords(sc, in); err != nil {
				return nil, err
			}
		case "EDGE_WEIGHT_SECTION":
			if err := checkDimension(in); err != nil {
				return nil, err
			}
			if weightType != "EXPLICIT" {
				return nil, tsp.NewErrorf(tsp.ErrInvalidInstance, "edge weight section needs EDGE_WEIGHT_TYPE EXPLICIT, got %q", weightType).
					WithOperation("tsplib.Parse")
			}
			if weightFormat != "FULL_MATRIX" {
				return nil, tsp.NewErrorf(tsp.ErrInvalidInstance, "unsupported edge weight format %q", weightFormat).
					WithOperation("tsplib.Parse")
			}
			if err := parseMatrix(sc, in); err != nil {
				return nil, err
			}
		default:
			return nil, tsp.NewErrorf(tsp.ErrInvalidInstance, "unsupported section %q", line).
				WithOperation("tsplib.Parse")
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if in.Coords == nil && in.Matrix == nil {
		return nil, tsp.NewError(tsp.ErrInvalidInstance, "no data section").
			WithOperation("tsplib.Parse")
	}
	return in, nil
}

func checkDimension(in *Instance) error {
	if in.Dimension < 0 {
		return tsp.NewError(tsp.ErrInvalidInstance, "missing DIMENSION").
			WithOperation("tsplib.Parse")
	}
	if in.Dimension == 0 {
		return tsp.NewError(tsp.ErrEmptyInstance, "DIMENSION is zero").
			WithOperation("tsplib.Parse")
	}
	return nil
}

// parseCoords reads Dimension node lines of the form "id x y" with ids
// counted from 1.
func parseCoords(sc *bufio.Scanner, in *Instance) error {
	n := in.Dimension
	coords := make([][2]float64, n)
	seen := make([]bool, n)
	for read := 0; read < n; read++ {
		if !sc.Scan() {
			return tsp.NewErrorf(tsp.ErrInvalidInstance, "node section truncated after %d of %d cities", read, n).
				WithOperation("tsplib.Parse")
		}
		fields := strings.Fields(strings.TrimSpace(sc.Text()))
		if len(fields) != 3 {
			return tsp.NewErrorf(tsp.ErrInvalidInstance, "node line %q: want id x y", sc.Text()).
				WithOperation("tsplib.Parse")
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil || id < 1 || id > n {
			return tsp.NewErrorf(tsp.ErrInvalidInstance, "node id %q outside [1,%d]", fields[0], n).
				WithOperation("tsplib.Parse")
		}
		if seen[id-1] {
			return tsp.NewErrorf(tsp.ErrInvalidInstance, "node %d listed twice", id).
				WithOperation("tsplib.Parse")
		}
		x, errX := strconv.ParseFloat(fields[1], 64)
		y, errY := strconv.ParseFloat(fields[2], 64)
		if errX != nil || errY != nil {
			return tsp.NewErrorf(tsp.ErrInvalidInstance, "node %d has bad coordinates %q %q", id, fields[1], fields[2]).
				WithOperation("tsplib.Parse")
		}
		coords[id-1] = [2]float64{x, y}
		seen[id-1] = true
	}
	in.Coords = coords
	return nil
}

// parseMatrix reads Dimension*Dimension whitespace-separated weights,
// however they are wrapped across lines.
func parseMatrix(sc *bufio.Scanner, in *Instance) error {
	n := in.Dimension
	values := make([]float64, 0, n*n)
	for len(values) < n*n && sc.Scan() {
		for _, field := range strings.Fields(sc.Text()) {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return tsp.NewErrorf(tsp.ErrInvalidInstance, "bad edge weight %q", field).
					WithOperation("tsplib.Parse")
			}
			values = append(values, v)
		}
	}
	if len(values) != n*n {
		return tsp.NewErrorf(tsp.ErrInvalidInstance, "edge weight section has %d values, want %d", len(values), n*n).
			WithOperation("tsplib.Parse")
	}
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = values[i*n : (i+1)*n]
	}
	in.Matrix = matrix
	return nil
}
