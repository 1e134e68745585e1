// Package env implements the episodic grid-world driver: sequential
// per-agent stepping, global-flag broadcast, judged consequences, and
// run-historic bookkeeping.
package env

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"pinocchio/reinforcement"
)

// CellType enumerates the three terrain kinds a text map can encode.
type CellType int

const (
	Plain CellType = iota
	Road
	Wall
)

// Symbols used by the text grid-map format: '#' walls, ' ' roads, '-'
// plain cells.
const (
	wallSymbol  = '#'
	roadSymbol  = ' '
	plainSymbol = '-'
)

func cellFromSymbol(r rune) CellType {
	switch r {
	case wallSymbol:
		return Wall
	case roadSymbol:
		return Road
	default:
		return Plain
	}
}

// LoadGrid parses a text map (one row per line, runes per the symbol
// table above) and returns the resulting cell grid plus its stable
// content hash, computed once so every StateKey in the run can reuse it.
func LoadGrid(r io.Reader) ([][]CellType, uint64, error) {
	scanner := bufio.NewScanner(r)
	var rows []string
	for scanner.Scan() {
		rows = append(rows, strings.TrimRight(scanner.Text(), " \t\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("env: reading grid: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("env: grid map is empty")
	}

	width := len(rows[0])
	grid := make([][]CellType, len(rows))
	for y, row := range rows {
		if len(row) != width {
			return nil, 0, fmt.Errorf("env: grid row %d has width %d, want %d", y, len(row), width)
		}
		cells := make([]CellType, width)
		for x, r := range row {
			cells[x] = cellFromSymbol(r)
		}
		grid[y] = cells
	}
	return grid, reinforcement.HashGrid(rows), nil
}

// LoadGridFile opens path and delegates to LoadGrid.
func LoadGridFile(path string) ([][]CellType, uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("env: opening grid file %q: %w", path, err)
	}
	defer f.Close()
	return LoadGrid(f)
}
