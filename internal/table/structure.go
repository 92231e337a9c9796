// Package table recognizes table structure (rows, columns, spanning cells)
// from table region images using a SLANet-style model.
package table

import (
	"fmt"
	"strings"
)

// Cell is one logical table cell.
type Cell struct {
	Row     int
	Col     int
	RowSpan int
	ColSpan int
	// Bounding box in original image coordinates.
	X1, Y1, X2, Y2 float32
	// Content is filled by OCR separately, see FillCells.
	Content    string
	Confidence float32
}

// IsRowSpanning reports whether the cell covers more than one row.
func (c Cell) IsRowSpanning() bool { return c.RowSpan > 1 }

// IsColSpanning reports whether the cell covers more than one column.
func (c Cell) IsColSpanning() bool { return c.ColSpan > 1 }

// Area returns the bbox area.
func (c Cell) Area() float32 { return (c.X2 - c.X1) * (c.Y2 - c.Y1) }

// ContainsPoint reports whether (x,y) lies within the cell bbox, inclusive.
func (c Cell) ContainsPoint(x, y float32) bool {
	return x >= c.X1 && x <= c.X2 && y >= c.Y1 && y <= c.Y2
}

// Structure is a recognized table layout.
type Structure struct {
	NumRows int
	NumCols int
	Cells   []Cell
	// Bounding box of the whole table in original image coordinates.
	X1, Y1, X2, Y2 float32
	Confidence     float32
	// Kind is the rendering style, set when a table classifier ran.
	Kind Type
}

// Row returns the cells whose anchor lies in the given row.
func (s *Structure) Row(row int) []Cell {
	var out []Cell
	for _, c := range s.Cells {
		if c.Row == row {
			out = append(out, c)
		}
	}
	return out
}

// Column returns the cells whose anchor lies in the given column.
func (s *Structure) Column(col int) []Cell {
	var out []Cell
	for _, c := range s.Cells {
		if c.Col == col {
			out = append(out, c)
		}
	}
	return out
}

// CellAt returns the cell covering (row, col), including spanned positions.
func (s *Structure) CellAt(row, col int) (Cell, bool) {
	for _, c := range s.Cells {
		if row >= c.Row && row < c.Row+c.RowSpan && col >= c.Col && col < c.Col+c.ColSpan {
			return c, true
		}
	}
	return Cell{}, false
}

// Header returns the first row's cells.
func (s *Structure) Header() []Cell { return s.Row(0) }

// DataRows returns all rows after the header.
func (s *Structure) DataRows() [][]Cell {
	out := make([][]Cell, 0, max(s.NumRows-1, 0))
	for r := 1; r < s.NumRows; r++ {
		out = append(out, s.Row(r))
	}
	return out
}

// AsGrid expands the cells into a NumRows x NumCols grid where every position
// covered by a spanning cell points at that cell's index in Cells. Uncovered
// positions hold -1.
func (s *Structure) AsGrid() [][]int {
	grid := make([][]int, s.NumRows)
	for r := range grid {
		grid[r] = make([]int, s.NumCols)
		for c := range grid[r] {
			grid[r][c] = -1
		}
	}
	for i, cell := range s.Cells {
		for r := cell.Row; r < min(cell.Row+cell.RowSpan, s.NumRows); r++ {
			for c := cell.Col; c < min(cell.Col+cell.ColSpan, s.NumCols); c++ {
				grid[r][c] = i
			}
		}
	}
	return grid
}

// ToHTML renders the structure as an HTML table. The first row becomes header
// cells; rowspan/colspan attributes appear only when greater than one.
func (s *Structure) ToHTML() string {
	var b strings.Builder
	b.WriteString("<table>\n")

	for row := 0; row < s.NumRows; row++ {
		b.WriteString("  <tr>\n")
		col := 0
		for col < s.NumCols {
			cell, ok := s.anchorAt(row, col)
			if !ok {
				col++ // covered by a spanning cell from above
				continue
			}
			tag := "td"
			if row == 0 {
				tag = "th"
			}
			var attrs string
			if cell.RowSpan > 1 {
				attrs += fmt.Sprintf(" rowspan=%q", fmt.Sprint(cell.RowSpan))
			}
			if cell.ColSpan > 1 {
				attrs += fmt.Sprintf(" colspan=%q", fmt.Sprint(cell.ColSpan))
			}
			fmt.Fprintf(&b, "    <%s%s>%s</%s>\n", tag, attrs, cell.Content, tag)
			col += cell.ColSpan
		}
		b.WriteString("  </tr>\n")
	}

	b.WriteString("</table>")
	return b.String()
}

func (s *Structure) anchorAt(row, col int) (Cell, bool) {
	for _, c := range s.Cells {
		if c.Row == row && c.Col == col {
			return c, true
		}
	}
	return Cell{}, false
}

// normalize grows NumRows/NumCols so every cell's span fits inside the grid.
func (s *Structure) normalize() {
	for _, c := range s.Cells {
		if c.Row+c.RowSpan > s.NumRows {
			s.NumRows = c.Row + c.RowSpan
		}
		if c.Col+c.ColSpan > s.NumCols {
			s.NumCols = c.Col + c.ColSpan
		}
	}
	if s.NumRows < 1 {
		s.NumRows = 1
	}
	if s.NumCols < 1 {
		s.NumCols = 1
	}
}
