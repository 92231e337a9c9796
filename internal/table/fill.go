package table

import (
	"sort"
	"strings"
)

// TextFragment is a recognized piece of text anchored at its center point,
// used to populate cell contents.
type TextFragment struct {
	X, Y float32 // center in the same coordinate space as the cell bboxes
	Text string
}

// FillCells assigns text fragments to cells by center containment. Fragments
// landing in the same cell are joined with spaces in top-to-bottom,
// left-to-right order. Fragments outside every cell bbox are ignored.
func (s *Structure) FillCells(fragments []TextFragment) {
	ordered := make([]TextFragment, len(fragments))
	copy(ordered, fragments)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Y != ordered[j].Y {
			return ordered[i].Y < ordered[j].Y
		}
		return ordered[i].X < ordered[j].X
	})

	contents := make([][]string, len(s.Cells))
	for _, frag := range ordered {
		if frag.Text == "" {
			continue
		}
		for i := range s.Cells {
			if s.Cells[i].ContainsPoint(frag.X, frag.Y) {
				contents[i] = append(contents[i], frag.Text)
				break
			}
		}
	}
	for i := range s.Cells {
		if len(contents[i]) > 0 {
			s.Cells[i].Content = strings.Join(contents[i], " ")
		}
	}
}
