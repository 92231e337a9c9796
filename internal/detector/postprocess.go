package detector

import (
	"github.com/fakturo/glyph/internal/preprocess"
	"github.com/fakturo/glyph/internal/utils"
)

// minComponentPixels is the smallest connected component treated as text.
const minComponentPixels = 10

type component struct {
	minX, minY int
	maxX, maxY int
	probSum    float64
	count      int
}

// decodeBoxes turns the probability map into text boxes in original-image
// coordinates: binarize, gather connected components, score, expand, rescale.
func (d *Detector) decodeBoxes(prob []float32, w, h int, input *preprocess.DetectionInput) ([]utils.Quad, []float32) {
	comps := d.connectedComponents(prob, w, h)

	boxes := make([]utils.Quad, 0, len(comps))
	scores := make([]float32, 0, len(comps))
	for _, c := range comps {
		if c.count < minComponentPixels {
			continue
		}
		score := float32(c.probSum / float64(c.count))
		if score < d.config.BoxThresh {
			continue
		}

		x1 := float64(c.minX)
		y1 := float64(c.minY)
		x2 := float64(c.maxX + 1)
		y2 := float64(c.maxY + 1)

		// Symmetric unclip expansion around the tight bounding box.
		grow := (d.config.UnclipRatio - 1) / 2
		dx := grow * (x2 - x1)
		dy := grow * (y2 - y1)
		x1 -= dx
		y1 -= dy
		x2 += dx
		y2 += dy
		if x1 < 0 {
			x1 = 0
		}
		if y1 < 0 {
			y1 = 0
		}

		// Map from network coordinates back to the original image.
		x1 /= input.ScaleX
		x2 /= input.ScaleX
		y1 /= input.ScaleY
		y2 /= input.ScaleY

		box := utils.NewBox(x1, y1, x2, y2).Clip(float64(input.OriginalWidth), float64(input.OriginalHeight))
		if box.Width() <= 0 || box.Height() <= 0 {
			continue
		}
		boxes = append(boxes, utils.QuadFromBox(box))
		scores = append(scores, score)
	}
	return boxes, scores
}

// connectedComponents flood-fills the binarized map with 4-connectivity,
// accumulating per-component bounds and probability mass.
func (d *Detector) connectedComponents(prob []float32, w, h int) []component {
	visited := make([]bool, len(prob))
	var comps []component
	var stack []int

	for start := range prob {
		if visited[start] || prob[start] < d.config.Thresh {
			continue
		}

		c := component{minX: w, minY: h, maxX: -1, maxY: -1}
		stack = append(stack[:0], start)
		visited[start] = true
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			x := idx % w
			y := idx / w
			if x < c.minX {
				c.minX = x
			}
			if x > c.maxX {
				c.maxX = x
			}
			if y < c.minY {
				c.minY = y
			}
			if y > c.maxY {
				c.maxY = y
			}
			c.probSum += float64(prob[idx])
			c.count++

			if x > 0 && !visited[idx-1] && prob[idx-1] >= d.config.Thresh {
				visited[idx-1] = true
				stack = append(stack, idx-1)
			}
			if x < w-1 && !visited[idx+1] && prob[idx+1] >= d.config.Thresh {
				visited[idx+1] = true
				stack = append(stack, idx+1)
			}
			if y > 0 && !visited[idx-w] && prob[idx-w] >= d.config.Thresh {
				visited[idx-w] = true
				stack = append(stack, idx-w)
			}
			if y < h-1 && !visited[idx+w] && prob[idx+w] >= d.config.Thresh {
				visited[idx+w] = true
				stack = append(stack, idx+w)
			}
		}
		comps = append(comps, c)
	}
	return comps
}
