package mock

import (
	"github.com/fakturo/glyph/internal/inference"
)

// Rect is a half-open pixel rectangle painted onto a mock probability map.
type Rect struct {
	X1, Y1, X2, Y2 int
}

// ProbabilityMap fills [1,1,h,w] with background and paints rects at value.
// Rectangle bounds are half-open and clipped to the map.
func ProbabilityMap(w, h int, background, value float32, rects ...Rect) inference.NamedTensor {
	data := make([]float32, w*h)
	for i := range data {
		data[i] = background
	}
	for _, r := range rects {
		x1, y1, x2, y2 := r.X1, r.Y1, r.X2, r.Y2
		if x1 < 0 {
			x1 = 0
		}
		if y1 < 0 {
			y1 = 0
		}
		if x2 > w {
			x2 = w
		}
		if y2 > h {
			y2 = h
		}
		for y := y1; y < y2; y++ {
			for x := x1; x < x2; x++ {
				data[y*w+x] = value
			}
		}
	}
	t, err := inference.NewFloat32(data, 1, 1, int64(h), int64(w))
	if err != nil {
		panic(err)
	}
	return inference.NamedTensor{Name: "sigmoid_0.tmp_0", Tensor: t}
}

// CTCLogits builds recognition logits of shape [1,T,C] where each timestep's
// argmax is the class given in classes. The chosen class gets hi, all others
// lo, so the approximate softmax confidence is close to 1.
func CTCLogits(numClasses int, hi, lo float32, classes ...int) inference.NamedTensor {
	T := len(classes)
	data := make([]float32, T*numClasses)
	for t, cls := range classes {
		for c := range numClasses {
			v := lo
			if c == cls {
				v = hi
			}
			data[t*numClasses+c] = v
		}
	}
	tensor, err := inference.NewFloat32(data, 1, int64(T), int64(numClasses))
	if err != nil {
		panic(err)
	}
	return inference.NamedTensor{Name: "softmax_0.tmp_0", Tensor: tensor}
}

// ClassScores builds a [1,n] score vector for classifier outputs.
func ClassScores(scores ...float32) inference.NamedTensor {
	data := make([]float32, len(scores))
	copy(data, scores)
	t, err := inference.NewFloat32(data, 1, int64(len(scores)))
	if err != nil {
		panic(err)
	}
	return inference.NamedTensor{Name: "save_infer_model/scale_0.tmp_0", Tensor: t}
}

// LayoutRow is one detection row (class, score, x1, y1, x2, y2).
type LayoutRow struct {
	Class  int
	Score  float32
	X1, Y1 float32
	X2, Y2 float32
}

// LayoutDetections builds a layout output of shape [n,6]. Set batched to emit
// the [1,n,6] variant instead.
func LayoutDetections(batched bool, rows ...LayoutRow) inference.NamedTensor {
	data := make([]float32, 0, len(rows)*6)
	for _, r := range rows {
		data = append(data, float32(r.Class), r.Score, r.X1, r.Y1, r.X2, r.Y2)
	}
	var (
		t   inference.Tensor
		err error
	)
	if batched {
		t, err = inference.NewFloat32(data, 1, int64(len(rows)), 6)
	} else {
		t, err = inference.NewFloat32(data, int64(len(rows)), 6)
	}
	if err != nil {
		panic(err)
	}
	return inference.NamedTensor{Name: "multiclass_nms3_0.tmp_0", Tensor: t}
}

// TableTokens builds a structure token stream of shape [1,T] as int64 indices.
func TableTokens(tokens ...int64) inference.NamedTensor {
	data := make([]int64, len(tokens))
	copy(data, tokens)
	t, err := inference.NewInt64(data, 1, int64(len(tokens)))
	if err != nil {
		panic(err)
	}
	return inference.NamedTensor{Name: "structure_probs", Tensor: t}
}

// TableCellBoxes builds the parallel per-cell bbox tensor of shape [1,n,4].
func TableCellBoxes(boxes ...[4]float32) inference.NamedTensor {
	data := make([]float32, 0, len(boxes)*4)
	for _, b := range boxes {
		data = append(data, b[0], b[1], b[2], b[3])
	}
	t, err := inference.NewFloat32(data, 1, int64(len(boxes)), 4)
	if err != nil {
		panic(err)
	}
	return inference.NamedTensor{Name: "loc_preds", Tensor: t}
}
