package recognizer

import "math"

// decodeCTC runs greedy CTC decoding over [T,C] logits laid out row-major.
// A character is emitted when the argmax class is non-blank and differs from
// the raw previous class index; a blank between two identical classes resets
// repeat suppression. Per-timestep confidence is the approximate softmax of
// the max logit, 1/Σexp(l−max).
func decodeCTC(logits []float32, seqLen, numClasses int, dict Dictionary) (string, []float32) {
	var text []rune
	var scores []float32

	prevIdx := 0
	for t := 0; t < seqLen; t++ {
		row := logits[t*numClasses : (t+1)*numClasses]

		maxIdx := 0
		maxVal := row[0]
		for c := 1; c < numClasses; c++ {
			if row[c] > maxVal {
				maxVal = row[c]
				maxIdx = c
			}
		}

		var sumExp float64
		for c := 0; c < numClasses; c++ {
			sumExp += math.Exp(float64(row[c] - maxVal))
		}
		confidence := float32(1.0 / sumExp)

		if maxIdx != 0 && maxIdx != prevIdx {
			if maxIdx < len(dict) {
				text = append(text, dict[maxIdx])
				scores = append(scores, confidence)
			}
		}
		prevIdx = maxIdx
	}
	return string(text), scores
}

// meanScore averages per-character confidences, 0.0 when nothing decoded.
func meanScore(scores []float32) float32 {
	if len(scores) == 0 {
		return 0.0
	}
	var sum float32
	for _, s := range scores {
		sum += s
	}
	return sum / float32(len(scores))
}
