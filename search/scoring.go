package search

import "math"

// cosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 for mismatched lengths or zero vectors, so chunks without a
// usable embedding simply contribute no vector signal.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// minMaxNormalize rescales scores into [0,1] across the candidate set.
// A constant signal normalizes to zero so it cannot dominate fusion.
func minMaxNormalize(scores []float32) []float32 {
	if len(scores) == 0 {
		return scores
	}

	min, max := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}

	normalized := make([]float32, len(scores))
	if max == min {
		return normalized
	}
	for i, s := range scores {
		normalized[i] = (s - min) / (max - min)
	}
	return normalized
}
