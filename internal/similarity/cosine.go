package similarity

import "math"

// Cosine computes the cosine similarity between two vectors of equal length.
// Returns 0 when either vector has zero norm: a zero vector carries no angular
// information, and surfacing NaN to callers would be operationally useless.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) {
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

// CosineWithNorms computes cosine similarity using precomputed L2 norms,
// avoiding the two norm accumulations on the hot path.
func CosineWithNorms(a, b []float32, normA, normB float64) float32 {
	if len(a) != len(b) || normA == 0 || normB == 0 {
		return 0
	}

	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}

	return float32(dot / (normA * normB))
}

// Norm computes the L2 norm of a vector.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
