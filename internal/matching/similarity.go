// internal/matching/similarity.go
package matching

import "math"

// Cosine computes cosine similarity between two vectors.
// Defined as 0 when lengths differ, either vector is empty, or either
// vector has zero magnitude. Never panics.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Percentage converts a similarity score to an integer percentage,
// rounded and clamped to [0,100].
func Percentage(sim float64) int {
	pct := int(math.Round(sim * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
