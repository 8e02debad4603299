package scoring

import "math"

// Cosine returns the cosine similarity of two vectors. Vectors of
// different lengths are compared over their shared prefix, which keeps
// old embeddings usable after an embedding model change. A zero-length
// or zero-magnitude operand compares as 0.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, magA, magB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
