package retrieval

import (
	"math"
	"strings"
	"time"
)

// CosineSimilarity returns dot(a,b)/(|a|*|b|) clamped to [0,1]. Zero vectors
// score 0. Callers must check the lengths match.
func CosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return clamp01(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// JaccardSimilarity compares the lower-cased whitespace token sets of a and
// b. It is 0 when either set is empty.
func JaccardSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	inter := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			inter++
		}
	}

	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

// Recency is exp(-hours/decayHours) in [0,1]. Timestamps in the future score
// 1.
func Recency(now, t time.Time, decayHours float64) float64 {
	hours := now.Sub(t).Hours()
	if hours <= 0 {
		return 1
	}
	if decayHours <= 0 {
		return 0
	}
	return clamp01(math.Exp(-hours / decayHours))
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
