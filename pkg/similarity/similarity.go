package similarity

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrEmptyCandidates   = errors.New("no candidate vectors")
)

// Match is the position of a candidate and its cosine similarity to the query.
type Match struct {
	Index      int
	Similarity float64
}

func checkDimensions(a, b []float32) error {
	if len(a) != len(b) {
		return fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}
	return nil
}

func magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Normalize returns the unit-length version of v. A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	mag := magnitude(v)
	if mag == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, x := range v {
		normalized[i] = float32(float64(x) / mag)
	}
	return normalized
}

// CosineSimilarity returns a value in [-1, 1], or 0 when either vector has zero magnitude.
func CosineSimilarity(a, b []float32) (float64, error) {
	if err := checkDimensions(a, b); err != nil {
		return 0, err
	}

	var dot, magA, magB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		magA += x * x
		magB += y * y
	}
	if magA == 0 || magB == 0 {
		return 0, nil
	}

	sim := dot / (math.Sqrt(magA) * math.Sqrt(magB))
	// Rounding can push the ratio slightly outside the valid range.
	return math.Max(-1, math.Min(1, sim)), nil
}

func EuclideanDistance(a, b []float32) (float64, error) {
	if err := checkDimensions(a, b); err != nil {
		return 0, err
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

func ManhattanDistance(a, b []float32) (float64, error) {
	if err := checkDimensions(a, b); err != nil {
		return 0, err
	}

	var sum float64
	for i := range a {
		sum += math.Abs(float64(a[i]) - float64(b[i]))
	}
	return sum, nil
}

// FindMostSimilar returns the best cosine match. Ties keep the earliest candidate.
func FindMostSimilar(query []float32, candidates [][]float32) (Match, error) {
	if len(candidates) == 0 {
		return Match{}, ErrEmptyCandidates
	}

	best := Match{Index: -1}
	for i, c := range candidates {
		sim, err := CosineSimilarity(query, c)
		if err != nil {
			return Match{}, fmt.Errorf("candidate %d: %w", i, err)
		}
		if best.Index == -1 || sim > best.Similarity {
			best = Match{Index: i, Similarity: sim}
		}
	}
	return best, nil
}

// FindTopKSimilar returns at most k matches ordered by descending similarity.
// Equal scores keep candidate order.
func FindTopKSimilar(query []float32, candidates [][]float32, k int) ([]Match, error) {
	if k <= 0 {
		return []Match{}, nil
	}

	matches := make([]Match, 0, len(candidates))
	for i, c := range candidates {
		sim, err := CosineSimilarity(query, c)
		if err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i, err)
		}
		matches = append(matches, Match{Index: i, Similarity: sim})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}
