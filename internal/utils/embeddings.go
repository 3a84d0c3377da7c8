// Package utils holds vector helpers for knowledge-base retrieval.
package utils

import (
	"errors"
	"math"
)

var (
	ErrEmptyVector       = errors.New("vectors cannot be empty")
	ErrDimensionMismatch = errors.New("vectors must have the same dimension")
)

func dotProduct(vec1, vec2 []float32) float32 {
	var product float32
	for i := range vec1 {
		product += vec1[i] * vec2[i]
	}
	return product
}

// magnitude returns the L2 norm of vec.
func magnitude(vec []float32) float32 {
	var sumOfSquares float32
	for _, val := range vec {
		sumOfSquares += val * val
	}
	return float32(math.Sqrt(float64(sumOfSquares)))
}

// CosineSimilarity returns 0 when either vector has zero magnitude.
func CosineSimilarity(vec1, vec2 []float32) (float32, error) {
	if len(vec1) == 0 || len(vec2) == 0 {
		return 0, ErrEmptyVector
	}
	if len(vec1) != len(vec2) {
		return 0, ErrDimensionMismatch
	}
	mag1, mag2 := magnitude(vec1), magnitude(vec2)
	if mag1 == 0 || mag2 == 0 {
		return 0, nil
	}
	return dotProduct(vec1, vec2) / (mag1 * mag2), nil
}
