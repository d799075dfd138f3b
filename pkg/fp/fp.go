// Package fp provides basic generic functional style functions
package fp

import (
	"cmp"
	"slices"

	"golang.org/x/exp/constraints"
)

type Number interface {
	constraints.Integer | constraints.Float
}

// Uniq will return a unique list of value from the input list, keeping the first occurrence order.
func Uniq[T comparable](input []T) []T {
	var output []T

	seen := make(map[T]bool, len(input))

	for _, value := range input {
		if !seen[value] {
			seen[value] = true
			output = append(output, value)
		}
	}

	return output
}

func Filter[T any](input []T, keep func(T) bool) []T {
	var output []T

	for _, value := range input {
		if keep(value) {
			output = append(output, value)
		}
	}

	return output
}

func Sum[T Number](numbers ...T) T { //nolint:ireturn
	var sum T

	for _, number := range numbers {
		sum += number
	}

	return sum
}

// Avg returns 0 for an empty input.
func Avg[T Number](numbers []T) T { //nolint:ireturn
	if len(numbers) == 0 {
		return 0
	}

	return Sum(numbers...) / T(len(numbers))
}

// CountBy tallies the keys returned by key, skipping values for which ok is false.
func CountBy[T any, K comparable](input []T, key func(T) (K, bool)) map[K]int {
	counts := map[K]int{}

	for _, value := range input {
		if k, ok := key(value); ok {
			counts[k]++
		}
	}

	return counts
}

// Pair is a key with its tally.
type Pair[K comparable, V Number] struct {
	Key   K
	Value V
}

// TopN returns the n largest entries, ties broken by key order.
func TopN[K cmp.Ordered, V Number](counts map[K]V, n int) []Pair[K, V] {
	pairs := make([]Pair[K, V], 0, len(counts))
	for key, value := range counts {
		pairs = append(pairs, Pair[K, V]{Key: key, Value: value})
	}

	slices.SortFunc(pairs, func(a, b Pair[K, V]) int {
		if a.Value != b.Value {
			return cmp.Compare(b.Value, a.Value)
		}

		return cmp.Compare(a.Key, b.Key)
	})

	if n >= 0 && len(pairs) > n {
		pairs = pairs[:n]
	}

	return pairs
}
