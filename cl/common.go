package cl

import "slices"

// This file holds the definition of functions commonly used in different parts.

// keys returns the keys of a map in the form of a slice.
func keys[K comparable, V any](m map[K]V) []K {
	s := make([]K, 0, len(m))
	for k := range m {
		s = append(s, k)
	}
	return s
}

// sortedKeys returns the keys of a map sorted.
func sortedKeys[V any](m map[string]V) []string {
	s := keys(m)
	slices.Sort(s)
	return s
}
