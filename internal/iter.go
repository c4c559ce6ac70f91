// Package internal holds helpers shared by the Arch-242 packages.
package internal

import (
	"iter"
	"maps"
	"strings"
)

// IterSeq2Concat concatenates multiple dual-return iterators into a single iterator sequence.
func IterSeq2Concat[T1 any, T2 any](seqs ...iter.Seq2[T1, T2]) iter.Seq2[T1, T2] {
	return func(yield func(T1, T2) bool) {
		for _, seq := range seqs {
			for val1, val2 := range seq {
				if !yield(val1, val2) {
					return
				}
			}
		}
	}
}

// Defines returns the defines of a map, with every name upper-cased.
func Defines(defines map[string]string) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for name, value := range maps.All(defines) {
			if !yield(strings.ToUpper(name), value) {
				return
			}
		}
	}
}
