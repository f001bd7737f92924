// Copyright 2025 The OPA Authors
// SPDX-License-Identifier: Apache-2.0

package levenshtein

import (
	"iter"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ClosestStrings returns the candidates at the smallest edit distance from a,
// ignoring case, provided that distance does not exceed maxDistance. The
// result is sorted.
func ClosestStrings(maxDistance int, a string, candidates iter.Seq[string]) []string {
	closest := []string{}
	best := maxDistance + 1
	a = strings.ToLower(a)
	for c := range candidates {
		d := levenshtein.ComputeDistance(a, strings.ToLower(c))
		switch {
		case d < best:
			closest = []string{c}
			best = d
		case d == best:
			closest = append(closest, c)
		}
	}
	slices.Sort(closest)
	return closest
}
