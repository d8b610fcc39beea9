// Package puzzles holds small standalone algorithm exercises exposed by the
// puzzle subcommands.
package puzzles

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	// ErrEmptyInput is returned when there is nothing to compute a median of.
	ErrEmptyInput = errors.New("both arrays are empty")
	// ErrInvalidOrder is returned when an alien alphabet repeats a letter.
	ErrInvalidOrder = errors.New("invalid alphabet order")
)

// CommonLetters returns the letters shared by a and b, compared
// case-insensitively, in sorted order.
func CommonLetters(a, b string) []string {
	inB := make(map[rune]bool)
	for _, r := range strings.ToLower(b) {
		inB[r] = true
	}

	seen := make(map[rune]bool)
	var common []string
	for _, r := range strings.ToLower(a) {
		if inB[r] && !seen[r] {
			seen[r] = true
			common = append(common, string(r))
		}
	}
	sort.Strings(common)
	return common
}

// MedianSortedArrays returns the median of the merged contents of two
// sorted arrays.
func MedianSortedArrays(a, b []int) (float64, error) {
	total := len(a) + len(b)
	if total == 0 {
		return 0, ErrEmptyInput
	}

	// Merge only up to the middle.
	var prev, cur, i, j int
	for k := 0; k <= total/2; k++ {
		prev = cur
		if j >= len(b) || (i < len(a) && a[i] <= b[j]) {
			cur = a[i]
			i++
		} else {
			cur = b[j]
			j++
		}
	}

	if total%2 == 1 {
		return float64(cur), nil
	}
	return float64(prev+cur) / 2, nil
}

// CountCommonSorted counts the elements present in both a and b. Both
// slices must be sorted ascending with distinct elements.
func CountCommonSorted(a, b []int) int {
	count := 0
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			count++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return count
}

// IsAlienSorted reports whether words are in lexicographic order under the
// alphabet order. A word sorts before any longer word it prefixes. Letters
// missing from order sort after every letter in it.
func IsAlienSorted(words []string, order string) (bool, error) {
	rank := make(map[rune]int, utf8.RuneCountInString(order))
	for i, r := range []rune(order) {
		if _, dup := rank[r]; dup {
			return false, fmt.Errorf("%w: %q appears twice", ErrInvalidOrder, r)
		}
		rank[r] = i
	}

	for i := 1; i < len(words); i++ {
		if alienCompare(words[i-1], words[i], rank) > 0 {
			return false, nil
		}
	}
	return true, nil
}

func alienCompare(a, b string, rank map[rune]int) int {
	ra, rb := []rune(a), []rune(b)
	for i := 0; i < len(ra) && i < len(rb); i++ {
		if ra[i] == rb[i] {
			continue
		}
		return letterRank(ra[i], rank) - letterRank(rb[i], rank)
	}
	return len(ra) - len(rb)
}

func letterRank(r rune, rank map[rune]int) int {
	if v, ok := rank[r]; ok {
		return v
	}
	return len(rank) + int(r)
}
