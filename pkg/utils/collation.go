package utils

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortUkrainian sorts items in Ukrainian alphabetical order of key
// (so that Є, І, Ї and Ґ land in their alphabet positions).
func SortUkrainian[T any](items []T, key func(T) string) {
	c := collate.New(language.Ukrainian, collate.IgnoreCase)
	sort.SliceStable(items, func(i, j int) bool {
		return c.CompareString(key(items[i]), key(items[j])) < 0
	})
}
