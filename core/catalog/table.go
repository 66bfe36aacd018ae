package catalog

import (
	"sort"
	"strings"
)

// Client-side table helpers for the management screens: single-column
// stable sort (string fields case-insensitively, numeric fields by value)
// and slice pagination. Stability means toggling the direction twice
// returns ties to their original order.

func compareStrings(a, b string, asc bool) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if asc {
		return a < b
	}
	return a > b
}

func compareInts(a, b int, asc bool) bool {
	if asc {
		return a < b
	}
	return a > b
}

func SortProducts(list []Product, kind Kind, field string, asc bool) {
	sort.SliceStable(list, func(i, j int) bool {
		switch field {
		case "status":
			return compareStrings(list[i].Status, list[j].Status, asc)
		case "price":
			if asc {
				return list[i].Price < list[j].Price
			}
			return list[i].Price > list[j].Price
		case "chapters_count":
			return compareInts(list[i].ChaptersCount, list[j].ChaptersCount, asc)
		case "items_count":
			return compareInts(list[i].ItemCount(kind), list[j].ItemCount(kind), asc)
		case "created_at":
			if asc {
				return list[i].CreatedAt.Before(list[j].CreatedAt)
			}
			return list[i].CreatedAt.After(list[j].CreatedAt)
		default:
			return compareStrings(list[i].Title, list[j].Title, asc)
		}
	})
}

func SortChapters(list []Chapter, kind Kind, field string, asc bool) {
	sort.SliceStable(list, func(i, j int) bool {
		switch field {
		case "order":
			return compareInts(list[i].Order, list[j].Order, asc)
		case "topics_count":
			return compareInts(list[i].TopicsCount, list[j].TopicsCount, asc)
		case "items_count":
			return compareInts(list[i].ItemCount(kind), list[j].ItemCount(kind), asc)
		default:
			return compareStrings(list[i].Title, list[j].Title, asc)
		}
	})
}

func SortTopics(list []Topic, kind Kind, field string, asc bool) {
	sort.SliceStable(list, func(i, j int) bool {
		switch field {
		case "order":
			return compareInts(list[i].Order, list[j].Order, asc)
		case "items_count":
			return compareInts(list[i].ItemCount(kind), list[j].ItemCount(kind), asc)
		default:
			return compareStrings(list[i].Title, list[j].Title, asc)
		}
	})
}

// PageBounds returns the [start, end) slice bounds for a zero-based page of
// rowsPerPage rows over n elements. Out-of-range pages yield an empty range.
func PageBounds(n, page, rowsPerPage int) (int, int) {
	if rowsPerPage <= 0 {
		return 0, n
	}
	if page < 0 {
		page = 0
	}
	start := page * rowsPerPage
	if start >= n {
		return n, n
	}
	end := start + rowsPerPage
	if end > n {
		end = n
	}
	return start, end
}
