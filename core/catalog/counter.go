package catalog

// Selection is a multi-valued pick at every level of the hierarchy.
type Selection struct {
	Products []int `json:"products"`
	Chapters []int `json:"chapters"`
	Topics   []int `json:"topics"`
}

func (s Selection) Empty() bool {
	return len(s.Products) == 0 && len(s.Chapters) == 0 && len(s.Topics) == 0
}

// ItemFilter translates the selection into the narrowest upstream filter.
// Precedence is Topic > Chapter > Product: once a deeper level narrows the
// scope, broader selections are ignored.
func (s Selection) ItemFilter() ItemFilter {
	switch {
	case len(s.Topics) > 0:
		return ItemFilter{Topics: s.Topics, ProductStatus: StatusPublished}
	case len(s.Chapters) > 0:
		return ItemFilter{Chapters: s.Chapters, ProductStatus: StatusPublished}
	default:
		return ItemFilter{Products: s.Products, ProductStatus: StatusPublished}
	}
}

// CountAvailable sums the denormalized item counters over the narrowest
// selected level. It is an approximation derived from already-fetched
// entities; CountItems gives the authoritative number.
func CountAvailable(kind Kind, sel Selection, products []Product, chapters []Chapter, topics []Topic) int {
	if sel.Empty() {
		return 0
	}

	var total int
	switch {
	case len(sel.Topics) > 0:
		picked := intSet(sel.Topics)
		for _, t := range topics {
			if _, ok := picked[t.ID]; ok {
				total += t.ItemCount(kind)
			}
		}
	case len(sel.Chapters) > 0:
		picked := intSet(sel.Chapters)
		for _, c := range chapters {
			if _, ok := picked[c.ID]; ok {
				total += c.ItemCount(kind)
			}
		}
	default:
		picked := intSet(sel.Products)
		for _, p := range products {
			if _, ok := picked[p.ID]; ok {
				total += p.ItemCount(kind)
			}
		}
	}
	return total
}

func intSet(ids []int) map[int]struct{} {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
