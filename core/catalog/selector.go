package catalog

import (
	"context"
	"sync"
)

// Selector maintains the three dependent selections of the study filter
// screen. Changing a parent level clears every descendant selection and its
// option list; each dependent fetch carries a generation number so a stale
// response that resolves after the parent changed again is discarded instead
// of overwriting newer state.
type Selector struct {
	svc   *Service
	kind  Kind
	token string

	mu             sync.Mutex
	selection      Selection
	productOptions []Product
	chapterOptions []Chapter
	topicOptions   []Topic
	chapterGen     uint64
	topicGen       uint64

	available  int
	requested  int
	fetchError string
}

// SelectorState is the JSON snapshot returned to clients after each change.
type SelectorState struct {
	Selection      Selection `json:"selection"`
	ProductOptions []Product `json:"product_options"`
	ChapterOptions []Chapter `json:"chapter_options"`
	TopicOptions   []Topic   `json:"topic_options"`
	Available      int       `json:"available"`
	Requested      int       `json:"requested"`
	Error          string    `json:"error,omitempty"`
}

func NewSelector(svc *Service, kind Kind, token string) *Selector {
	return &Selector{
		svc:            svc,
		kind:           kind,
		token:          token,
		productOptions: []Product{},
		chapterOptions: []Chapter{},
		topicOptions:   []Topic{},
	}
}

// LoadProducts fetches the selectable products (published, enrolled only).
func (s *Selector) LoadProducts(ctx context.Context) {
	products, err := s.svc.QueryProducts(ctx, s.token, s.kind, ProductFilter{
		Status:       StatusPublished,
		EnrolledOnly: true,
		PageSize:     100,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.fetchError = "Failed to fetch products"
		s.productOptions = []Product{}
		return
	}
	s.fetchError = ""
	s.productOptions = products
}

// SetProducts replaces the product selection. Chapter and topic selections
// and option lists are cleared before the dependent fetch is issued; a
// failed fetch surfaces an error string, leaves the chapter options empty
// and does not roll back the product selection.
func (s *Selector) SetProducts(ctx context.Context, ids []int) {
	s.mu.Lock()
	s.selection.Products = ids
	s.selection.Chapters = nil
	s.selection.Topics = nil
	s.chapterOptions = []Chapter{}
	s.topicOptions = []Topic{}
	s.chapterGen++
	s.topicGen++
	gen := s.chapterGen
	s.mu.Unlock()

	if len(ids) == 0 {
		s.recomputeAvailability(ctx)
		return
	}

	chapters, err := s.svc.QueryChapters(ctx, s.token, s.kind, ids)

	s.mu.Lock()
	if gen == s.chapterGen { // discard stale responses
		if err != nil {
			s.fetchError = "Failed to fetch chapters"
		} else {
			s.fetchError = ""
			s.chapterOptions = chapters
		}
	}
	s.mu.Unlock()

	s.recomputeAvailability(ctx)
}

// SetChapters replaces the chapter selection, clearing topics.
func (s *Selector) SetChapters(ctx context.Context, ids []int) {
	s.mu.Lock()
	s.selection.Chapters = ids
	s.selection.Topics = nil
	s.topicOptions = []Topic{}
	s.topicGen++
	gen := s.topicGen
	s.mu.Unlock()

	if len(ids) == 0 {
		s.recomputeAvailability(ctx)
		return
	}

	topics, err := s.svc.QueryTopics(ctx, s.token, s.kind, ids)

	s.mu.Lock()
	if gen == s.topicGen {
		if err != nil {
			s.fetchError = "Failed to fetch topics"
		} else {
			s.fetchError = ""
			s.topicOptions = topics
		}
	}
	s.mu.Unlock()

	s.recomputeAvailability(ctx)
}

// SetTopics replaces the leaf selection; no dependent fetch remains.
func (s *Selector) SetTopics(ctx context.Context, ids []int) {
	s.mu.Lock()
	s.selection.Topics = ids
	s.mu.Unlock()

	s.recomputeAvailability(ctx)
}

// SetRequested records the user's desired session size, bounded to [1, available].
func (s *Selector) SetRequested(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 1 {
		n = 1
	}
	if s.available > 0 && n > s.available {
		n = s.available
	}
	s.requested = n
}

// recomputeAvailability asks upstream for the authoritative count of the
// current filter set, falling back to the denormalized counter sum when the
// count query fails. The requested size is raised to the ceiling when
// availability appears from zero, and clamped down when the ceiling drops
// below it.
func (s *Selector) recomputeAvailability(ctx context.Context) {
	s.mu.Lock()
	sel := s.selection
	s.mu.Unlock()

	var count int
	if !sel.Empty() {
		var err error
		count, err = s.svc.CountItems(ctx, s.token, s.kind, sel.ItemFilter())
		if err != nil {
			s.mu.Lock()
			count = CountAvailable(s.kind, sel, s.productOptions, s.chapterOptions, s.topicOptions)
			s.mu.Unlock()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.available
	s.available = count
	if prev == 0 && count > 0 {
		s.requested = count
	} else if s.requested > count {
		s.requested = count
	}
}

// State snapshots the selector for rendering.
func (s *Selector) State() SelectorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SelectorState{
		Selection:      s.selection,
		ProductOptions: s.productOptions,
		ChapterOptions: s.chapterOptions,
		TopicOptions:   s.topicOptions,
		Available:      s.available,
		Requested:      s.requested,
		Error:          s.fetchError,
	}
}
