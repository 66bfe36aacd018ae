package catalog

import (
	"context"
	"sync"
	"testing"
)

// fakeRepo serves a small fixed tree. QueryChapters can be gated per
// product to hold a fetch open while the test races another change in.
type fakeRepo struct {
	Repository

	products []Product
	chapters map[int][]Chapter
	topics   map[int][]Topic

	mu        sync.Mutex
	count     int
	countErr  error
	lastCount ItemFilter

	chapterGate    map[int]chan struct{}
	chapterStarted chan int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		products: []Product{
			{ID: 1, Title: "Anatomy QBank", Status: StatusPublished, QuestionsCount: 40, ChaptersCount: 2},
			{ID: 2, Title: "Physiology QBank", Status: StatusPublished, QuestionsCount: 25, ChaptersCount: 1},
		},
		chapters: map[int][]Chapter{
			1: {
				{ID: 11, Title: "Lower Limb", Order: 2, Product: 1, QuestionsCount: 25},
				{ID: 10, Title: "Upper Limb", Order: 1, Product: 1, QuestionsCount: 15},
			},
			2: {
				{ID: 20, Title: "Cardio", Order: 1, Product: 2, QuestionsCount: 25},
			},
		},
		topics: map[int][]Topic{
			10: {
				{ID: 100, Title: "Shoulder", Order: 1, Chapter: 10, QuestionsCount: 5},
				{ID: 101, Title: "Elbow", Order: 2, Chapter: 10, QuestionsCount: 7},
			},
		},
		count: 40,
	}
}

func (r *fakeRepo) QueryProducts(_ context.Context, _ string, _ Kind, _ ProductFilter) ([]Product, error) {
	return r.products, nil
}

func (r *fakeRepo) QueryChapters(_ context.Context, _ string, _ Kind, productID int) ([]Chapter, error) {
	r.mu.Lock()
	gate := r.chapterGate[productID]
	started := r.chapterStarted
	r.mu.Unlock()
	if started != nil {
		started <- productID
	}
	if gate != nil {
		<-gate
	}
	return append([]Chapter(nil), r.chapters[productID]...), nil
}

func (r *fakeRepo) QueryTopics(_ context.Context, _ string, _ Kind, chapterID int) ([]Topic, error) {
	return append([]Topic(nil), r.topics[chapterID]...), nil
}

func (r *fakeRepo) CountItems(_ context.Context, _ string, _ Kind, filter ItemFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastCount = filter
	return r.count, r.countErr
}

func (r *fakeRepo) setCount(n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count, r.countErr = n, err
}

func newTestSelector(repo *fakeRepo) *Selector {
	return NewSelector(NewService(repo), KindQuestionBank, "token")
}

func TestSelectorCascade(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	sel := newTestSelector(repo)

	sel.LoadProducts(ctx)
	if got := len(sel.State().ProductOptions); got != 2 {
		t.Fatalf("product options = %d, want 2", got)
	}

	sel.SetProducts(ctx, []int{1})
	state := sel.State()
	if got := len(state.ChapterOptions); got != 2 {
		t.Fatalf("chapter options = %d, want 2", got)
	}
	// chapter options come back in upstream display order
	if state.ChapterOptions[0].ID != 10 {
		t.Errorf("first chapter = %d, want 10", state.ChapterOptions[0].ID)
	}

	sel.SetChapters(ctx, []int{10})
	state = sel.State()
	if got := len(state.TopicOptions); got != 2 {
		t.Fatalf("topic options = %d, want 2", got)
	}

	sel.SetTopics(ctx, []int{100})
	state = sel.State()
	if got := state.Selection.Topics; len(got) != 1 || got[0] != 100 {
		t.Fatalf("topic selection = %v", got)
	}

	// changing the product selection clears every descendant
	sel.SetProducts(ctx, []int{2})
	state = sel.State()
	if len(state.Selection.Chapters) != 0 || len(state.Selection.Topics) != 0 {
		t.Errorf("descendant selections not cleared: %+v", state.Selection)
	}
	if len(state.TopicOptions) != 0 {
		t.Errorf("topic options not cleared: %v", state.TopicOptions)
	}
	if got := len(state.ChapterOptions); got != 1 || state.ChapterOptions[0].ID != 20 {
		t.Errorf("chapter options = %+v, want Cardio only", state.ChapterOptions)
	}
}

func TestSelectorAvailability(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	sel := newTestSelector(repo)
	sel.LoadProducts(ctx)

	// availability appearing raises requested to the ceiling
	sel.SetProducts(ctx, []int{1})
	state := sel.State()
	if state.Available != 40 || state.Requested != 40 {
		t.Fatalf("available = %d requested = %d, want 40 40", state.Available, state.Requested)
	}

	// count queries go out with page_size=1, never random
	repo.mu.Lock()
	last := repo.lastCount
	repo.mu.Unlock()
	if last.PageSize != 1 || last.Random {
		t.Errorf("count filter = %+v", last)
	}

	sel.SetRequested(10)
	if got := sel.State().Requested; got != 10 {
		t.Fatalf("requested = %d, want 10", got)
	}
	sel.SetRequested(0)
	if got := sel.State().Requested; got != 1 {
		t.Errorf("requested = %d, want floor 1", got)
	}
	sel.SetRequested(500)
	if got := sel.State().Requested; got != 40 {
		t.Errorf("requested = %d, want clamp 40", got)
	}

	// a shrinking ceiling drags requested down with it
	repo.setCount(5, nil)
	sel.SetChapters(ctx, []int{10})
	state = sel.State()
	if state.Available != 5 || state.Requested != 5 {
		t.Errorf("available = %d requested = %d, want 5 5", state.Available, state.Requested)
	}
}

func TestSelectorCountFallback(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	repo.setCount(0, context.DeadlineExceeded)
	sel := newTestSelector(repo)
	sel.LoadProducts(ctx)

	// the denormalized counters stand in when the count query fails
	sel.SetProducts(ctx, []int{1, 2})
	if got := sel.State().Available; got != 65 {
		t.Errorf("available = %d, want denormalized 65", got)
	}
}

func TestSelectorDiscardsStaleChapters(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	sel := newTestSelector(repo)
	sel.LoadProducts(ctx)

	gate := make(chan struct{})
	started := make(chan int, 2)
	repo.mu.Lock()
	repo.chapterGate = map[int]chan struct{}{1: gate}
	repo.chapterStarted = started
	repo.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sel.SetProducts(ctx, []int{1})
	}()
	<-started // product 1 fetch is in flight

	sel.SetProducts(ctx, []int{2})
	<-started
	close(gate) // let the stale fetch resolve
	wg.Wait()

	state := sel.State()
	if got := state.Selection.Products; len(got) != 1 || got[0] != 2 {
		t.Fatalf("product selection = %v, want [2]", got)
	}
	if got := len(state.ChapterOptions); got != 1 || state.ChapterOptions[0].ID != 20 {
		t.Errorf("chapter options = %+v, stale response overwrote newer state", state.ChapterOptions)
	}
}
