package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotFound    = errors.New("content not found")
	ErrUnknownKind = errors.New("unknown catalog kind")
)

type (
	// ProductFilter narrows upstream product queries.
	ProductFilter struct {
		Status       string
		EnrolledOnly bool
		PageSize     int
	}

	// ItemFilter carries the same filter set for item queries and counts,
	// so the availability shown always matches what a session fetch would use.
	ItemFilter struct {
		Products      []int
		Chapters      []int
		Topics        []int
		Random        bool
		PageSize      int
		ProductStatus string
	}

	// Repository is the upstream content catalog.
	Repository interface {
		QueryProducts(ctx context.Context, token string, kind Kind, filter ProductFilter) ([]Product, error)
		GetProduct(ctx context.Context, token string, kind Kind, id int) (Product, error)
		CreateProduct(ctx context.Context, token string, kind Kind, data ProductPayload) (Product, error)
		UpdateProduct(ctx context.Context, token string, kind Kind, id int, data ProductPayload) (Product, error)
		DeleteProduct(ctx context.Context, token string, kind Kind, id int) error

		QueryChapters(ctx context.Context, token string, kind Kind, productID int) ([]Chapter, error)
		GetChapter(ctx context.Context, token string, kind Kind, id int) (Chapter, error)
		CreateChapter(ctx context.Context, token string, kind Kind, data ChapterPayload) (Chapter, error)
		UpdateChapter(ctx context.Context, token string, kind Kind, id int, data ChapterPayload) (Chapter, error)
		DeleteChapter(ctx context.Context, token string, kind Kind, id int) error

		QueryTopics(ctx context.Context, token string, kind Kind, chapterID int) ([]Topic, error)
		GetTopic(ctx context.Context, token string, kind Kind, id int) (Topic, error)
		CreateTopic(ctx context.Context, token string, kind Kind, data TopicPayload) (Topic, error)
		UpdateTopic(ctx context.Context, token string, kind Kind, id int, data TopicPayload) (Topic, error)
		DeleteTopic(ctx context.Context, token string, kind Kind, id int) error

		QueryItems(ctx context.Context, token string, kind Kind, filter ItemFilter) ([]Item, error)
		CountItems(ctx context.Context, token string, kind Kind, filter ItemFilter) (int, error)

		CreateQuestion(ctx context.Context, token string, data QuestionPayload) (Question, error)
		UpdateQuestion(ctx context.Context, token string, id int, data QuestionPayload) (Question, error)
		DeleteQuestion(ctx context.Context, token string, id int) error

		CreateFlashcard(ctx context.Context, token string, data FlashcardPayload) (Flashcard, error)
		UpdateFlashcard(ctx context.Context, token string, id int, data FlashcardPayload) (Flashcard, error)
		DeleteFlashcard(ctx context.Context, token string, id int) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) QueryProducts(ctx context.Context, token string, kind Kind, filter ProductFilter) ([]Product, error) {
	if !kind.Valid() {
		return nil, ErrUnknownKind
	}
	return svc.repo.QueryProducts(ctx, token, kind, filter)
}

func (svc *Service) CreateProduct(ctx context.Context, token string, kind Kind, data ProductPayload) (Product, error) {
	return svc.repo.CreateProduct(ctx, token, kind, data)
}

func (svc *Service) UpdateProduct(ctx context.Context, token string, kind Kind, id int, data ProductPayload) (Product, error) {
	return svc.repo.UpdateProduct(ctx, token, kind, id, data)
}

func (svc *Service) DeleteProduct(ctx context.Context, token string, kind Kind, id int) error {
	return svc.repo.DeleteProduct(ctx, token, kind, id)
}

// ProductDeletePreview snapshots the product before a destructive call so
// the client can show a cascade warning with the exact counters.
func (svc *Service) ProductDeletePreview(ctx context.Context, token string, kind Kind, id int) (DeletePreview, error) {
	prod, err := svc.repo.GetProduct(ctx, token, kind, id)
	if err != nil {
		return DeletePreview{}, err
	}
	return DeletePreview{
		Entity:  "product",
		ID:      prod.ID,
		Title:   prod.Title,
		Counts:  map[string]int{"chapters": prod.ChaptersCount, "items": prod.ItemCount(kind)},
		Warning: fmt.Sprintf("Deleting %q will also delete its %d chapters and all their content. This cannot be undone.", prod.Title, prod.ChaptersCount),
	}, nil
}

// QueryChapters unions the chapter lists of all selected products into one
// flat list. Fetches fan out concurrently; chapters carry their own product
// FK so no de-duplication is attempted.
func (svc *Service) QueryChapters(ctx context.Context, token string, kind Kind, productIDs []int) ([]Chapter, error) {
	if len(productIDs) == 0 {
		return []Chapter{}, nil
	}

	var mu sync.Mutex
	all := make([]Chapter, 0)

	g, ctx := errgroup.WithContext(ctx)
	for _, id := range productIDs {
		id := id
		g.Go(func() error {
			chapters, err := svc.repo.QueryChapters(ctx, token, kind, id)
			if err != nil {
				return errors.Wrapf(err, "querying chapters of product %d", id)
			}
			mu.Lock()
			all = append(all, chapters...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sortChaptersDefault(all)
	return all, nil
}

func (svc *Service) CreateChapter(ctx context.Context, token string, kind Kind, data ChapterPayload) (Chapter, error) {
	return svc.repo.CreateChapter(ctx, token, kind, data)
}

func (svc *Service) UpdateChapter(ctx context.Context, token string, kind Kind, id int, data ChapterPayload) (Chapter, error) {
	return svc.repo.UpdateChapter(ctx, token, kind, id, data)
}

func (svc *Service) DeleteChapter(ctx context.Context, token string, kind Kind, id int) error {
	return svc.repo.DeleteChapter(ctx, token, kind, id)
}

func (svc *Service) ChapterDeletePreview(ctx context.Context, token string, kind Kind, id int) (DeletePreview, error) {
	ch, err := svc.repo.GetChapter(ctx, token, kind, id)
	if err != nil {
		return DeletePreview{}, err
	}
	return DeletePreview{
		Entity:  "chapter",
		ID:      ch.ID,
		Title:   ch.Title,
		Counts:  map[string]int{"topics": ch.TopicsCount, "items": ch.ItemCount(kind)},
		Warning: fmt.Sprintf("Deleting %q will also delete its %d topics and all their content. This cannot be undone.", ch.Title, ch.TopicsCount),
	}, nil
}

// QueryTopics unions the topic lists of all selected chapters, same
// fan-out pattern as QueryChapters.
func (svc *Service) QueryTopics(ctx context.Context, token string, kind Kind, chapterIDs []int) ([]Topic, error) {
	if len(chapterIDs) == 0 {
		return []Topic{}, nil
	}

	var mu sync.Mutex
	all := make([]Topic, 0)

	g, ctx := errgroup.WithContext(ctx)
	for _, id := range chapterIDs {
		id := id
		g.Go(func() error {
			topics, err := svc.repo.QueryTopics(ctx, token, kind, id)
			if err != nil {
				return errors.Wrapf(err, "querying topics of chapter %d", id)
			}
			mu.Lock()
			all = append(all, topics...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sortTopicsDefault(all)
	return all, nil
}

func (svc *Service) CreateTopic(ctx context.Context, token string, kind Kind, data TopicPayload) (Topic, error) {
	return svc.repo.CreateTopic(ctx, token, kind, data)
}

func (svc *Service) UpdateTopic(ctx context.Context, token string, kind Kind, id int, data TopicPayload) (Topic, error) {
	return svc.repo.UpdateTopic(ctx, token, kind, id, data)
}

func (svc *Service) DeleteTopic(ctx context.Context, token string, kind Kind, id int) error {
	return svc.repo.DeleteTopic(ctx, token, kind, id)
}

func (svc *Service) TopicDeletePreview(ctx context.Context, token string, kind Kind, id int) (DeletePreview, error) {
	tp, err := svc.repo.GetTopic(ctx, token, kind, id)
	if err != nil {
		return DeletePreview{}, err
	}
	return DeletePreview{
		Entity:  "topic",
		ID:      tp.ID,
		Title:   tp.Title,
		Counts:  map[string]int{"items": tp.ItemCount(kind)},
		Warning: fmt.Sprintf("Deleting %q will also delete its %d items. This cannot be undone.", tp.Title, tp.ItemCount(kind)),
	}, nil
}

func (svc *Service) QueryItems(ctx context.Context, token string, kind Kind, filter ItemFilter) ([]Item, error) {
	return svc.repo.QueryItems(ctx, token, kind, filter)
}

// Item writes are kind-specific: the two content types share no payload, so
// the service exposes them per type and dispatches deletes on the kind.

func (svc *Service) CreateQuestion(ctx context.Context, token string, data QuestionPayload) (Question, error) {
	return svc.repo.CreateQuestion(ctx, token, data)
}

func (svc *Service) UpdateQuestion(ctx context.Context, token string, id int, data QuestionPayload) (Question, error) {
	return svc.repo.UpdateQuestion(ctx, token, id, data)
}

func (svc *Service) CreateFlashcard(ctx context.Context, token string, data FlashcardPayload) (Flashcard, error) {
	return svc.repo.CreateFlashcard(ctx, token, data)
}

func (svc *Service) UpdateFlashcard(ctx context.Context, token string, id int, data FlashcardPayload) (Flashcard, error) {
	return svc.repo.UpdateFlashcard(ctx, token, id, data)
}

func (svc *Service) DeleteItem(ctx context.Context, token string, kind Kind, id int) error {
	if kind == KindFlashcards {
		return svc.repo.DeleteFlashcard(ctx, token, id)
	}
	return svc.repo.DeleteQuestion(ctx, token, id)
}

// CountItems asks upstream for the authoritative availability of the given
// filter set: an item query with page_size=1, reading the paginated total.
func (svc *Service) CountItems(ctx context.Context, token string, kind Kind, filter ItemFilter) (int, error) {
	filter.PageSize = 1
	filter.Random = false
	return svc.repo.CountItems(ctx, token, kind, filter)
}

// DeletePreview is the snapshot shown in a delete-confirmation dialog.
type DeletePreview struct {
	Entity  string         `json:"entity"`
	ID      int            `json:"id"`
	Title   string         `json:"title"`
	Counts  map[string]int `json:"counts"`
	Warning string         `json:"warning"`
}

// default orderings mirror the upstream: order, then stable input order.
func sortChaptersDefault(chs []Chapter) {
	sort.SliceStable(chs, func(i, j int) bool { return chs[i].Order < chs[j].Order })
}

func sortTopicsDefault(tps []Topic) {
	sort.SliceStable(tps, func(i, j int) bool { return tps[i].Order < tps[j].Order })
}
