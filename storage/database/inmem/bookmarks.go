package inmem

import (
	"context"
	"sort"
	"sync"

	"github.com/trezcool/darasa/core/catalog"
	"github.com/trezcool/darasa/core/study"
)

type bookmarkKey struct {
	userID  string
	kind    catalog.Kind
	product int
	itemID  int
}

type bookmarkRepository struct {
	mu    sync.RWMutex
	marks map[bookmarkKey]study.Bookmark
}

var _ study.BookmarkRepository = (*bookmarkRepository)(nil)

func NewBookmarkRepository() *bookmarkRepository {
	return &bookmarkRepository{marks: make(map[bookmarkKey]study.Bookmark)}
}

func (repo *bookmarkRepository) ToggleBookmark(_ context.Context, bm study.Bookmark) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	key := bookmarkKey{bm.UserID, bm.Kind, bm.Product, bm.ItemID}
	if _, ok := repo.marks[key]; ok {
		delete(repo.marks, key)
		return false, nil
	}
	repo.marks[key] = bm
	return true, nil
}

func (repo *bookmarkRepository) QueryBookmarks(_ context.Context, userID string, kind catalog.Kind) ([]study.Bookmark, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	bms := make([]study.Bookmark, 0)
	for _, bm := range repo.marks {
		if bm.UserID == userID && bm.Kind == kind {
			bms = append(bms, bm)
		}
	}
	sort.Slice(bms, func(i, j int) bool { return bms[i].CreatedAt.After(bms[j].CreatedAt) })
	return bms, nil
}
