package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/catalog"
	"github.com/trezcool/darasa/core/study"
)

type bookmarkRepository struct {
	db *sqlx.DB
}

var _ study.BookmarkRepository = (*bookmarkRepository)(nil)

func NewBookmarkRepository(db *sqlx.DB) *bookmarkRepository {
	return &bookmarkRepository{db: db}
}

// ToggleBookmark inserts the bookmark, or removes it if it already exists.
func (repo *bookmarkRepository) ToggleBookmark(ctx context.Context, bm study.Bookmark) (bool, error) {
	const del = `
DELETE FROM bookmarks
WHERE user_id = $1 AND kind = $2 AND product_id = $3 AND item_id = $4`
	res, err := repo.db.ExecContext(ctx, del, bm.UserID, string(bm.Kind), bm.Product, bm.ItemID)
	if err != nil {
		return false, errors.Wrap(err, "removing bookmark")
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}

	const ins = `
INSERT INTO bookmarks (user_id, kind, product_id, item_id, created_at)
VALUES ($1, $2, $3, $4, $5)`
	if _, err = repo.db.ExecContext(ctx, ins, bm.UserID, string(bm.Kind), bm.Product, bm.ItemID, bm.CreatedAt); err != nil {
		return false, errors.Wrap(err, "inserting bookmark")
	}
	return true, nil
}

func (repo *bookmarkRepository) QueryBookmarks(ctx context.Context, userID string, kind catalog.Kind) ([]study.Bookmark, error) {
	var bms []study.Bookmark
	const q = `
SELECT user_id, kind, product_id, item_id, created_at FROM bookmarks
WHERE user_id = $1 AND kind = $2
ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &bms, q, userID, string(kind)); err != nil {
		return nil, errors.Wrap(err, "querying bookmarks")
	}
	return bms, nil
}
