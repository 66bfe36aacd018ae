package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/catalog"
	"github.com/trezcool/darasa/core/study"
)

// historyRepository persists session summaries as JSON documents; the
// indexed columns exist only for querying and pruning.
type historyRepository struct {
	db *sqlx.DB
}

var _ study.HistoryRepository = (*historyRepository)(nil)

func NewHistoryRepository(db *sqlx.DB) *historyRepository {
	return &historyRepository{db: db}
}

type historyRow struct {
	SessionID   string    `db:"session_id"`
	UserID      string    `db:"user_id"`
	Kind        string    `db:"kind"`
	Summary     []byte    `db:"summary"`
	SessionDate time.Time `db:"session_date"`
}

func (repo *historyRepository) SaveSummary(ctx context.Context, sum study.Summary) error {
	doc, err := json.Marshal(sum)
	if err != nil {
		return errors.Wrap(err, "encoding summary")
	}

	const q = `
INSERT INTO session_history (session_id, user_id, kind, summary, session_date)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (session_id) DO NOTHING`
	if _, err = repo.db.ExecContext(ctx, q, sum.SessionID, sum.UserID, string(sum.Kind), doc, sum.SessionDate); err != nil {
		return errors.Wrap(err, "inserting summary")
	}
	return nil
}

func (repo *historyRepository) GetSummary(ctx context.Context, sessionID string) (study.Summary, error) {
	var row historyRow
	const q = `SELECT * FROM session_history WHERE session_id = $1`
	if err := repo.db.GetContext(ctx, &row, q, sessionID); err != nil {
		if err == sql.ErrNoRows {
			return study.Summary{}, study.ErrSessionNotFound
		}
		return study.Summary{}, errors.Wrap(err, "getting summary")
	}
	return row.summary()
}

func (repo *historyRepository) QuerySummaries(ctx context.Context, userID string, kind catalog.Kind) ([]study.Summary, error) {
	var rows []historyRow
	const q = `
SELECT * FROM session_history
WHERE user_id = $1 AND kind = $2
ORDER BY session_date DESC`
	if err := repo.db.SelectContext(ctx, &rows, q, userID, string(kind)); err != nil {
		return nil, errors.Wrap(err, "querying summaries")
	}

	sums := make([]study.Summary, 0, len(rows))
	for _, row := range rows {
		sum, err := row.summary()
		if err != nil {
			return nil, err
		}
		sums = append(sums, sum)
	}
	return sums, nil
}

func (repo *historyRepository) DeleteSummariesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM session_history WHERE session_date < $1`, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "pruning summaries")
	}
	return res.RowsAffected()
}

func (row historyRow) summary() (study.Summary, error) {
	var sum study.Summary
	if err := json.Unmarshal(row.Summary, &sum); err != nil {
		return study.Summary{}, errors.Wrap(err, "decoding summary")
	}
	return sum, nil
}
