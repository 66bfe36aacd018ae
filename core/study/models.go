package study

import (
	"time"

	"github.com/trezcool/darasa/core/catalog"
)

// Session statuses.
const (
	StatusReady     = "ready"
	StatusAnswering = "answering"
	StatusRevealed  = "revealed"
	StatusCompleted = "completed"
)

// Completion types recorded on a summary.
const (
	CompletionFinished  = "finished"
	CompletionAbandoned = "abandoned"
)

type (
	// Filters is the launch configuration a session was created from.
	Filters struct {
		Selection catalog.Selection `json:"selection"`
		Count     int               `json:"count"`
	}

	// Session is an active study run. It lives in the session store between
	// requests and is mutated through the engine methods only.
	Session struct {
		ID        string         `json:"id"`
		UserID    string         `json:"user_id"`
		Kind      catalog.Kind   `json:"kind"`
		Items     []catalog.Item `json:"items"`
		Index     int            `json:"index"`
		Revealed  bool           `json:"revealed"`
		Status    string         `json:"status"`
		Answers   map[int]string `json:"answers"` // item id -> given answer (quiz)
		Scores    map[int]bool   `json:"scores"`  // item id -> scored correct; presence = definitively scored
		Flags     map[int]bool   `json:"flags"`   // item id -> bookmarked
		Filters   Filters        `json:"filters"`
		StartedAt time.Time      `json:"started_at"`
	}

	Stats struct {
		Total          int     `json:"total"`
		CorrectCount   int     `json:"correct_count"`
		IncorrectCount int     `json:"incorrect_count"`
		FlaggedCount   int     `json:"flagged_count"`
		TimeSpent      int64   `json:"time_spent"` // seconds
		Accuracy       float64 `json:"accuracy"`   // percentage; 0 when nothing was scored
	}

	// Summary is the immutable snapshot persisted when a session ends.
	// Each write is a fresh snapshot; summaries are never mutated.
	Summary struct {
		SessionID      string       `json:"session_id"`
		UserID         string       `json:"user_id"`
		Kind           catalog.Kind `json:"kind"`
		ItemIDs        []int        `json:"item_ids"`
		CompletedItems []int        `json:"completed_items"`
		FlaggedItems   []int        `json:"flagged_items"`
		Stats          Stats        `json:"session_stats"`
		Filters        Filters      `json:"filters"`
		CompletionType string       `json:"completion_type"`
		SessionDate    time.Time    `json:"session_date"`
	}

	// Bookmark is a durable per-user flag on an item, orthogonal to any
	// session and keyed by catalog kind and product.
	Bookmark struct {
		UserID    string       `json:"user_id" db:"user_id"`
		Kind      catalog.Kind `json:"kind" db:"kind"`
		Product   int          `json:"product" db:"product_id"`
		ItemID    int          `json:"item_id" db:"item_id"`
		CreatedAt time.Time    `json:"created_at" db:"created_at"`
	}
)

func (s *Session) Terminal() bool {
	return s.Status == StatusCompleted
}
