package study

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/catalog"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotOwner        = errors.New("session belongs to another user")
	ErrNoItems         = errors.New("no items match the given filters")
)

type (
	// SessionStore holds active sessions between requests.
	SessionStore interface {
		Save(ctx context.Context, sess Session) error
		Get(ctx context.Context, id string) (Session, error)
		Delete(ctx context.Context, id string) error
	}

	// HistoryRepository persists finished-session snapshots.
	HistoryRepository interface {
		SaveSummary(ctx context.Context, sum Summary) error
		GetSummary(ctx context.Context, sessionID string) (Summary, error)
		QuerySummaries(ctx context.Context, userID string, kind catalog.Kind) ([]Summary, error)
		DeleteSummariesBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}

	// BookmarkRepository persists per-user item bookmarks.
	BookmarkRepository interface {
		ToggleBookmark(ctx context.Context, bm Bookmark) (flagged bool, err error)
		QueryBookmarks(ctx context.Context, userID string, kind catalog.Kind) ([]Bookmark, error)
	}

	// Recorder reports finished sessions upstream. Reporting is best effort;
	// the local snapshot is the source of truth.
	Recorder interface {
		RecordSession(ctx context.Context, token string, sum Summary) error
	}

	Service struct {
		catalog   *catalog.Service
		store     SessionStore
		history   HistoryRepository
		bookmarks BookmarkRepository
		recorder  Recorder
		logger    core.Logger
		conf      core.SessionConfig

		mu  sync.Mutex
		rng *rand.Rand
	}
)

func NewService(
	catalogSvc *catalog.Service,
	store SessionStore,
	history HistoryRepository,
	bookmarks BookmarkRepository,
	recorder Recorder,
	logger core.Logger,
	conf core.SessionConfig,
) *Service {
	return &Service{
		catalog:   catalogSvc,
		store:     store,
		history:   history,
		bookmarks: bookmarks,
		recorder:  recorder,
		logger:    logger,
		conf:      conf,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start fetches a batch of items for the given filters and opens a session.
//
// Quizzes over-fetch (headroom x requested, floored at the configured
// minimum) so the upstream's random page has enough variety, then truncate
// to the requested count after a local shuffle. Flashcard runs fetch the
// exact requested count.
func (svc *Service) Start(ctx context.Context, token, userID string, kind catalog.Kind, sel catalog.Selection, count int) (Session, error) {
	if !kind.Valid() {
		return Session{}, catalog.ErrUnknownKind
	}
	if count < 1 {
		count = 1
	}

	filter := sel.ItemFilter()
	filter.Random = true
	filter.PageSize = count
	if kind == catalog.KindQuestionBank {
		filter.PageSize = svc.conf.QuizHeadroom * count
		if filter.PageSize < svc.conf.MinQuizPageSize {
			filter.PageSize = svc.conf.MinQuizPageSize
		}
	}

	items, err := svc.catalog.QueryItems(ctx, token, kind, filter)
	if err != nil {
		return Session{}, errors.Wrap(err, "fetching session items")
	}
	if len(items) == 0 {
		return Session{}, ErrNoItems
	}

	svc.shuffleItems(items)
	if len(items) > count {
		items = items[:count]
	}

	sess := Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Kind:      kind,
		Items:     items,
		Status:    StatusReady,
		Answers:   make(map[int]string),
		Scores:    make(map[int]bool),
		Flags:     make(map[int]bool),
		Filters:   Filters{Selection: sel, Count: count},
		StartedAt: time.Now().UTC(),
	}
	if err = svc.store.Save(ctx, sess); err != nil {
		return Session{}, errors.Wrap(err, "saving session")
	}
	return sess, nil
}

func (svc *Service) Get(ctx context.Context, id, userID string) (Session, error) {
	sess, err := svc.store.Get(ctx, id)
	if err != nil {
		return Session{}, ErrSessionNotFound
	}
	if sess.UserID != userID {
		return Session{}, ErrNotOwner
	}
	return sess, nil
}

// mutate loads the session, applies fn and saves the result back.
func (svc *Service) mutate(ctx context.Context, id, userID string, fn func(*Session) error) (Session, error) {
	sess, err := svc.Get(ctx, id, userID)
	if err != nil {
		return Session{}, err
	}
	if err = fn(&sess); err != nil {
		return Session{}, err
	}
	if err = svc.store.Save(ctx, sess); err != nil {
		return Session{}, errors.Wrap(err, "saving session")
	}
	return sess, nil
}

func (svc *Service) Reveal(ctx context.Context, id, userID string) (Session, error) {
	return svc.mutate(ctx, id, userID, func(s *Session) error { return s.Reveal() })
}

func (svc *Service) Answer(ctx context.Context, id, userID string, itemID int, answer string) (Session, bool, error) {
	var correct bool
	sess, err := svc.mutate(ctx, id, userID, func(s *Session) (err error) {
		correct, err = s.Answer(itemID, answer)
		return err
	})
	return sess, correct, err
}

func (svc *Service) Mark(ctx context.Context, id, userID string, itemID int, correct bool) (Session, error) {
	return svc.mutate(ctx, id, userID, func(s *Session) error { return s.Mark(itemID, correct) })
}

func (svc *Service) Next(ctx context.Context, id, userID string) (Session, error) {
	return svc.mutate(ctx, id, userID, func(s *Session) error { return s.Next() })
}

func (svc *Service) Prev(ctx context.Context, id, userID string) (Session, error) {
	return svc.mutate(ctx, id, userID, func(s *Session) error { return s.Prev() })
}

func (svc *Service) ToggleSessionFlag(ctx context.Context, id, userID string, itemID int) (Session, bool, error) {
	var flagged bool
	sess, err := svc.mutate(ctx, id, userID, func(s *Session) (err error) {
		flagged, err = s.ToggleFlag(itemID)
		return err
	})
	return sess, flagged, err
}

func (svc *Service) Shuffle(ctx context.Context, id, userID string) (Session, error) {
	return svc.mutate(ctx, id, userID, func(s *Session) error {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return s.Shuffle(svc.rng)
	})
}

// Finish closes the session and persists its snapshot. Finishing a session
// that was already closed returns the stored snapshot unchanged.
func (svc *Service) Finish(ctx context.Context, token, id, userID string) (Summary, error) {
	return svc.close(ctx, token, id, userID, CompletionFinished)
}

// Abandon closes the session early. A run with no scored items is dropped
// without leaving a history entry.
func (svc *Service) Abandon(ctx context.Context, token, id, userID string) (Summary, error) {
	return svc.close(ctx, token, id, userID, CompletionAbandoned)
}

func (svc *Service) close(ctx context.Context, token, id, userID, completionType string) (Summary, error) {
	sess, err := svc.Get(ctx, id, userID)
	if err != nil {
		if sum, herr := svc.history.GetSummary(ctx, id); herr == nil && sum.UserID == userID {
			return sum, nil
		}
		return Summary{}, err
	}

	sess.Complete()
	sum := sess.Summary(completionType, time.Now().UTC())

	record := completionType == CompletionFinished || sum.Stats.CorrectCount+sum.Stats.IncorrectCount > 0
	if record {
		if err = svc.history.SaveSummary(ctx, sum); err != nil {
			return Summary{}, errors.Wrap(err, "saving session summary")
		}
		if err = svc.recorder.RecordSession(ctx, token, sum); err != nil {
			svc.logger.Warn("failed to report session upstream", "session", sum.SessionID, "error", err)
		}
	}
	if err = svc.store.Delete(ctx, id); err != nil {
		svc.logger.Warn("failed to drop closed session", "session", id, "error", err)
	}
	return sum, nil
}

// History returns the user's persisted summaries, newest first.
func (svc *Service) History(ctx context.Context, userID string, kind catalog.Kind) ([]Summary, error) {
	sums, err := svc.history.QuerySummaries(ctx, userID, kind)
	if err != nil {
		return nil, errors.Wrap(err, "querying session history")
	}
	return sums, nil
}

// PruneHistory drops summaries older than the configured retention window.
func (svc *Service) PruneHistory(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-svc.conf.HistoryMaxAge)
	return svc.history.DeleteSummariesBefore(ctx, cutoff)
}

func (svc *Service) ToggleBookmark(ctx context.Context, userID string, kind catalog.Kind, productID, itemID int) (bool, error) {
	return svc.bookmarks.ToggleBookmark(ctx, Bookmark{
		UserID:    userID,
		Kind:      kind,
		Product:   productID,
		ItemID:    itemID,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) QueryBookmarks(ctx context.Context, userID string, kind catalog.Kind) ([]Bookmark, error) {
	return svc.bookmarks.QueryBookmarks(ctx, userID, kind)
}

func (svc *Service) shuffleItems(items []catalog.Item) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}
