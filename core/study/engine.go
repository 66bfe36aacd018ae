package study

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/catalog"
)

var (
	ErrSessionCompleted = errors.New("session already completed")
	ErrNotCurrentItem   = errors.New("item is not the current item")
	ErrAnswerLocked     = errors.New("item already answered")
	ErrUnknownItem      = errors.New("item not in session")
)

// Current returns the item at the cursor.
func (s *Session) Current() (catalog.Item, bool) {
	if s.Index < 0 || s.Index >= len(s.Items) {
		return catalog.Item{}, false
	}
	return s.Items[s.Index], true
}

func (s *Session) hasItem(id int) bool {
	for _, it := range s.Items {
		if it.ID == id {
			return true
		}
	}
	return false
}

// Reveal exposes the current item's answer side. For flashcards this is the
// card flip; for quizzes it shows the explanation without recording a score.
func (s *Session) Reveal() error {
	if s.Terminal() {
		return ErrSessionCompleted
	}
	s.Revealed = true
	s.Status = StatusRevealed
	return nil
}

// Answer records a quiz answer for the current item and scores it against
// the correct answer. An item scores exactly once; repeated submissions for
// an already-answered item are rejected and leave the score untouched.
func (s *Session) Answer(itemID int, answer string) (correct bool, err error) {
	if s.Terminal() {
		return false, ErrSessionCompleted
	}
	cur, ok := s.Current()
	if !ok || cur.ID != itemID {
		return false, ErrNotCurrentItem
	}
	if _, done := s.Scores[itemID]; done {
		return s.Scores[itemID], ErrAnswerLocked
	}
	want, _ := cur.CorrectAnswer()
	correct = answer == want
	s.Answers[itemID] = answer
	s.Scores[itemID] = correct
	s.Revealed = true
	s.Status = StatusRevealed
	return correct, nil
}

// Mark scores the current flashcard as known or not known. Re-marking an
// already-scored card overwrites its verdict without double counting.
func (s *Session) Mark(itemID int, correct bool) error {
	if s.Terminal() {
		return ErrSessionCompleted
	}
	cur, ok := s.Current()
	if !ok || cur.ID != itemID {
		return ErrNotCurrentItem
	}
	s.Scores[itemID] = correct
	s.Status = StatusAnswering
	return nil
}

// Next advances the cursor and resets the reveal state. Advancing past the
// last item completes the session.
func (s *Session) Next() error {
	if s.Terminal() {
		return ErrSessionCompleted
	}
	if s.Index >= len(s.Items)-1 {
		s.Status = StatusCompleted
		return nil
	}
	s.Index++
	s.Revealed = false
	s.Status = StatusAnswering
	return nil
}

// Prev moves the cursor back one item; it is a no-op on the first item.
func (s *Session) Prev() error {
	if s.Terminal() {
		return ErrSessionCompleted
	}
	if s.Index > 0 {
		s.Index--
	}
	s.Revealed = false
	s.Status = StatusAnswering
	return nil
}

// ToggleFlag flips the flagged state of any item in the session, current or
// not. Flags are independent of scoring and survive navigation and shuffles.
func (s *Session) ToggleFlag(itemID int) (flagged bool, err error) {
	if s.Terminal() {
		return false, ErrSessionCompleted
	}
	if !s.hasItem(itemID) {
		return false, ErrUnknownItem
	}
	if s.Flags[itemID] {
		delete(s.Flags, itemID)
		return false, nil
	}
	s.Flags[itemID] = true
	return true, nil
}

// Shuffle reorders the remaining run, resets the cursor and reveal state,
// and keeps all recorded scores, answers and flags.
func (s *Session) Shuffle(rng *rand.Rand) error {
	if s.Terminal() {
		return ErrSessionCompleted
	}
	rng.Shuffle(len(s.Items), func(i, j int) {
		s.Items[i], s.Items[j] = s.Items[j], s.Items[i]
	})
	s.Index = 0
	s.Revealed = false
	s.Status = StatusAnswering
	return nil
}

// Complete marks the session terminal. Completing a completed session is a
// no-op.
func (s *Session) Complete() {
	s.Status = StatusCompleted
}

// Stats computes the running counters for the session as of now.
func (s *Session) Stats(now time.Time) Stats {
	st := Stats{
		Total:        len(s.Items),
		FlaggedCount: len(s.Flags),
	}
	for _, correct := range s.Scores {
		if correct {
			st.CorrectCount++
		} else {
			st.IncorrectCount++
		}
	}
	if scored := st.CorrectCount + st.IncorrectCount; scored > 0 {
		st.Accuracy = float64(st.CorrectCount) / float64(scored) * 100
	}
	if spent := now.Sub(s.StartedAt); spent > 0 {
		st.TimeSpent = int64(spent.Seconds())
	}
	return st
}

// Summary freezes the session into its persisted snapshot.
func (s *Session) Summary(completionType string, now time.Time) Summary {
	sum := Summary{
		SessionID:      s.ID,
		UserID:         s.UserID,
		Kind:           s.Kind,
		ItemIDs:        make([]int, 0, len(s.Items)),
		CompletedItems: make([]int, 0, len(s.Scores)),
		FlaggedItems:   make([]int, 0, len(s.Flags)),
		Stats:          s.Stats(now),
		Filters:        s.Filters,
		CompletionType: completionType,
		SessionDate:    now,
	}
	for _, it := range s.Items {
		sum.ItemIDs = append(sum.ItemIDs, it.ID)
		if _, ok := s.Scores[it.ID]; ok {
			sum.CompletedItems = append(sum.CompletedItems, it.ID)
		}
		if s.Flags[it.ID] {
			sum.FlaggedItems = append(sum.FlaggedItems, it.ID)
		}
	}
	return sum
}
