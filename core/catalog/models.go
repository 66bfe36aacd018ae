package catalog

import (
	"time"
)

// Kind discriminates the two content catalogs served upstream.
type Kind string

const (
	KindQuestionBank Kind = "question-bank"
	KindFlashcards   Kind = "flashcards"
)

func (k Kind) Valid() bool {
	return k == KindQuestionBank || k == KindFlashcards
}

// Product publication statuses, as defined upstream.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

type (
	// CourseRef is the denormalized course summary embedded in product payloads.
	CourseRef struct {
		ID    int    `json:"id"`
		Title string `json:"title"`
	}

	Product struct {
		ID              int        `json:"id"`
		Title           string     `json:"title"`
		Description     string     `json:"description"`
		Course          *CourseRef `json:"course,omitempty"`
		Price           float64    `json:"price"`
		IsFree          bool       `json:"is_free"`
		Status          string     `json:"status"`
		Tags            []string   `json:"tags"`
		QuestionsCount  int        `json:"questions_count,omitempty"`
		FlashcardsCount int        `json:"flashcards_count,omitempty"`
		ChaptersCount   int        `json:"chapters_count"`
		CreatedAt       time.Time  `json:"created_at"`
	}

	Chapter struct {
		ID              int    `json:"id"`
		Title           string `json:"title"`
		Description     string `json:"description"`
		Order           int    `json:"order"`
		Product         int    `json:"product"`
		ProductTitle    string `json:"product_title,omitempty"`
		TopicsCount     int    `json:"topics_count"`
		QuestionsCount  int    `json:"questions_count,omitempty"`
		FlashcardsCount int    `json:"flashcards_count,omitempty"`
	}

	Topic struct {
		ID              int    `json:"id"`
		Title           string `json:"title"`
		Description     string `json:"description"`
		Order           int    `json:"order"`
		Chapter         int    `json:"chapter"`
		ChapterTitle    string `json:"chapter_title,omitempty"`
		QuestionsCount  int    `json:"questions_count,omitempty"`
		FlashcardsCount int    `json:"flashcards_count,omitempty"`
	}

	Question struct {
		ID              int      `json:"id"`
		QuestionText    string   `json:"question_text"`
		QuestionType    string   `json:"question_type"` // mcq | true_false
		Options         []string `json:"options"`
		CorrectAnswer   string   `json:"correct_answer"`
		Explanation     string   `json:"explanation"`
		DifficultyLevel string   `json:"difficulty_level"`
		Tags            []string `json:"tags"`
		Product         int      `json:"product"`
		Topic           int      `json:"topic"`
		Image           string   `json:"image,omitempty"`
		Audio           string   `json:"audio,omitempty"`
		Video           string   `json:"video,omitempty"`
	}

	Flashcard struct {
		ID         int      `json:"id"`
		FrontText  string   `json:"front_text"`
		BackText   string   `json:"back_text"`
		FrontImage string   `json:"front_image,omitempty"`
		BackImage  string   `json:"back_image,omitempty"`
		Topic      int      `json:"topic"`
		Product    int      `json:"product"`
		Tags       []string `json:"tags"`
	}

	// Item is the session-facing union of the two content types.
	Item struct {
		ID        int        `json:"id"`
		Question  *Question  `json:"question,omitempty"`
		Flashcard *Flashcard `json:"flashcard,omitempty"`
	}
)

// ItemCount returns the denormalized item counter matching the catalog kind.
func (p Product) ItemCount(kind Kind) int {
	if kind == KindFlashcards {
		return p.FlashcardsCount
	}
	return p.QuestionsCount
}

func (c Chapter) ItemCount(kind Kind) int {
	if kind == KindFlashcards {
		return c.FlashcardsCount
	}
	return c.QuestionsCount
}

func (t Topic) ItemCount(kind Kind) int {
	if kind == KindFlashcards {
		return t.FlashcardsCount
	}
	return t.QuestionsCount
}

// CorrectAnswer is only meaningful for question items; flashcards are
// self-scored by the student.
func (it Item) CorrectAnswer() (string, bool) {
	if it.Question == nil {
		return "", false
	}
	return it.Question.CorrectAnswer, true
}
