package catalog

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

type (
	ProductPayload struct {
		Title       string   `json:"title" validate:"required,notblank,max=255"`
		Description string   `json:"description"`
		Course      int      `json:"course,omitempty"`
		Price       float64  `json:"price" validate:"gte=0"`
		IsFree      bool     `json:"is_free"`
		Status      string   `json:"status" validate:"required,oneof=draft published archived"`
		Tags        []string `json:"tags"`
	}

	ChapterPayload struct {
		Title       string `json:"title" validate:"required,notblank,max=255"`
		Description string `json:"description"`
		Order       int    `json:"order" validate:"gte=0"`
		Product     int    `json:"product" validate:"required,gt=0"`
	}

	TopicPayload struct {
		Title       string `json:"title" validate:"required,notblank,max=255"`
		Description string `json:"description"`
		Order       int    `json:"order" validate:"gte=0"`
		Chapter     int    `json:"chapter" validate:"required,gt=0"`
	}

	QuestionPayload struct {
		QuestionText    string   `json:"question_text" validate:"required,notblank"`
		QuestionType    string   `json:"question_type" validate:"required,oneof=mcq true_false"`
		Options         []string `json:"options"`
		CorrectAnswer   string   `json:"correct_answer" validate:"required,notblank"`
		Explanation     string   `json:"explanation"`
		DifficultyLevel string   `json:"difficulty_level" validate:"omitempty,oneof=easy medium hard"`
		Topic           int      `json:"topic" validate:"required,gt=0"`
		Tags            []string `json:"tags"`
	}

	FlashcardPayload struct {
		FrontText string   `json:"front_text" validate:"required,notblank"`
		BackText  string   `json:"back_text" validate:"required,notblank"`
		Topic     int      `json:"topic" validate:"required,gt=0"`
		Tags      []string `json:"tags"`
	}
)

func (p *ProductPayload) Validate(validate *validator.Validate) error {
	p.Title = core.CleanString(p.Title)
	return validate.Struct(p)
}

func (c *ChapterPayload) Validate(validate *validator.Validate) error {
	c.Title = core.CleanString(c.Title)
	return validate.Struct(c)
}

func (t *TopicPayload) Validate(validate *validator.Validate) error {
	t.Title = core.CleanString(t.Title)
	return validate.Struct(t)
}

func (q *QuestionPayload) Validate(validate *validator.Validate) error {
	q.QuestionText = core.CleanString(q.QuestionText)
	q.CorrectAnswer = core.CleanString(q.CorrectAnswer)
	return validate.Struct(q)
}

func (f *FlashcardPayload) Validate(validate *validator.Validate) error {
	f.FrontText = core.CleanString(f.FrontText)
	f.BackText = core.CleanString(f.BackText)
	return validate.Struct(f)
}
