package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/catalog"
	"github.com/trezcool/darasa/core/study"
)

var timeNow = time.Now

type studyApi struct {
	svc *study.Service
}

func registerStudyAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *study.Service) {
	api := studyApi{svc: svc}

	sg := g.Group("/study/:kind", jwt)

	sg.POST("/sessions", api.startSession)
	sg.GET("/sessions/:id", api.getSession)
	sg.POST("/sessions/:id/reveal", api.reveal)
	sg.POST("/sessions/:id/answer", api.answer)
	sg.POST("/sessions/:id/mark", api.mark)
	sg.POST("/sessions/:id/next", api.next)
	sg.POST("/sessions/:id/prev", api.prev)
	sg.POST("/sessions/:id/flag", api.flag)
	sg.POST("/sessions/:id/shuffle", api.shuffle)
	sg.POST("/sessions/:id/finish", api.finish)
	sg.POST("/sessions/:id/abandon", api.abandon)

	sg.GET("/history", api.history)
	sg.GET("/bookmarks", api.queryBookmarks)
	sg.POST("/bookmarks", api.toggleBookmark)
}

// sessionView is what the client sees of a session: correct answers stay
// server-side until the matching item is revealed.
type sessionView struct {
	ID       string         `json:"id"`
	Kind     catalog.Kind   `json:"kind"`
	Status   string         `json:"status"`
	Index    int            `json:"index"`
	Total    int            `json:"total"`
	Revealed bool           `json:"revealed"`
	Current  *itemView      `json:"current,omitempty"`
	Answers  map[int]string `json:"answers"`
	Scores   map[int]bool   `json:"scores"`
	Flags    map[int]bool   `json:"flags"`
	Stats    study.Stats    `json:"session_stats"`
}

type itemView struct {
	ID        int                `json:"id"`
	Question  *questionView      `json:"question,omitempty"`
	Flashcard *catalog.Flashcard `json:"flashcard,omitempty"`
}

type questionView struct {
	ID            int      `json:"id"`
	QuestionText  string   `json:"question_text"`
	QuestionType  string   `json:"question_type"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
	Image         string   `json:"image,omitempty"`
	Audio         string   `json:"audio,omitempty"`
	Video         string   `json:"video,omitempty"`
}

func newSessionView(sess study.Session) sessionView {
	view := sessionView{
		ID:       sess.ID,
		Kind:     sess.Kind,
		Status:   sess.Status,
		Index:    sess.Index,
		Total:    len(sess.Items),
		Revealed: sess.Revealed,
		Answers:  sess.Answers,
		Scores:   sess.Scores,
		Flags:    sess.Flags,
		Stats:    sess.Stats(timeNow()),
	}
	if cur, ok := sess.Current(); ok && !sess.Terminal() {
		iv := itemView{ID: cur.ID, Flashcard: cur.Flashcard}
		if cur.Question != nil {
			qv := questionView{
				ID:           cur.Question.ID,
				QuestionText: cur.Question.QuestionText,
				QuestionType: cur.Question.QuestionType,
				Options:      cur.Question.Options,
				Image:        cur.Question.Image,
				Audio:        cur.Question.Audio,
				Video:        cur.Question.Video,
			}
			if _, answered := sess.Scores[cur.ID]; answered || sess.Revealed {
				qv.CorrectAnswer = cur.Question.CorrectAnswer
				qv.Explanation = cur.Question.Explanation
			}
			iv.Question = &qv
		}
		view.Current = &iv
	}
	return view
}

func sessionResponse(ctx echo.Context, code int, sess study.Session) error {
	return respond(ctx, code, newSessionView(sess))
}

type startSessionRequest struct {
	Products []int `json:"products"`
	Chapters []int `json:"chapters"`
	Topics   []int `json:"topics"`
	Count    int   `json:"count"`
}

func (api *studyApi) startSession(ctx echo.Context) error {
	kind, err := contextKind(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	var data startSessionRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to startSessionRequest")
	}

	sel := catalog.Selection{Products: data.Products, Chapters: data.Chapters, Topics: data.Topics}
	sess, err := api.svc.Start(ctx.Request().Context(), getRawToken(ctx), claims.Subject, kind, sel, data.Count)
	if err != nil {
		return errors.Wrap(err, "starting session")
	}
	return sessionResponse(ctx, http.StatusCreated, sess)
}

func (api *studyApi) getSession(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	sess, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return sessionResponse(ctx, http.StatusOK, sess)
}

func (api *studyApi) reveal(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	sess, err := api.svc.Reveal(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return sessionResponse(ctx, http.StatusOK, sess)
}

type answerRequest struct {
	ItemID int    `json:"item_id"`
	Answer string `json:"answer"`
}

func (api *studyApi) answer(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	var data answerRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to answerRequest")
	}

	sess, correct, err := api.svc.Answer(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data.ItemID, data.Answer)
	if err != nil {
		return err
	}

	view := newSessionView(sess)
	return respond(ctx, http.StatusOK, echo.Map{"correct": correct, "session": view})
}

type markRequest struct {
	ItemID  int  `json:"item_id"`
	Correct bool `json:"correct"`
}

func (api *studyApi) mark(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	var data markRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to markRequest")
	}

	sess, err := api.svc.Mark(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data.ItemID, data.Correct)
	if err != nil {
		return err
	}
	return sessionResponse(ctx, http.StatusOK, sess)
}

func (api *studyApi) next(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	sess, err := api.svc.Next(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return sessionResponse(ctx, http.StatusOK, sess)
}

func (api *studyApi) prev(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	sess, err := api.svc.Prev(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return sessionResponse(ctx, http.StatusOK, sess)
}

type flagRequest struct {
	ItemID int `json:"item_id"`
}

func (api *studyApi) flag(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	var data flagRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to flagRequest")
	}

	sess, flagged, err := api.svc.ToggleSessionFlag(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data.ItemID)
	if err != nil {
		return err
	}

	view := newSessionView(sess)
	return respond(ctx, http.StatusOK, echo.Map{"flagged": flagged, "session": view})
}

func (api *studyApi) shuffle(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	sess, err := api.svc.Shuffle(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return sessionResponse(ctx, http.StatusOK, sess)
}

func (api *studyApi) finish(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	sum, err := api.svc.Finish(ctx.Request().Context(), getRawToken(ctx), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, sum)
}

func (api *studyApi) abandon(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	sum, err := api.svc.Abandon(ctx.Request().Context(), getRawToken(ctx), ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, sum)
}

func (api *studyApi) history(ctx echo.Context) error {
	kind, err := contextKind(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	sums, err := api.svc.History(ctx.Request().Context(), claims.Subject, kind)
	if err != nil {
		return errors.Wrap(err, "querying history")
	}
	return respond(ctx, http.StatusOK, sums)
}

type bookmarkRequest struct {
	Product int `json:"product"`
	ItemID  int `json:"item_id"`
}

func (api *studyApi) toggleBookmark(ctx echo.Context) error {
	kind, err := contextKind(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	var data bookmarkRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to bookmarkRequest")
	}

	flagged, err := api.svc.ToggleBookmark(ctx.Request().Context(), claims.Subject, kind, data.Product, data.ItemID)
	if err != nil {
		return errors.Wrap(err, "toggling bookmark")
	}
	return respond(ctx, http.StatusOK, echo.Map{"flagged": flagged})
}

func (api *studyApi) queryBookmarks(ctx echo.Context) error {
	kind, err := contextKind(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	bms, err := api.svc.QueryBookmarks(ctx.Request().Context(), claims.Subject, kind)
	if err != nil {
		return errors.Wrap(err, "querying bookmarks")
	}
	return respond(ctx, http.StatusOK, bms)
}
