package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
)

type sessionData struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Index    int    `json:"index"`
	Total    int    `json:"total"`
	Revealed bool   `json:"revealed"`
	Current  *struct {
		ID       int `json:"id"`
		Question *struct {
			QuestionText  string   `json:"question_text"`
			Options       []string `json:"options"`
			CorrectAnswer string   `json:"correct_answer"`
			Explanation   string   `json:"explanation"`
		} `json:"question"`
		Flashcard *struct {
			FrontText string `json:"front_text"`
			BackText  string `json:"back_text"`
		} `json:"flashcard"`
	} `json:"current"`
	Stats struct {
		Total          int     `json:"total"`
		CorrectCount   int     `json:"correct_count"`
		IncorrectCount int     `json:"incorrect_count"`
		FlaggedCount   int     `json:"flagged_count"`
		Accuracy       float64 `json:"accuracy"`
	} `json:"session_stats"`
}

func startSession(t *testing.T, kind, token string, count int) sessionData {
	t.Helper()
	body := []byte(fmt.Sprintf(`{"products":[1],"count":%d}`, count))
	req, rec := newAuthRequest(http.MethodPost, "/api/study/"+kind+"/sessions", token, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("starting session: code = %d; body = %s", rec.Code, rec.Body.String())
	}
	var sess sessionData
	if err := json.Unmarshal(envelope(t, rec), &sess); err != nil {
		t.Fatal(err)
	}
	return sess
}

func sessionAction(t *testing.T, token, kind, id, action string, body ...[]byte) json.RawMessage {
	t.Helper()
	req, rec := newAuthRequest(http.MethodPost, "/api/study/"+kind+"/sessions/"+id+"/"+action, token, body...)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("%s: code = %d; body = %s", action, rec.Code, rec.Body.String())
	}
	return envelope(t, rec)
}

func Test_studyApi_startSession(t *testing.T) {
	tests := []httpTest{
		{
			name: "Auth required", path: "/api/study/question-bank/sessions",
			body:     []byte(`{"products":[1],"count":10}`),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Unknown kind", path: "/api/study/podcasts/sessions", token: studentToken(t, "u1"),
			body:     []byte(`{"products":[1],"count":10}`),
			wantCode: http.StatusNotFound,
		},
		{
			name: "Created", path: "/api/study/question-bank/sessions", token: studentToken(t, "u1"),
			body:     []byte(`{"products":[1],"count":10}`),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_studyApi_quizBatchTruncated(t *testing.T) {
	sess := startSession(t, "question-bank", studentToken(t, "u1"), 10)
	// upstream holds 40 questions; the batch must be cut to the requested 10
	if sess.Total != 10 {
		t.Errorf("total = %d, want 10", sess.Total)
	}
	if sess.Status != "ready" {
		t.Errorf("status = %q, want ready", sess.Status)
	}
	if sess.Current == nil || sess.Current.Question == nil {
		t.Fatal("current question missing")
	}
	// answers stay hidden until the item is revealed
	if sess.Current.Question.CorrectAnswer != "" {
		t.Error("correct answer leaked before reveal")
	}
}

func Test_studyApi_quizAnswerFlow(t *testing.T) {
	token := studentToken(t, "u1")
	sess := startSession(t, "question-bank", token, 3)
	itemID := sess.Current.ID

	// answering reveals correctness and locks the item
	body := []byte(fmt.Sprintf(`{"item_id":%d,"answer":"b"}`, itemID))
	data := sessionAction(t, token, "question-bank", sess.ID, "answer", body)

	var result struct {
		Correct bool        `json:"correct"`
		Session sessionData `json:"session"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatal(err)
	}
	if !result.Correct {
		t.Error("answer \"b\" should be correct")
	}
	if result.Session.Stats.CorrectCount != 1 {
		t.Errorf("correct_count = %d, want 1", result.Session.Stats.CorrectCount)
	}
	if result.Session.Current.Question.CorrectAnswer != "b" {
		t.Error("correct answer should be exposed after answering")
	}

	// a second answer for the same item conflicts
	req, rec := newAuthRequest(http.MethodPost, "/api/study/question-bank/sessions/"+sess.ID+"/answer", token, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("re-answer code = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func Test_studyApi_flashcardFlow(t *testing.T) {
	token := studentToken(t, "u2")
	sess := startSession(t, "flashcards", token, 5)
	if sess.Total != 5 {
		t.Fatalf("total = %d, want 5", sess.Total)
	}
	itemID := sess.Current.ID

	// flip, mark known, advance
	_ = sessionAction(t, token, "flashcards", sess.ID, "reveal")
	markBody := []byte(fmt.Sprintf(`{"item_id":%d,"correct":true}`, itemID))
	data := sessionAction(t, token, "flashcards", sess.ID, "mark", markBody)

	var after sessionData
	if err := json.Unmarshal(data, &after); err != nil {
		t.Fatal(err)
	}
	if after.Stats.CorrectCount != 1 || after.Stats.Accuracy != 100 {
		t.Errorf("stats = %+v", after.Stats)
	}

	data = sessionAction(t, token, "flashcards", sess.ID, "next")
	if err := json.Unmarshal(data, &after); err != nil {
		t.Fatal(err)
	}
	if after.Index != 1 || after.Revealed {
		t.Errorf("after next: index = %d revealed = %v", after.Index, after.Revealed)
	}

	// shuffle keeps the score and resets the cursor
	data = sessionAction(t, token, "flashcards", sess.ID, "shuffle")
	if err := json.Unmarshal(data, &after); err != nil {
		t.Fatal(err)
	}
	if after.Index != 0 || after.Stats.CorrectCount != 1 {
		t.Errorf("after shuffle: %+v", after)
	}
}

func Test_studyApi_finishIsIdempotent(t *testing.T) {
	token := studentToken(t, "u3")
	sess := startSession(t, "flashcards", token, 3)
	markBody := []byte(fmt.Sprintf(`{"item_id":%d,"correct":false}`, sess.Current.ID))
	_ = sessionAction(t, token, "flashcards", sess.ID, "mark", markBody)

	data := sessionAction(t, token, "flashcards", sess.ID, "finish")
	var sum struct {
		SessionID      string `json:"session_id"`
		CompletionType string `json:"completion_type"`
		Stats          struct {
			IncorrectCount int `json:"incorrect_count"`
		} `json:"session_stats"`
	}
	if err := json.Unmarshal(data, &sum); err != nil {
		t.Fatal(err)
	}
	if sum.CompletionType != "finished" || sum.Stats.IncorrectCount != 1 {
		t.Errorf("summary = %+v", sum)
	}

	// finishing again replays the stored snapshot
	data = sessionAction(t, token, "flashcards", sess.ID, "finish")
	var again struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(data, &again); err != nil {
		t.Fatal(err)
	}
	if again.SessionID != sum.SessionID {
		t.Errorf("second finish returned %q, want %q", again.SessionID, sum.SessionID)
	}

	// and the summary shows up in history
	req, rec := newAuthRequest(http.MethodGet, "/api/study/flashcards/history", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("history code = %d", rec.Code)
	}
	var sums []struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(envelope(t, rec), &sums); err != nil {
		t.Fatal(err)
	}
	if len(sums) != 1 || sums[0].SessionID != sum.SessionID {
		t.Errorf("history = %+v", sums)
	}
}

func Test_studyApi_sessionOwnership(t *testing.T) {
	owner := studentToken(t, "owner")
	intruder := studentToken(t, "intruder")
	sess := startSession(t, "flashcards", owner, 3)

	req, rec := newAuthRequest(http.MethodGet, "/api/study/flashcards/sessions/"+sess.ID, intruder)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("code = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func Test_studyApi_bookmarks(t *testing.T) {
	token := studentToken(t, "u4")

	req, rec := newAuthRequest(http.MethodPost, "/api/study/question-bank/bookmarks", token, []byte(`{"product":1,"item_id":7}`))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle code = %d; body = %s", rec.Code, rec.Body.String())
	}
	var toggled struct {
		Flagged bool `json:"flagged"`
	}
	if err := json.Unmarshal(envelope(t, rec), &toggled); err != nil {
		t.Fatal(err)
	}
	if !toggled.Flagged {
		t.Error("first toggle should flag")
	}

	req, rec = newAuthRequest(http.MethodGet, "/api/study/question-bank/bookmarks", token)
	app.ServeHTTP(rec, req)
	var bms []struct {
		ItemID int `json:"item_id"`
	}
	if err := json.Unmarshal(envelope(t, rec), &bms); err != nil {
		t.Fatal(err)
	}
	if len(bms) != 1 || bms[0].ItemID != 7 {
		t.Errorf("bookmarks = %+v", bms)
	}
}
