package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
)

// upstreamFreezeHits counts freeze requests that reached the stub upstream.
var upstreamFreezeHits int32

type httpErr struct {
	Success bool        `json:"success"`
	Error   interface{} `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, claims *echoapi.Claims) string {
	t.Helper()
	if claims.ExpiresAt == 0 {
		claims.ExpiresAt = time.Now().Add(time.Hour).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return ss
}

func studentToken(t *testing.T, userID string) string {
	return getToken(t, &echoapi.Claims{
		StandardClaims: jwt.StandardClaims{Subject: userID},
		Username:       "student",
		Email:          userID + "@test.test",
		IsStudent:      true,
	})
}

func teacherToken(t *testing.T, userID string) string {
	return getToken(t, &echoapi.Claims{
		StandardClaims: jwt.StandardClaims{Subject: userID},
		Username:       "teacher",
		Email:          userID + "@test.test",
		IsTeacher:      true,
	})
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body = %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

// envelope pulls the data payload out of a success response.
func envelope(t *testing.T, rec *httptest.ResponseRecorder) json.RawMessage {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding envelope: %v; body = %s", err, rec.Body.String())
	}
	if !resp.Success {
		t.Fatalf("response not successful: %s", rec.Body.String())
	}
	return resp.Data
}

// upstreamStub fakes the academia API with a fixed content tree.
func upstreamStub() http.Handler {
	mux := http.NewServeMux()

	writePage := func(w http.ResponseWriter, count int, results string) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":` + strconv.Itoa(count) + `,"results":` + results + `}`))
	}

	mux.HandleFunc("/api/assessment/question-bank-products/", func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimPrefix(r.URL.Path, "/api/assessment/question-bank-products/") == "1/" {
			switch r.Method {
			case http.MethodDelete:
				w.WriteHeader(http.StatusNoContent)
			default:
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"id":1,"title":"Anatomy QBank","status":"published","questions_count":40,"chapters_count":2}`))
			}
			return
		}
		switch r.Method {
		case http.MethodPost:
			var data map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&data)
			if data["title"] == "" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"title":["This field may not be blank."]}`))
				return
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":9,"title":"New Product","status":"draft"}`))
		default:
			writePage(w, 2, `[
				{"id":1,"title":"Anatomy QBank","status":"published","questions_count":40,"chapters_count":2},
				{"id":2,"title":"Physiology QBank","status":"published","questions_count":25,"chapters_count":1}
			]`)
		}
	})

	mux.HandleFunc("/api/assessment/question-bank-chapters/", func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimPrefix(r.URL.Path, "/api/assessment/question-bank-chapters/") == "10/" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":10,"title":"Upper Limb","order":1,"product":1,"topics_count":3,"questions_count":15}`))
			return
		}
		writePage(w, 2, `[
			{"id":11,"title":"Lower Limb","order":2,"product":1,"topics_count":2,"questions_count":25},
			{"id":10,"title":"Upper Limb","order":1,"product":1,"topics_count":3,"questions_count":15}
		]`)
	})

	mux.HandleFunc("/api/assessment/question-bank-topics/", func(w http.ResponseWriter, r *http.Request) {
		writePage(w, 1, `[{"id":100,"title":"Shoulder","order":1,"chapter":10,"questions_count":5}]`)
	})

	mux.HandleFunc("/api/assessment/questions/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var data struct {
				QuestionText string `json:"question_text"`
			}
			_ = json.NewDecoder(r.Body).Decode(&data)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":900,"question_text":"` + data.QuestionText + `","question_type":"mcq","correct_answer":"b","topic":100}`))
			return
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
			return
		}
		pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
		questions := make([]string, 0)
		n := 40
		if pageSize > 0 && pageSize < n {
			n = pageSize
		}
		for i := 1; i <= n; i++ {
			questions = append(questions,
				`{"id":`+strconv.Itoa(i)+`,"question_text":"Q`+strconv.Itoa(i)+`","question_type":"mcq","options":["a","b","c"],"correct_answer":"b","explanation":"because"}`)
		}
		writePage(w, 40, "["+strings.Join(questions, ",")+"]")
	})

	mux.HandleFunc("/api/assessment/flashcard-products/", func(w http.ResponseWriter, r *http.Request) {
		writePage(w, 1, `[{"id":5,"title":"Anatomy Cards","status":"published","flashcards_count":12,"chapters_count":1}]`)
	})

	mux.HandleFunc("/api/assessment/flashcards/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":901,"front_text":"Deltoid origin","back_text":"Clavicle, acromion, spine of scapula","topic":100}`))
			return
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
			return
		}
		pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
		cards := make([]string, 0)
		n := 12
		if pageSize > 0 && pageSize < n {
			n = pageSize
		}
		for i := 1; i <= n; i++ {
			cards = append(cards,
				`{"id":`+strconv.Itoa(i)+`,"front_text":"F`+strconv.Itoa(i)+`","back_text":"B`+strconv.Itoa(i)+`"}`)
		}
		writePage(w, 12, "["+strings.Join(cards, ",")+"]")
	})

	mux.HandleFunc("/api/assessment/enrollment-status/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"questionBank":{"is_enrolled":true,"products":[1,2]},"flashcards":{"is_enrolled":false}}`))
	})

	mux.HandleFunc("/api/assessment/study-sessions/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc("/api/users/account/freeze/status/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"is_frozen":false,"has_used_freeze":true,"frozen_by_admin":false,"admin_notes":"lifted early","remaining_days":null}`))
	})

	mux.HandleFunc("/api/users/account/freeze/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&upstreamFreezeHits, 1)
		var data struct {
			FreezeReason  string `json:"freeze_reason"`
			FreezeEndDate string `json:"freeze_end_date"`
		}
		_ = json.NewDecoder(r.Body).Decode(&data)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"is_frozen":true,"has_used_freeze":true,"remaining_days":30,"freeze_reason":"` + data.FreezeReason + `","freeze_end_date":"` + data.FreezeEndDate + `"}`))
	})

	mux.HandleFunc("/api/users/account/unfreeze/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"is_frozen":false}`))
	})

	return mux
}
