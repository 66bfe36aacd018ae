// Package academia is the typed client for the upstream assessment API.
// All methods attach the caller's bearer token as-is; darasa never holds
// credentials of its own.
package academia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/account"
	"github.com/trezcool/darasa/core/catalog"
	"github.com/trezcool/darasa/core/study"
)

type Client struct {
	baseURL string
	http    *http.Client
	logger  core.Logger
}

var (
	_ catalog.Repository = (*Client)(nil)
	_ account.Repository = (*Client)(nil)
	_ study.Recorder     = (*Client)(nil)
)

func NewClient(conf core.AcademiaConfig, logger core.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(conf.BaseURL, "/"),
		http:    &http.Client{Timeout: conf.Timeout},
		logger:  logger,
	}
}

// page is the upstream's paginated list envelope.
type page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func (c *Client) do(ctx context.Context, token, method, path string, query url.Values, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := c.newRequest(ctx, token, method, path, query, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "reading %s response", path)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, respBody)
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err = json.Unmarshal(respBody, out); err != nil {
		return errors.Wrapf(err, "decoding %s response", path)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, token, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, errors.Wrapf(err, "building %s request", path)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// upstream path layout: parallel trees per catalog kind.

func productsPath(kind catalog.Kind) string {
	if kind == catalog.KindFlashcards {
		return "/api/assessment/flashcard-products/"
	}
	return "/api/assessment/question-bank-products/"
}

func chaptersPath(kind catalog.Kind) string {
	if kind == catalog.KindFlashcards {
		return "/api/assessment/flashcard-chapters/"
	}
	return "/api/assessment/question-bank-chapters/"
}

func topicsPath(kind catalog.Kind) string {
	if kind == catalog.KindFlashcards {
		return "/api/assessment/flashcard-topics/"
	}
	return "/api/assessment/question-bank-topics/"
}

func itemsPath(kind catalog.Kind) string {
	if kind == catalog.KindFlashcards {
		return "/api/assessment/flashcards/"
	}
	return "/api/assessment/questions/"
}

func detailPath(base string, id int) string {
	return fmt.Sprintf("%s%d/", base, id)
}

// ----- catalog.Repository -----

func (c *Client) QueryProducts(ctx context.Context, token string, kind catalog.Kind, filter catalog.ProductFilter) ([]catalog.Product, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.EnrolledOnly {
		q.Set("enrolled_only", "true")
	}
	if filter.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(filter.PageSize))
	}
	var pg page[catalog.Product]
	if err := c.do(ctx, token, http.MethodGet, productsPath(kind), q, nil, &pg); err != nil {
		return nil, err
	}
	return pg.Results, nil
}

func (c *Client) GetProduct(ctx context.Context, token string, kind catalog.Kind, id int) (catalog.Product, error) {
	var prod catalog.Product
	err := c.do(ctx, token, http.MethodGet, detailPath(productsPath(kind), id), nil, nil, &prod)
	return prod, err
}

func (c *Client) CreateProduct(ctx context.Context, token string, kind catalog.Kind, data catalog.ProductPayload) (catalog.Product, error) {
	var prod catalog.Product
	err := c.do(ctx, token, http.MethodPost, productsPath(kind), nil, data, &prod)
	return prod, err
}

func (c *Client) UpdateProduct(ctx context.Context, token string, kind catalog.Kind, id int, data catalog.ProductPayload) (catalog.Product, error) {
	var prod catalog.Product
	err := c.do(ctx, token, http.MethodPut, detailPath(productsPath(kind), id), nil, data, &prod)
	return prod, err
}

func (c *Client) DeleteProduct(ctx context.Context, token string, kind catalog.Kind, id int) error {
	return c.do(ctx, token, http.MethodDelete, detailPath(productsPath(kind), id), nil, nil, nil)
}

func (c *Client) QueryChapters(ctx context.Context, token string, kind catalog.Kind, productID int) ([]catalog.Chapter, error) {
	q := url.Values{"product": {strconv.Itoa(productID)}, "page_size": {"100"}}
	var pg page[catalog.Chapter]
	if err := c.do(ctx, token, http.MethodGet, chaptersPath(kind), q, nil, &pg); err != nil {
		return nil, err
	}
	return pg.Results, nil
}

func (c *Client) GetChapter(ctx context.Context, token string, kind catalog.Kind, id int) (catalog.Chapter, error) {
	var ch catalog.Chapter
	err := c.do(ctx, token, http.MethodGet, detailPath(chaptersPath(kind), id), nil, nil, &ch)
	return ch, err
}

func (c *Client) CreateChapter(ctx context.Context, token string, kind catalog.Kind, data catalog.ChapterPayload) (catalog.Chapter, error) {
	var ch catalog.Chapter
	err := c.do(ctx, token, http.MethodPost, chaptersPath(kind), nil, data, &ch)
	return ch, err
}

func (c *Client) UpdateChapter(ctx context.Context, token string, kind catalog.Kind, id int, data catalog.ChapterPayload) (catalog.Chapter, error) {
	var ch catalog.Chapter
	err := c.do(ctx, token, http.MethodPut, detailPath(chaptersPath(kind), id), nil, data, &ch)
	return ch, err
}

func (c *Client) DeleteChapter(ctx context.Context, token string, kind catalog.Kind, id int) error {
	return c.do(ctx, token, http.MethodDelete, detailPath(chaptersPath(kind), id), nil, nil, nil)
}

func (c *Client) QueryTopics(ctx context.Context, token string, kind catalog.Kind, chapterID int) ([]catalog.Topic, error) {
	q := url.Values{"chapter": {strconv.Itoa(chapterID)}, "page_size": {"100"}}
	var pg page[catalog.Topic]
	if err := c.do(ctx, token, http.MethodGet, topicsPath(kind), q, nil, &pg); err != nil {
		return nil, err
	}
	return pg.Results, nil
}

func (c *Client) GetTopic(ctx context.Context, token string, kind catalog.Kind, id int) (catalog.Topic, error) {
	var tp catalog.Topic
	err := c.do(ctx, token, http.MethodGet, detailPath(topicsPath(kind), id), nil, nil, &tp)
	return tp, err
}

func (c *Client) CreateTopic(ctx context.Context, token string, kind catalog.Kind, data catalog.TopicPayload) (catalog.Topic, error) {
	var tp catalog.Topic
	err := c.do(ctx, token, http.MethodPost, topicsPath(kind), nil, data, &tp)
	return tp, err
}

func (c *Client) UpdateTopic(ctx context.Context, token string, kind catalog.Kind, id int, data catalog.TopicPayload) (catalog.Topic, error) {
	var tp catalog.Topic
	err := c.do(ctx, token, http.MethodPut, detailPath(topicsPath(kind), id), nil, data, &tp)
	return tp, err
}

func (c *Client) DeleteTopic(ctx context.Context, token string, kind catalog.Kind, id int) error {
	return c.do(ctx, token, http.MethodDelete, detailPath(topicsPath(kind), id), nil, nil, nil)
}

func itemQuery(filter catalog.ItemFilter) url.Values {
	q := url.Values{}
	if len(filter.Products) > 0 {
		q.Set("product__in", joinInts(filter.Products))
	}
	if len(filter.Chapters) > 0 {
		q.Set("chapter__in", joinInts(filter.Chapters))
	}
	if len(filter.Topics) > 0 {
		q.Set("topic__in", joinInts(filter.Topics))
	}
	if filter.ProductStatus != "" {
		q.Set("product__status", filter.ProductStatus)
	}
	if filter.Random {
		q.Set("random", "true")
	}
	if filter.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(filter.PageSize))
	}
	return q
}

func (c *Client) QueryItems(ctx context.Context, token string, kind catalog.Kind, filter catalog.ItemFilter) ([]catalog.Item, error) {
	if kind == catalog.KindFlashcards {
		var pg page[catalog.Flashcard]
		if err := c.do(ctx, token, http.MethodGet, itemsPath(kind), itemQuery(filter), nil, &pg); err != nil {
			return nil, err
		}
		items := make([]catalog.Item, 0, len(pg.Results))
		for i := range pg.Results {
			fc := pg.Results[i]
			items = append(items, catalog.Item{ID: fc.ID, Flashcard: &fc})
		}
		return items, nil
	}

	var pg page[catalog.Question]
	if err := c.do(ctx, token, http.MethodGet, itemsPath(kind), itemQuery(filter), nil, &pg); err != nil {
		return nil, err
	}
	items := make([]catalog.Item, 0, len(pg.Results))
	for i := range pg.Results {
		qn := pg.Results[i]
		items = append(items, catalog.Item{ID: qn.ID, Question: &qn})
	}
	return items, nil
}

// CountItems reads the paginated total of a minimal item query; the item
// bodies are discarded.
func (c *Client) CountItems(ctx context.Context, token string, kind catalog.Kind, filter catalog.ItemFilter) (int, error) {
	var pg page[json.RawMessage]
	if err := c.do(ctx, token, http.MethodGet, itemsPath(kind), itemQuery(filter), nil, &pg); err != nil {
		return 0, err
	}
	return pg.Count, nil
}

func (c *Client) CreateQuestion(ctx context.Context, token string, data catalog.QuestionPayload) (catalog.Question, error) {
	var q catalog.Question
	err := c.do(ctx, token, http.MethodPost, itemsPath(catalog.KindQuestionBank), nil, data, &q)
	return q, err
}

func (c *Client) UpdateQuestion(ctx context.Context, token string, id int, data catalog.QuestionPayload) (catalog.Question, error) {
	var q catalog.Question
	err := c.do(ctx, token, http.MethodPut, detailPath(itemsPath(catalog.KindQuestionBank), id), nil, data, &q)
	return q, err
}

func (c *Client) DeleteQuestion(ctx context.Context, token string, id int) error {
	return c.do(ctx, token, http.MethodDelete, detailPath(itemsPath(catalog.KindQuestionBank), id), nil, nil, nil)
}

func (c *Client) CreateFlashcard(ctx context.Context, token string, data catalog.FlashcardPayload) (catalog.Flashcard, error) {
	var f catalog.Flashcard
	err := c.do(ctx, token, http.MethodPost, itemsPath(catalog.KindFlashcards), nil, data, &f)
	return f, err
}

func (c *Client) UpdateFlashcard(ctx context.Context, token string, id int, data catalog.FlashcardPayload) (catalog.Flashcard, error) {
	var f catalog.Flashcard
	err := c.do(ctx, token, http.MethodPut, detailPath(itemsPath(catalog.KindFlashcards), id), nil, data, &f)
	return f, err
}

func (c *Client) DeleteFlashcard(ctx context.Context, token string, id int) error {
	return c.do(ctx, token, http.MethodDelete, detailPath(itemsPath(catalog.KindFlashcards), id), nil, nil, nil)
}

// ----- study.Recorder -----

func (c *Client) RecordSession(ctx context.Context, token string, sum study.Summary) error {
	return c.do(ctx, token, http.MethodPost, "/api/assessment/study-sessions/", nil, sum, nil)
}

// ----- account.Repository -----

func (c *Client) GetFreezeStatus(ctx context.Context, token string) (account.FreezeStatus, error) {
	var status account.FreezeStatus
	err := c.do(ctx, token, http.MethodGet, "/api/users/account/freeze/status/", nil, nil, &status)
	return status, err
}

func (c *Client) RequestFreeze(ctx context.Context, token string, req account.FreezeRequest) (account.FreezeStatus, error) {
	body := struct {
		FreezeReason  string `json:"freeze_reason"`
		FreezeEndDate string `json:"freeze_end_date"`
	}{
		FreezeReason:  req.Reason,
		FreezeEndDate: req.EndDate.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	var status account.FreezeStatus
	err := c.do(ctx, token, http.MethodPost, "/api/users/account/freeze/", nil, body, &status)
	return status, err
}

func (c *Client) CancelFreeze(ctx context.Context, token string) (account.FreezeStatus, error) {
	var status account.FreezeStatus
	err := c.do(ctx, token, http.MethodPost, "/api/users/account/unfreeze/", nil, nil, &status)
	return status, err
}

func (c *Client) UnfreezeUser(ctx context.Context, token, userID string) (account.FreezeStatus, error) {
	body := struct {
		UserID string `json:"user_id"`
	}{UserID: userID}
	var status account.FreezeStatus
	err := c.do(ctx, token, http.MethodPost, "/api/users/account/unfreeze/", nil, body, &status)
	return status, err
}

func (c *Client) GetEnrollmentStatus(ctx context.Context, token string) (account.EnrollmentStatus, error) {
	type kindStatus struct {
		IsEnrolled bool      `json:"is_enrolled"`
		Products   []int     `json:"products"`
		ExpiresAt  null.Time `json:"expires_at"`
	}
	var resp struct {
		QuestionBank kindStatus `json:"questionBank"`
		Flashcards   kindStatus `json:"flashcards"`
	}
	if err := c.do(ctx, token, http.MethodGet, "/api/assessment/enrollment-status/", nil, nil, &resp); err != nil {
		return account.EnrollmentStatus{}, err
	}
	return account.EnrollmentStatus{
		QuestionBank: account.KindEnrollment{
			IsEnrolled: resp.QuestionBank.IsEnrolled,
			Products:   resp.QuestionBank.Products,
			ExpiresAt:  resp.QuestionBank.ExpiresAt,
		},
		Flashcards: account.KindEnrollment{
			IsEnrolled: resp.Flashcards.IsEnrolled,
			Products:   resp.Flashcards.Products,
			ExpiresAt:  resp.Flashcards.ExpiresAt,
		},
	}, nil
}

// ----- Excel workflow -----

// ImportExcel forwards a spreadsheet upload to the topic's import endpoint.
func (c *Client) ImportExcel(ctx context.Context, token string, kind catalog.Kind, topicID int, filename string, file io.Reader) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return errors.Wrap(err, "building multipart body")
	}
	if _, err = io.Copy(part, file); err != nil {
		return errors.Wrap(err, "copying upload")
	}
	if err = w.Close(); err != nil {
		return errors.Wrap(err, "closing multipart body")
	}

	path := fmt.Sprintf("%s%d/import_excel/", topicsPath(kind), topicID)
	req, err := c.newRequest(ctx, token, http.MethodPost, path, nil, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "POST %s", path)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return decodeError(resp.StatusCode, body)
	}
	return nil
}

// ExcelTemplate streams back the upstream's import template for the kind.
func (c *Client) ExcelTemplate(ctx context.Context, token string, kind catalog.Kind) (data []byte, contentType string, err error) {
	path := topicsPath(kind) + "excel_template/"
	req, err := c.newRequest(ctx, token, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Del("Accept")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", errors.Wrapf(err, "GET %s", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", errors.Wrapf(err, "reading %s response", path)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, "", decodeError(resp.StatusCode, body)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func joinInts(ids []int) string {
	strs := make([]string, 0, len(ids))
	for _, id := range ids {
		strs = append(strs, strconv.Itoa(id))
	}
	return strings.Join(strs, ",")
}
