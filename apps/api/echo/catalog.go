package echoapi

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/catalog"
)

// ExcelService covers the upstream's spreadsheet import/export endpoints.
type ExcelService interface {
	ImportExcel(ctx context.Context, token string, kind catalog.Kind, topicID int, filename string, file io.Reader) error
	ExcelTemplate(ctx context.Context, token string, kind catalog.Kind) (data []byte, contentType string, err error)
}

type catalogApi struct {
	svc      *catalog.Service
	excel    ExcelService
	validate *validator.Validate
}

func registerCatalogAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *catalog.Service, excel ExcelService, validate *validator.Validate) {
	api := catalogApi{svc: svc, excel: excel, validate: validate}

	cg := g.Group("/catalog/:kind", jwt)

	cg.GET("/products", api.queryProducts)
	cg.POST("/products", api.createProduct, adminMiddleware())
	cg.PUT("/products/:id", api.updateProduct, adminMiddleware())
	cg.DELETE("/products/:id", api.destroyProduct, adminMiddleware())
	cg.GET("/products/:id/delete-preview", api.productDeletePreview, adminMiddleware())

	cg.GET("/chapters", api.queryChapters)
	cg.POST("/chapters", api.createChapter, adminMiddleware())
	cg.PUT("/chapters/:id", api.updateChapter, adminMiddleware())
	cg.DELETE("/chapters/:id", api.destroyChapter, adminMiddleware())
	cg.GET("/chapters/:id/delete-preview", api.chapterDeletePreview, adminMiddleware())

	cg.GET("/topics", api.queryTopics)
	cg.POST("/topics", api.createTopic, adminMiddleware())
	cg.PUT("/topics/:id", api.updateTopic, adminMiddleware())
	cg.DELETE("/topics/:id", api.destroyTopic, adminMiddleware())
	cg.GET("/topics/:id/delete-preview", api.topicDeletePreview, adminMiddleware())
	cg.POST("/topics/:id/import", api.importExcel, adminMiddleware())

	cg.POST("/items", api.createItem, adminMiddleware())
	cg.PUT("/items/:id", api.updateItem, adminMiddleware())
	cg.DELETE("/items/:id", api.destroyItem, adminMiddleware())

	cg.GET("/template", api.excelTemplate, adminMiddleware())
	cg.POST("/selector", api.evaluateSelector)
}

func contextKind(ctx echo.Context) (catalog.Kind, error) {
	kind := catalog.Kind(ctx.Param("kind"))
	if !kind.Valid() {
		return "", catalog.ErrUnknownKind
	}
	return kind, nil
}

func intParam(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil {
		return 0, errHttpNotFound
	}
	return id, nil
}

func intsQueryParam(ctx echo.Context, name string) []int {
	var ids []int
	for _, val := range ctx.QueryParams()[name] {
		if id, err := strconv.Atoi(val); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// pagedList is a client-side page over an already-fetched, sorted list.
type pagedList struct {
	Count   int         `json:"count"`
	Page    int         `json:"page"`
	Results interface{} `json:"results"`
}

// Products

func (api *catalogApi) queryProducts(ctx echo.Context) error {
	kind, err := contextKind(ctx)
	if err != nil {
		return err
	}

	filter := catalog.ProductFilter{
		Status:       ctx.QueryParam("status"),
		EnrolledOnly: ctx.QueryParam("enrolled_only") == "true",
	}
	prods, err := api.svc.QueryProducts(ctx.Request().Context(), getRawToken(ctx), kind, filter)
	if err != nil {
		return errors.Wrap(err, "querying products")
	}

	var ord Ordering
	ord.Bind(ctx)
	catalog.SortProducts(prods, kind, ord.Field, ord.Ascending)

	var pg Paging
	pg.Bind(ctx)
	start, end := catalog.PageBounds(len(prods), pg.Page, pg.PageSize)

	return respond(ctx, http.StatusOK, pagedList{Count: len(prods), Page: pg.Page, Results: prods[start:end]})
}

func (api *catalogApi) createProduct(ctx echo.Context) error {
	kind, err := contextKind(ctx)
	if err != nil {
		return err
	}
	var data catalog.ProductPayload
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProductPayload")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	prod, err := api.svc.CreateProduct(ctx.Request().Context(), getRawToken(ctx), kind, data)
	if err != nil {
		return errors.Wrap(err, "creating product")
	}
	return respond(ctx, http.StatusCreated, prod)
}

func (api *catalogApi) updateProduct(ctx echo.Context) error {
	kind, err := contextKind(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	var data catalog.ProductPayload
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProductPayload")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	prod, err := api.svc.UpdateProduct(ctx.Request().Context(), getRawToken(ctx), kind, id, data)
	if err != nil {
		return errors.Wrap(err, "updating product")
	}
	return respond(ctx, http.StatusOK, prod)
}

func (api *catalogApi) destroyProduct(ctx echo.Context) error {
	kind, err := contextKind(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteProduct(ctx.Request().Context(), getRawToken(ctx), kind, id); err != nil {
		return errors.Wrap(err, "deleting product")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *catalogApi) productDeletePreview(ctx echo.Context) error {
	kind, err := contextKind(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	preview, err := api.svc.ProductDeletePreview(ctx.Request().Context(), getRawToken(ctx), kind, id)
	if err != nil {
		return errors.Wrap(err, "previewing product delete")
	}
	return respond(ctx, http.StatusOK, preview)
}

// Chapters

func (api *catalogApi) queryChapters(ctx echo.Context) error {
	kind, err := contextKind(ctx)
	if err != nil {
		return err
	}

	chapters, err := api.svc.QueryChapters(ctx.Request().Context(), getRawToken(ctx), kind, intsQueryParam(ctx, "product"))
	if err != nil {
		return errors.Wrap(err, "querying chapters")
	}

	var ord Ordering
	ord.Bind(ctx)
	catalog.SortChapters(chapters, kind, ord.Field, ord.Ascending)

	var pg Paging
	pg.Bind(ctx)
	start, end := catalog.PageBounds(len(chapters), pg.Page, pg.PageSize)

	return respond(ctx, http.StatusOK, pagedList{Count: len(chapters), Page: pg.Page, Results: chapters[start:end]})
}

func (api *catalogApi) createChapter(ctx echo.Context) error {
	kind, err := contextKind(ctx)
	if err != nil {
		return err
	}
	var data catalog.ChapterPayload
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChapterPayload")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	chapter, err := api.svc.CreateChapter(ctx.Request().Context(), getRawToken(ctx), kind, data)
	if err != nil {
		return errors.Wrap(err, "creating chapter")
	}
	return respond(ctx, http.StatusCreated, chapter)
}

func (api *catalogApi) updateChapter(ctx echo.Context) error {
	kind, err := contextKind(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	var data catalog.ChapterPayload
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChapterPayload")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	chapter, err := api.svc.UpdateChapter(ctx.Request().Context(), getRawToken(ctx), kind, id, data)
	if err != nil {
		return errors.Wrap(err, "updating chapter")
	}
	return respond(ctx, http.StatusOK, chapter)
}

func (api *catalogApi) destroyChapter(ctx echo.Context) error {
	kind, err := contextKind(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteChapter(ctx.Request().Context(), getRawToken(ctx), kind, id); err != nil {
		return errors.Wrap(err, "deleting chapter")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *catalogApi) chapterDeletePreview(ctx echo.Context) error {
	kind, err := contextKind(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	preview, err := api.svc.ChapterDeletePreview(ctx.Request().Context(), getRawToken(ctx), kind, id)
	if err != nil {
		return errors.Wrap(err, "previewing chapter delete")
	}
	return respond(ctx, http.StatusOK, preview)
}

// Topics

func (api *catalogApi) queryTopics(ctx echo.Context) error {
	kind, err := contextKind(ctx)
	if err != nil {
		return err
	}

	topics, err := api.svc.QueryTopics(ctx.Request().Context(), getRawToken(ctx), kind, intsQueryParam(ctx, "chapter"))
	if err != nil {
		return errors.Wrap(err, "querying topics")
	}

	var ord Ordering
	ord.Bind(ctx)
	catalog.SortTopics(topics, kind, ord.Field, ord.Ascending)

	var pg Paging
	pg.Bind(ctx)
	start, end := catalog.PageBounds(len(topics), pg.Page, pg.PageSize)

	return respond(ctx, http.StatusOK, pagedList{Count: len(topics), Page: pg.Page, Results: topics[start:end]})
}

func (api *catalogApi) createTopic(ctx echo.Context) error {
	kind, err := contextKind(ctx)
	if err != nil {
		return err
	}
	var data catalog.TopicPayload
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TopicPayload")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	topic, err := api.svc.CreateTopic(ctx.Request().Context(), getRawToken(ctx), kind, data)
	if err != nil {
		return errors.Wrap(err, "creating topic")
	}
	return respond(ctx, http.StatusCreated, topic)
}

func (api *catalogApi) updateTopic(ctx echo.Context) error {
	kind, err := contextKind(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	var data catalog.TopicPayload
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TopicPayload")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	topic, err := api.svc.UpdateTopic(ctx.Request().Context(), getRawToken(ctx), kind, id, data)
	if err != nil {
		return errors.Wrap(err, "updating topic")
	}
	return respond(ctx, http.StatusOK, topic)
}

func (api *catalogApi) destroyTopic(ctx echo.Context) error {
	kind, err := contextKind(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteTopic(ctx.Request().Context(), getRawToken(ctx), kind, id); err != nil {
		return errors.Wrap(err, "deleting topic")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *catalogApi) topicDeletePreview(ctx echo.Context) error {
	kind, err := contextKind(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	preview, err := api.svc.TopicDeletePreview(ctx.Request().Context(), getRawToken(ctx), kind, id)
	if err != nil {
		return errors.Wrap(err, "previewing topic delete")
	}
	return respond(ctx, http.StatusOK, preview)
}

// Items

// createItem binds the payload matching the kind: questions and flashcards
// share routes but not fields.
func (api *catalogApi) createItem(ctx echo.Context) error {
	kind, err := contextKind(ctx)
	if err != nil {
		return err
	}

	if kind == catalog.KindFlashcards {
		var data catalog.FlashcardPayload
		if err = ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to FlashcardPayload")
		}
		if err = data.Validate(api.validate); err != nil {
			return err
		}
		card, err := api.svc.CreateFlashcard(ctx.Request().Context(), getRawToken(ctx), data)
		if err != nil {
			return errors.Wrap(err, "creating flashcard")
		}
		return respond(ctx, http.StatusCreated, card)
	}

	var data catalog.QuestionPayload
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to QuestionPayload")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	question, err := api.svc.CreateQuestion(ctx.Request().Context(), getRawToken(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating question")
	}
	return respond(ctx, http.StatusCreated, question)
}

func (api *catalogApi) updateItem(ctx echo.Context) error {
	kind, err := contextKind(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	if kind == catalog.KindFlashcards {
		var data catalog.FlashcardPayload
		if err = ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to FlashcardPayload")
		}
		if err = data.Validate(api.validate); err != nil {
			return err
		}
		card, err := api.svc.UpdateFlashcard(ctx.Request().Context(), getRawToken(ctx), id, data)
		if err != nil {
			return errors.Wrap(err, "updating flashcard")
		}
		return respond(ctx, http.StatusOK, card)
	}

	var data catalog.QuestionPayload
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to QuestionPayload")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	question, err := api.svc.UpdateQuestion(ctx.Request().Context(), getRawToken(ctx), id, data)
	if err != nil {
		return errors.Wrap(err, "updating question")
	}
	return respond(ctx, http.StatusOK, question)
}

func (api *catalogApi) destroyItem(ctx echo.Context) error {
	kind, err := contextKind(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteItem(ctx.Request().Context(), getRawToken(ctx), kind, id); err != nil {
		return errors.Wrap(err, "deleting item")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Excel

func (api *catalogApi) importExcel(ctx echo.Context) error {
	kind, err := contextKind(ctx)
	if err != nil {
		return err
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	header, err := ctx.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file upload")
	}
	file, err := header.Open()
	if err != nil {
		return errors.Wrap(err, "opening upload")
	}
	defer file.Close()

	if err = api.excel.ImportExcel(ctx.Request().Context(), getRawToken(ctx), kind, id, header.Filename, file); err != nil {
		return errors.Wrap(err, "importing spreadsheet")
	}
	return respond(ctx, http.StatusCreated, nil)
}

func (api *catalogApi) excelTemplate(ctx echo.Context) error {
	kind, err := contextKind(ctx)
	if err != nil {
		return err
	}

	data, contentType, err := api.excel.ExcelTemplate(ctx.Request().Context(), getRawToken(ctx), kind)
	if err != nil {
		return errors.Wrap(err, "fetching template")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return ctx.Blob(http.StatusOK, contentType, data)
}

// Selector

type selectorRequest struct {
	Products  []int `json:"products"`
	Chapters  []int `json:"chapters"`
	Topics    []int `json:"topics"`
	Requested int   `json:"requested"`
}

// evaluateSelector replays a selection onto a fresh selector and returns the
// narrowed option lists, availability and the adjusted requested count.
func (api *catalogApi) evaluateSelector(ctx echo.Context) error {
	kind, err := contextKind(ctx)
	if err != nil {
		return err
	}
	var data selectorRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to selectorRequest")
	}

	reqCtx := ctx.Request().Context()
	sel := catalog.NewSelector(api.svc, kind, getRawToken(ctx))
	sel.LoadProducts(reqCtx)
	sel.SetProducts(reqCtx, data.Products)
	if len(data.Chapters) > 0 {
		sel.SetChapters(reqCtx, data.Chapters)
	}
	if len(data.Topics) > 0 {
		sel.SetTopics(reqCtx, data.Topics)
	}
	if data.Requested > 0 {
		sel.SetRequested(data.Requested)
	}

	return respond(ctx, http.StatusOK, sel.State())
}
