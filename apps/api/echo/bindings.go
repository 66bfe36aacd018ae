package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	orderingParam = "ordering"
	pageParam     = "page"
	pageSizeParam = "page_size"
)

// Ordering binds the table sort spec: "?ordering=title" or "?ordering=-order".
type Ordering struct {
	Field     string
	Ascending bool
}

func (ord *Ordering) Bind(ctx echo.Context) {
	ord.Ascending = true
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}
	field := strings.TrimSpace(val)
	if strings.HasPrefix(field, "-") {
		field = field[1:] // drop "-"
		ord.Ascending = false
	}
	ord.Field = field
}

// Paging binds client-side pagination of already-fetched lists.
type Paging struct {
	Page     int
	PageSize int
}

func (pg *Paging) Bind(ctx echo.Context) {
	if n, err := strconv.Atoi(ctx.QueryParam(pageParam)); err == nil {
		pg.Page = n
	}
	if n, err := strconv.Atoi(ctx.QueryParam(pageSizeParam)); err == nil {
		pg.PageSize = n
	}
}
