package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/edutrack/edutrack/storage/database"
)

var (
	pageSizeParam = "page_size"
	cursorParam   = "cursor"
)

// bindListOptions reads the pagination query params. PageSize is clamped by
// the services against the configured default/max.
func bindListOptions(ctx echo.Context) database.ListOptions {
	opts := database.ListOptions{Cursor: ctx.QueryParam(cursorParam)}
	if raw := ctx.QueryParam(pageSizeParam); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil {
			opts.PageSize = size
		}
	}
	return opts
}

type listResponse struct {
	Items      interface{} `json:"items"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

func newListResponse(items interface{}, page database.Page) listResponse {
	return listResponse{Items: items, NextCursor: page.NextCursor}
}
