package breeze

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/breeze/api"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// bindDiaryQuery reads the listing filters and paging from the query string.
func bindDiaryQuery(c echo.Context) (DiaryQuery, error) {
	var q DiaryQuery
	var isDelete bool
	err := echo.QueryParamsBinder(c).
		String("content", &q.Content).
		Int("status", &q.Status).
		Bool("is_delete", &isDelete).
		Int64("add_time_start", &q.AddTimeStart).
		Int64("add_time_end", &q.AddTimeEnd).
		Int("page", &q.Page).
		Int("size", &q.Size).
		BindError()
	if err != nil {
		return q, err
	}
	if c.QueryParam("is_delete") != "" {
		q.IsDelete = &isDelete
	}
	q.Content = strings.TrimSpace(q.Content)
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Size < 1 {
		q.Size = defaultPageSize
	}
	q.Size = min(q.Size, maxPageSize)
	return q, nil
}

func (a *App) listDiaries(c echo.Context, q DiaryQuery) error {
	list, total, err := a.Store.ListDiaries(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return success(c, PageResult[Diary]{List: list, Total: total, Page: q.Page, Size: q.Size})
}

// handleDiaryList serves public diaries to the front-end.
func (a *App) handleDiaryList(c echo.Context) error {
	q, err := bindDiaryQuery(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, api.CodeBadRequest, "invalid query")
	}
	visible := false
	q.IsDelete = &visible
	q.Status = DiaryPublic
	return a.listDiaries(c, q)
}

// handleDiaryDetail hides trashed and private diaries behind a 404.
func (a *App) handleDiaryDetail(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusBadRequest, api.CodeBadRequest, "invalid diary id")
	}
	d, err := a.Store.GetDiary(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if d.IsDelete || d.Status != DiaryPublic {
		return ErrNotFound
	}
	return success(c, d)
}

func (a *App) handleAdminDiaries(c echo.Context) error {
	q, err := bindDiaryQuery(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, api.CodeBadRequest, "invalid query")
	}
	return a.listDiaries(c, q)
}

func (a *App) handleAdminSaveDiary(c echo.Context) error {
	var d Diary
	if err := c.Bind(&d); err != nil {
		return fail(c, http.StatusBadRequest, api.CodeBadRequest, "invalid request")
	}
	d.Content = strings.TrimSpace(d.Content)
	d.Imgs = FilterEmpty(d.Imgs)
	if d.Content == "" && len(d.Imgs) == 0 {
		return fail(c, http.StatusBadRequest, api.CodeBadRequest, "diary needs content or images")
	}
	if d.Status == 0 {
		d.Status = DiaryPublic
	}
	if d.Status != DiaryPublic && d.Status != DiaryPrivate {
		return fail(c, http.StatusBadRequest, api.CodeBadRequest, "invalid diary status")
	}
	if d.AddTime == 0 {
		d.AddTime = time.Now().UnixMilli()
	}
	saved, err := a.Store.SaveDiary(c.Request().Context(), d)
	if err != nil {
		return err
	}
	return success(c, saved)
}

type diaryIDsRequest struct {
	IDs      []int `json:"ids"`
	IsDelete bool  `json:"is_delete"`
}

func bindDiaryIDs(c echo.Context) (diaryIDsRequest, bool) {
	var req diaryIDsRequest
	if err := c.Bind(&req); err != nil || len(req.IDs) == 0 {
		return req, false
	}
	return req, true
}

func (a *App) handleAdminDeleteDiaries(c echo.Context) error {
	req, ok := bindDiaryIDs(c)
	if !ok {
		return fail(c, http.StatusBadRequest, api.CodeBadRequest, "ids are required")
	}
	n, err := a.Store.DeleteDiaries(c.Request().Context(), req.IDs)
	if err != nil {
		return err
	}
	return success(c, n)
}

func (a *App) handleAdminTrashDiaries(c echo.Context) error {
	req, ok := bindDiaryIDs(c)
	if !ok {
		return fail(c, http.StatusBadRequest, api.CodeBadRequest, "ids are required")
	}
	n, err := a.Store.SetDiariesDeleted(c.Request().Context(), req.IDs, req.IsDelete)
	if err != nil {
		return err
	}
	return success(c, n)
}
