package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/manachat72/line-ai-chatbot/internal/domain"
	"github.com/manachat72/line-ai-chatbot/internal/services"
	"github.com/manachat72/line-ai-chatbot/internal/utils"
)

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListRecordsResponse wraps a page of records and pagination information.
type ListRecordsResponse struct {
	Records    []domain.ChatRecord `json:"records"`
	Pagination Pagination          `json:"pagination"`
}

// clampPagination parses and bounds the page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.Clamp(utils.AtoiDefault(c.Query("page"), defaultPage), 1, services.MaxPage)
	pageSize = utils.Clamp(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

// ListRecords godoc
// @ID          listRecords
// @Summary     List relayed exchanges (paginated)
// @Description Returns persisted exchanges, newest first. A reply of "pending" means the generated reply was never stored.
// @Tags        Records
// @Produce     json
//
// @Param       user_id    query  string  false  "Filter by LINE user ID"
// @Param       page       query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListRecordsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Failure     503  {object}  handlers.ErrorResponse  "Persistence not configured"
// @Router      /api/v1/records [get]
func (h *Handlers) ListRecords(c *gin.Context) {
	page, pageSize := clampPagination(c)
	userID := strings.TrimSpace(c.Query("user_id"))

	items, total, err := h.records.ListPage(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		if errors.Is(err, services.ErrPersistenceDisabled) {
			fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list records")
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListRecordsResponse{
		Records: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetRecord godoc
// @ID          getRecord
// @Summary     Get one relayed exchange
// @Tags        Records
// @Produce     json
//
// @Param       id  path  int  true  "Record ID"  minimum(1)
//
// @Success     200  {object}  domain.ChatRecord
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Record not found"
// @Failure     503  {object}  handlers.ErrorResponse  "Persistence not configured"
// @Router      /api/v1/records/{id} [get]
func (h *Handlers) GetRecord(c *gin.Context) {
	id, valid := utils.ParseID(c.Param("id"))
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "record id must be a positive integer")
		return
	}

	rec, err := h.records.Get(c.Request.Context(), id)
	switch {
	case errors.Is(err, services.ErrRecordNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "record not found")
	case errors.Is(err, services.ErrPersistenceDisabled):
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, err.Error())
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeGetFailed, "could not load record")
	default:
		ok(c, http.StatusOK, rec)
	}
}
