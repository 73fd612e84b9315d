package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"paperdeck/internal/domain"
	"paperdeck/internal/model"
	"paperdeck/internal/transport/http/response"
)

type SummaryReader interface {
	List(ctx context.Context) ([]model.SummaryPage, error)
	GetSummary(ctx context.Context, id string) (*model.SummaryPage, error)
}

type SummaryHandler struct {
	summaries SummaryReader
	logger    zerolog.Logger
}

type SummaryPageItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func NewSummaryHandler(summaries SummaryReader, logger zerolog.Logger) *SummaryHandler {
	return &SummaryHandler{summaries: summaries, logger: logger}
}

func (h *SummaryHandler) List(c *gin.Context) {
	pages, err := h.summaries.List(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list summary pages failed")
		response.Error(c, http.StatusInternalServerError, response.MsgInternal)
		return
	}

	items := make([]SummaryPageItem, 0, len(pages))
	for _, p := range pages {
		items = append(items, SummaryPageItem{
			ID:        p.ID,
			Title:     p.Title,
			URL:       p.URL,
			CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	response.OK(c, gin.H{"summary_pages": items})
}

func (h *SummaryHandler) Summary(c *gin.Context) {
	page, err := h.summaries.GetSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			response.Error(c, http.StatusNotFound, response.MsgNotFound)
			return
		}
		h.logger.Error().Err(err).Str("id", c.Param("id")).Msg("get summary failed")
		response.Error(c, http.StatusInternalServerError, response.MsgInternal)
		return
	}
	response.OK(c, gin.H{"id": page.ID, "summary": page.Summary})
}
