package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"paperdeck/internal/app"
	"paperdeck/internal/domain"
	"paperdeck/internal/transport/http/response"
)

type DocumentProcessor interface {
	Process(ctx context.Context, documentName string) (*app.Outcome, error)
	Enqueue(ctx context.Context, documentName string) (string, error)
}

type ProcessHandler struct {
	processor DocumentProcessor
	logger    zerolog.Logger
}

type ProcessRequest struct {
	DocumentName string `json:"document_name"`
}

func NewProcessHandler(processor DocumentProcessor, logger zerolog.Logger) *ProcessHandler {
	return &ProcessHandler{processor: processor, logger: logger}
}

func (h *ProcessHandler) Process(c *gin.Context) {
	var req ProcessRequest
	// a missing or malformed body is the same as a missing name
	_ = c.ShouldBindJSON(&req)

	outcome, err := h.processor.Process(c.Request.Context(), req.DocumentName)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMissingDocumentName):
			response.Error(c, http.StatusBadRequest, response.MsgMissingDocument)
		case domain.IsKind(err, domain.KindNotFound):
			response.Error(c, http.StatusNotFound, response.MsgDocumentMissing)
		case errors.Is(err, app.ErrBusy):
			response.Error(c, http.StatusConflict, response.MsgDocumentBusy)
		default:
			h.logger.Error().Err(err).Str("document", req.DocumentName).Msg("process request failed")
			response.Error(c, http.StatusInternalServerError, response.MsgProcessFailed)
		}
		return
	}

	response.OK(c, gin.H{"html_url": outcome.URL})
}

func (h *ProcessHandler) Enqueue(c *gin.Context) {
	var req ProcessRequest
	_ = c.ShouldBindJSON(&req)

	name, err := h.processor.Enqueue(c.Request.Context(), req.DocumentName)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMissingDocumentName):
			response.Error(c, http.StatusBadRequest, response.MsgMissingDocument)
		case errors.Is(err, app.ErrQueueDisabled):
			response.Error(c, http.StatusServiceUnavailable, response.MsgQueueDisabled)
		default:
			h.logger.Error().Err(err).Str("document", req.DocumentName).Msg("enqueue request failed")
			response.Error(c, http.StatusInternalServerError, response.MsgProcessFailed)
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"document_name": name, "queued": true})
}
