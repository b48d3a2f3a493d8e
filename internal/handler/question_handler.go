package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prepkit/prepkit-backend/internal/question"
	"github.com/prepkit/prepkit-backend/internal/response"
)

// QuestionHandler exposes operational reads of the question bank.
type QuestionHandler struct {
	source *question.Source
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(source *question.Source) *QuestionHandler {
	return &QuestionHandler{source: source}
}

// Count godoc
// GET /api/v1/questions/count
// Reports how many questions the local bank holds. Useful to verify an
// import before going offline.
func (h *QuestionHandler) Count(c *gin.Context) {
	count, err := h.source.Count(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrStoreUnavailable)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"count": count})
}
