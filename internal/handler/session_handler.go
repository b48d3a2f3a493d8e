package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/prepkit/prepkit-backend/internal/middleware"
	"github.com/prepkit/prepkit-backend/internal/model"
	"github.com/prepkit/prepkit-backend/internal/response"
	"github.com/prepkit/prepkit-backend/internal/selector"
	"github.com/prepkit/prepkit-backend/internal/session"
	"github.com/prepkit/prepkit-backend/internal/store"
	"github.com/prepkit/prepkit-backend/internal/validator"
)

// SessionHandler exposes the exam session engine to the UI layer.
type SessionHandler struct {
	manager *session.Manager
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(manager *session.Manager) *SessionHandler {
	return &SessionHandler{manager: manager}
}

// GoToRequest is the payload for jumping to a question index.
type GoToRequest struct {
	Index *int `json:"index" binding:"required,min=0"`
}

// AnswerRequest is the payload for submitting an answer.
type AnswerRequest struct {
	OptionID string `json:"option_id" binding:"required,min=1,max=32"`
}

// FlagRequest is the payload for flag mutation. A nil Flagged toggles.
type FlagRequest struct {
	Flagged *bool `json:"flagged"`
}

// CreateSession godoc
// POST /api/v1/sessions
// Builds a new session from an exam configuration. Any existing live
// session for the user is saved best-effort and replaced.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var config model.ExamConfiguration
	if fields := validator.Bind(c, &config); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.manager.CreateSession(c.Request.Context(), config, claims.UserID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": state})
}

// ResumeSession godoc
// POST /api/v1/sessions/resume
// Rehydrates the most recent unfinished session, or returns null when the
// user has nothing to resume.
func (h *SessionHandler) ResumeSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	state, err := h.manager.ResumeFromStorage(c.Request.Context(), claims.UserID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// GetCurrent godoc
// GET /api/v1/sessions/current
func (h *SessionHandler) GetCurrent(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var state *model.SessionState
	err := h.manager.WithEngine(claims.UserID, func(e *session.Engine) error {
		state = e.State()
		return nil
	})
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// Start godoc
// POST /api/v1/sessions/current/start
func (h *SessionHandler) Start(c *gin.Context) {
	h.engineOp(c, func(e *session.Engine) error { return e.Start() })
}

// Pause godoc
// POST /api/v1/sessions/current/pause
func (h *SessionHandler) Pause(c *gin.Context) {
	h.engineOp(c, func(e *session.Engine) error { return e.Pause() })
}

// Resume godoc
// POST /api/v1/sessions/current/resume
func (h *SessionHandler) Resume(c *gin.Context) {
	h.engineOp(c, func(e *session.Engine) error { return e.Resume() })
}

// Next godoc
// POST /api/v1/sessions/current/next
func (h *SessionHandler) Next(c *gin.Context) {
	h.engineOp(c, func(e *session.Engine) error { return e.Next() })
}

// Prev godoc
// POST /api/v1/sessions/current/prev
func (h *SessionHandler) Prev(c *gin.Context) {
	h.engineOp(c, func(e *session.Engine) error { return e.Prev() })
}

// GoTo godoc
// POST /api/v1/sessions/current/goto
// An out-of-range index is accepted and ignored.
func (h *SessionHandler) GoTo(c *gin.Context) {
	var req GoToRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.engineOp(c, func(e *session.Engine) error { return e.GoTo(*req.Index) })
}

// SubmitAnswer godoc
// POST /api/v1/sessions/current/answer
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	var req AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.engineOp(c, func(e *session.Engine) error { return e.SubmitAnswer(req.OptionID) })
}

// Flag godoc
// POST /api/v1/sessions/current/flag
// With a body {"flagged": bool} sets the flag; with an empty flag field it
// toggles.
func (h *SessionHandler) Flag(c *gin.Context) {
	var req FlagRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.engineOp(c, func(e *session.Engine) error {
		if req.Flagged == nil {
			return e.ToggleFlag()
		}
		return e.SetFlag(*req.Flagged)
	})
}

// GetProgress godoc
// GET /api/v1/sessions/current/progress
func (h *SessionHandler) GetProgress(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var progress model.Progress
	err := h.manager.WithEngine(claims.UserID, func(e *session.Engine) error {
		progress = e.Progress()
		return nil
	})
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"progress": progress})
}

// GetTimeRemaining godoc
// GET /api/v1/sessions/current/time
func (h *SessionHandler) GetTimeRemaining(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var seconds float64
	var unbounded bool
	err := h.manager.WithEngine(claims.UserID, func(e *session.Engine) error {
		seconds, unbounded = e.TimeRemaining()
		return nil
	})
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"seconds_remaining": seconds,
		"unbounded":         unbounded,
	})
}

// End godoc
// POST /api/v1/sessions/current/end
// Finishes the session and returns the computed result. The result is
// returned even when durable persistence failed; "saved" reports it.
func (h *SessionHandler) End(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	result, err := h.manager.End(c.Request.Context(), claims.UserID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"result": result,
		"saved":  result.Saved,
	})
}

// GetResult godoc
// GET /api/v1/results/:session_id
func (h *SessionHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.manager.Result(c.Request.Context(), sessionID)
	if err != nil {
		failFromErr(c, err)
		return
	}
	if result == nil || result.UserID != claims.UserID {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// engineOp runs a mutating engine operation for the authenticated user
// and returns the refreshed session state.
func (h *SessionHandler) engineOp(c *gin.Context, op func(*session.Engine) error) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var state *model.SessionState
	err := h.manager.WithEngine(claims.UserID, func(e *session.Engine) error {
		if err := op(e); err != nil {
			return err
		}
		state = e.State()
		return nil
	})
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// failFromErr maps engine errors to API error codes.
func failFromErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidConfiguration):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidConfiguration)
	case errors.Is(err, selector.ErrNoQuestionsAvailable):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrNoQuestionsAvailable)
	case errors.Is(err, session.ErrSessionFinished):
		response.Fail(c, http.StatusConflict, response.ErrSessionFinished)
	case errors.Is(err, session.ErrSessionNotStarted):
		response.Fail(c, http.StatusConflict, response.ErrSessionNotStarted)
	case errors.Is(err, session.ErrNoActiveSession):
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
	case errors.Is(err, store.ErrStoreUnavailable):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrStoreUnavailable)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
