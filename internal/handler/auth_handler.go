package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prepkit/prepkit-backend/internal/auth"
	"github.com/prepkit/prepkit-backend/internal/response"
	"github.com/prepkit/prepkit-backend/internal/validator"
)

// AuthHandler issues user tokens. Real deployments can issue tokens from
// an external identity service with the same shared secret; this endpoint
// keeps local and dev setups self-contained.
type AuthHandler struct {
	tokens *auth.TokenService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{tokens: tokens}
}

// TokenRequest is the payload for requesting a user token.
type TokenRequest struct {
	UserID string `json:"user_id" binding:"required,min=1,max=64"`
}

// IssueToken godoc
// POST /api/v1/auth/token
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req TokenRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	token, err := h.tokens.IssueToken(req.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"token": token})
}
