package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vistascan/vistascan-backend/internal/types"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondDomainError maps the domain failure taxonomy to HTTP statuses.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, types.ErrUnauthorized):
		RespondError(c, http.StatusForbidden, "unauthorized", err)
	case errors.Is(err, types.ErrInvalidTransition):
		RespondError(c, http.StatusConflict, "invalid_transition", err)
	case errors.Is(err, types.ErrNotAnExpert):
		RespondError(c, http.StatusUnprocessableEntity, "not_an_expert", err)
	case errors.Is(err, types.ErrConflict):
		RespondError(c, http.StatusConflict, "conflict", err)
	case errors.Is(err, types.ErrAlreadyExists):
		RespondError(c, http.StatusConflict, "already_exists", err)
	case errors.Is(err, types.ErrValidation):
		RespondError(c, http.StatusBadRequest, "validation", err)
	default:
		RespondError(c, http.StatusBadGateway, "dependency_failure", err)
	}
}
