package handlers

import (
	"errors"
	"net/http"

	"github.com/ammiranda/td/models"
	"github.com/ammiranda/td/service"
	"github.com/gin-gonic/gin"
)

// StatusForError maps engine errors onto HTTP status codes.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidAddress), errors.Is(err, models.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrStructuralViolation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBody is the JSON body of every failed request. Field is set for
// request validation failures.
type ErrorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// NewErrorBody builds the response body for err.
func NewErrorBody(err error) ErrorBody {
	body := ErrorBody{Error: err.Error()}
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		body.Field = verr.Field
	}
	return body
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(StatusForError(err), NewErrorBody(err))
}
