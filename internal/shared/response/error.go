package response

import (
	"errors"

	"github.com/gin-gonic/gin"
	apperrors "github.com/storefront/server/internal/utils/errors"
	"github.com/storefront/server/internal/utils/validation"
)

// ErrorMapping maps a module error to an HTTP error.
// Arg is passed to New; it defaults to the module error's text.
type ErrorMapping struct {
	Err error
	New func(arg string) *apperrors.AppError
	Arg string
}

// Error writes appErr as the JSON error body.
func Error(c *gin.Context, appErr *apperrors.AppError) {
	c.JSON(appErr.StatusCode, appErr.ToResponse())
}

// HandleError translates err using mappings and writes the response.
// Validation failures become 422 with per-field details. Anything unmapped
// is a 500 that hides err from the client; err is kept on the gin context
// for the logging middleware.
func HandleError(c *gin.Context, err error, mappings []ErrorMapping) {
	_ = c.Error(err)

	var verr *validation.Error
	if errors.As(err, &verr) {
		details := make(map[string]any, len(verr.Fields))
		for field, msg := range verr.Fields {
			details[field] = msg
		}
		Error(c, apperrors.ValidationError(validation.ErrInvalidInput.Error()).WithDetails(details))
		return
	}
	if errors.Is(err, validation.ErrInvalidInput) {
		Error(c, apperrors.ValidationError(err.Error()))
		return
	}

	for _, m := range mappings {
		if errors.Is(err, m.Err) {
			arg := m.Arg
			if arg == "" {
				arg = m.Err.Error()
			}
			Error(c, m.New(arg))
			return
		}
	}

	Error(c, apperrors.From(err))
}
