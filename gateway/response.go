package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/example/storefront/pkg/apperr"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type successBody struct {
	StatusCode int         `json:"statusCode"`
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
}

type errorBody struct {
	StatusCode int         `json:"statusCode"`
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Errors     []string    `json:"errors"`
	Data       interface{} `json:"data"`
}

func ok(c *gin.Context, status int, message string, data interface{}) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(status, successBody{
		StatusCode: status,
		Success:    true,
		Message:    message,
		Data:       data,
	})
}

// fail writes err as the error envelope. Server-side causes are logged and
// replaced by a generic message.
func fail(c *gin.Context, err error) {
	failWithData(c, err, nil)
}

func failWithData(c *gin.Context, err error, data interface{}) {
	status := apperr.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logger(c).Error("Request failed", zap.Int("status", status), zap.Error(err))
	}

	var details []string
	var ae *apperr.Error
	if errors.As(err, &ae) {
		var verrs validator.ValidationErrors
		if errors.As(ae.Err, &verrs) {
			for _, fe := range verrs {
				details = append(details, fieldMessage(fe))
			}
		}
	}
	if details == nil {
		details = []string{}
	}

	c.AbortWithStatusJSON(status, errorBody{
		StatusCode: status,
		Success:    false,
		Message:    apperr.MessageOf(err),
		Errors:     details,
		Data:       data,
	})
}

// bindError turns a gin binding failure into a 400.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperr.Wrap(http.StatusBadRequest, fieldMessage(verrs[0]), err)
	}
	return apperr.Wrap(http.StatusBadRequest, "Invalid request body", err)
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}
