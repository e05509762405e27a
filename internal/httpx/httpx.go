// Package httpx holds the request decoding and error rendering shared by the gin handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/abduss/clinstudy/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

// BindJSON decodes the request body into dst and runs its Validate method when it has one.
// On failure it writes a 400 response and returns false.
func BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondValidation(c, err)
		return false
	}
	if v, ok := dst.(validation.Validatable); ok {
		if err := v.Validate(); err != nil {
			RespondValidation(c, err)
			return false
		}
	}
	return true
}

// IsValidation reports whether err carries field-level validation detail.
func IsValidation(err error) bool {
	var ozzoErrs validation.Errors
	var bindErrs validator.ValidationErrors
	return errors.As(err, &ozzoErrs) || errors.As(err, &bindErrs)
}

// RespondValidation writes a 400 response with a field -> message map.
func RespondValidation(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":  "validation failed",
		"fields": FieldErrors(err),
	})
}

// FieldErrors flattens binding, ozzo and JSON decoding errors into field messages.
func FieldErrors(err error) map[string]string {
	fields := make(map[string]string)

	var bindErrs validator.ValidationErrors
	var ozzoErrs validation.Errors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.As(err, &bindErrs):
		for _, fe := range bindErrs {
			fields[fe.Field()] = describeTag(fe)
		}
	case errors.As(err, &ozzoErrs):
		for name, fieldErr := range ozzoErrs {
			if fieldErr != nil {
				fields[name] = fieldErr.Error()
			}
		}
	case errors.As(err, &typeErr):
		fields[typeErr.Field] = fmt.Sprintf("must be %s", typeErr.Type.String())
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		fields["body"] = "malformed JSON"
	default:
		fields["body"] = err.Error()
	}
	return fields
}

// InternalError logs err with the request correlation id and writes a generic 500.
func InternalError(c *gin.Context, err error, message string) {
	logger.FromContext(c).Error(message, zap.Error(err))
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": message})
}

// Error writes a JSON error body with the given status.
func Error(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// ParseID parses a UUID path parameter, writing a 400 response when it is malformed.
func ParseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		Error(c, http.StatusBadRequest, fmt.Sprintf("invalid %s", param))
		return uuid.Nil, false
	}
	return id, true
}

// ParseOptionalUUIDQuery parses an optional UUID query parameter.
func ParseOptionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		Error(c, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return nil, false
	}
	return &id, true
}

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// Page is a limit/offset window for list endpoints.
type Page struct {
	Limit  int
	Offset int
}

// ParsePage reads ?limit= and ?offset=, writing a 400 response when they are malformed.
func ParsePage(c *gin.Context) (Page, bool) {
	page := Page{Limit: defaultPageLimit}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			Error(c, http.StatusBadRequest, "invalid limit")
			return Page{}, false
		}
		page.Limit = min(limit, maxPageLimit)
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			Error(c, http.StatusBadRequest, "invalid offset")
			return Page{}, false
		}
		page.Offset = offset
	}
	return page, true
}

// ParseOptionalTimeQuery parses an optional RFC3339 query parameter.
func ParseOptionalTimeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		Error(c, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return nil, false
	}
	return &t, true
}

// RequiredID is an ozzo rule rejecting uuid.Nil. Nil pointers are skipped.
var RequiredID = validation.By(func(value interface{}) error {
	switch id := value.(type) {
	case uuid.UUID:
		if id == uuid.Nil {
			return errors.New("is required")
		}
	case *uuid.UUID:
		if id != nil && *id == uuid.Nil {
			return errors.New("is required")
		}
	}
	return nil
})

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed the %q rule", fe.Tag())
	}
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}
