package kit

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"fontier-admin/internal/assign"
	"fontier-admin/internal/fontapi"
	"fontier-admin/internal/logx"
)

var kitLogger = logx.GetScope("httpx")

// APIError is a structured application error with code and message.
type APIError struct {
	HTTPStatus int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

func NewAPIError(httpStatus int, code, msg string, details any) *APIError {
	return &APIError{HTTPStatus: httpStatus, Code: code, Message: msg, Details: details}
}

// Common helpers
func BadRequest(msg string, details any) error {
	return NewAPIError(http.StatusBadRequest, "E_INVALID_PARAM", msg, details)
}
func NotFound(msg string) error { return NewAPIError(http.StatusNotFound, "E_NOT_FOUND", msg, nil) }
func InternalError(msg string, details any) error {
	return NewAPIError(http.StatusInternalServerError, "E_INTERNAL", msg, details)
}

// FromError turns a remote or engine failure into an APIError with the status the
// dashboard should see. msg overrides the message when non-empty.
func FromError(err error, msg string) *APIError {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae
	}
	var (
		se *fontapi.StatusError
		ue *url.Error
	)
	status, code := http.StatusInternalServerError, "E_INTERNAL"
	switch {
	case errors.Is(err, fontapi.ErrNotFound), errors.Is(err, assign.ErrUnknownItem):
		status, code = http.StatusNotFound, "E_NOT_FOUND"
	case errors.Is(err, fontapi.ErrConflict):
		status, code = http.StatusConflict, "E_CONFLICT"
	case errors.Is(err, fontapi.ErrTooLarge):
		status, code = http.StatusRequestEntityTooLarge, "E_TOO_LARGE"
	case errors.Is(err, fontapi.ErrUnsupportedFormat):
		status, code = http.StatusUnsupportedMediaType, "E_UNSUPPORTED_FORMAT"
	case errors.Is(err, fontapi.ErrRateLimited):
		status, code = http.StatusTooManyRequests, "E_RATE_LIMITED"
	case errors.Is(err, assign.ErrUnsupported):
		status, code = http.StatusMethodNotAllowed, "E_UNSUPPORTED"
	case errors.Is(err, assign.ErrBadTarget):
		status, code = http.StatusBadRequest, "E_INVALID_PARAM"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "E_TIMEOUT"
	case errors.As(err, &se):
		// remaining 4xx answers keep their status so validation messages reach the form
		status, code = lo.Ternary(se.Status < 500, se.Status, http.StatusBadGateway),
			lo.Ternary(se.Status < 500, "E_INVALID_PARAM", "E_UPSTREAM")
	case errors.As(err, &ue):
		status, code = http.StatusBadGateway, "E_UPSTREAM"
	}
	if msg == "" {
		switch {
		case errors.As(err, &se) && se.Message != "":
			msg = se.Message
		case status == http.StatusInternalServerError:
			msg = "Internal Server Error"
		default:
			msg = err.Error()
		}
	}
	return NewAPIError(status, code, msg, nil)
}

// ErrorHandler returns a Fiber error handler that emits unified error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		// Fiber error
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"code":       httpStatusToCode(fe.Code),
				"message":    fiberErrorMessage(c, fe),
				"request_id": RequestID(c),
			})
		}

		ae := FromError(err, "")
		if ae.HTTPStatus >= 500 {
			kitLogger.Warn("request failed", zap.String("path", c.Path()), zap.Int("status", ae.HTTPStatus), zap.Error(err))
		}
		return c.Status(ae.HTTPStatus).JSON(fiber.Map{
			"code":       ae.Code,
			"message":    ae.Message,
			"details":    ae.Details,
			"request_id": RequestID(c),
		})
	}
}

// fiberErrorMessage keeps the upload form's wording when the body limit cuts off a
// font upload before it reaches the handler.
func fiberErrorMessage(c *fiber.Ctx, fe *fiber.Error) string {
	if fe.Code == fiber.StatusRequestEntityTooLarge && c.Method() == fiber.MethodPost &&
		strings.HasSuffix(strings.TrimRight(c.Path(), "/"), "/v1/fonts") {
		return fontapi.MsgTooLarge
	}
	return fe.Message
}

func httpStatusToCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "E_INVALID_PARAM"
	case http.StatusNotFound:
		return "E_NOT_FOUND"
	case http.StatusUnauthorized:
		return "E_UNAUTHORIZED"
	case http.StatusForbidden:
		return "E_FORBIDDEN"
	case http.StatusTooManyRequests:
		return "E_RATE_LIMITED"
	case http.StatusRequestEntityTooLarge:
		return "E_TOO_LARGE"
	default:
		if status >= 500 {
			return "E_INTERNAL"
		}
		return "E_UNKNOWN"
	}
}
