package fontapi

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors matched by StatusError.Is.
var (
	ErrNotFound          = errors.New("fontapi: not found")
	ErrConflict          = errors.New("fontapi: conflict")
	ErrTooLarge          = errors.New("fontapi: payload too large")
	ErrUnsupportedFormat = errors.New("fontapi: unsupported media type")
	ErrRateLimited       = errors.New("fontapi: rate limited by server")
	ErrServer            = errors.New("fontapi: server error")
)

// Human readable upload failures shown at the point of action.
const (
	MsgTooLarge      = "The font file is too large. Please upload a smaller file."
	MsgInvalidFormat = "Invalid file format. Please upload a valid font file."
	MsgDuplicate     = "This font already exists in the database. The name is irrelevant, only the file's content matters."
)

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Op      string // "getFonts", "uploadFont", ...
	Method  string
	Path    string
	Status  int
	Message string // server supplied message or raw body, may be empty
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("fontapi %s: %s %s failed with status code %d: %s", e.Op, e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("fontapi %s: %s %s failed with status code %d", e.Op, e.Method, e.Path, e.Status)
}

// Is maps the status onto the package sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrTooLarge:
		return e.Status == http.StatusRequestEntityTooLarge
	case ErrUnsupportedFormat:
		return e.Status == http.StatusUnsupportedMediaType
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	case ErrServer:
		return e.Status >= 500
	}
	return false
}

// StatusOf returns the HTTP status carried by err, or 0 for transport failures.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// UploadErrorMessage converts an upload failure into the message shown to the user.
func UploadErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	switch StatusOf(err) {
	case http.StatusRequestEntityTooLarge:
		return MsgTooLarge
	case http.StatusUnsupportedMediaType:
		return MsgInvalidFormat
	case http.StatusConflict:
		return MsgDuplicate
	default:
		return err.Error()
	}
}
