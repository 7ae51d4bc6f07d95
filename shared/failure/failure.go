package failure

import (
	"errors"
	"net/http"
)

// Failure is an error that already knows its HTTP status.
// Details holds per-field validation output and UpstreamStatus the provider's answer on a 502.
type Failure struct {
	Code           int    `json:"code"`
	Message        string `json:"message"`
	Details        any    `json:"details,omitempty"`
	UpstreamStatus int    `json:"status,omitempty"`
}

var (
	InvalidPageParam  = &Failure{Code: http.StatusBadRequest, Message: "invalid page parameter"}
	InvalidLimitParam = &Failure{Code: http.StatusBadRequest, Message: "invalid limit parameter"}
	ForbiddenError    = &Failure{Code: http.StatusForbidden, Message: "You don't have the required permissions"}
)

func (e *Failure) Error() string {
	return e.Message
}

func newFailure(code int, msg string) error {
	return &Failure{Code: code, Message: msg}
}

// BadRequest turns a decode or parse error into a 400. A nil err stays nil.
func BadRequest(err error) error {
	if err == nil {
		return nil
	}

	return newFailure(http.StatusBadRequest, err.Error())
}

func BadRequestFromString(msg string) error {
	return newFailure(http.StatusBadRequest, msg)
}

func BadRequestWithDetails(msg string, details any) error {
	return &Failure{Code: http.StatusBadRequest, Message: msg, Details: details}
}

func Unauthorized(msg string) error {
	return newFailure(http.StatusUnauthorized, msg)
}

func Forbidden(msg string) error {
	return newFailure(http.StatusForbidden, msg)
}

func NotFound(msg string) error {
	return newFailure(http.StatusNotFound, msg)
}

func Conflict(msg string) error {
	return newFailure(http.StatusConflict, msg)
}

func TooManyRequests(msg string) error {
	return newFailure(http.StatusTooManyRequests, msg)
}

// InternalError keeps err's text for logs; responses never show it.
func InternalError(err error) error {
	if err == nil {
		return nil
	}

	return newFailure(http.StatusInternalServerError, err.Error())
}

// BadGateway reports a provider that failed permanently or ran out of retries.
func BadGateway(msg string, upstreamStatus int) error {
	return &Failure{Code: http.StatusBadGateway, Message: msg, UpstreamStatus: upstreamStatus}
}

// GetCode maps err to an HTTP status. Anything that is not a Failure is a 500.
func GetCode(err error) int {
	if fail, ok := As(err); ok {
		return fail.Code
	}

	return http.StatusInternalServerError
}

func As(err error) (*Failure, bool) {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail, true
	}

	return nil, false
}

// IsClient reports whether err is a 4xx the caller caused.
func IsClient(err error) bool {
	fail, ok := As(err)

	return ok && fail.Code >= http.StatusBadRequest && fail.Code < http.StatusInternalServerError
}
