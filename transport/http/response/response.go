package response

import (
	"encoding/json"
	"net/http"

	"retreat/shared/constant"
	"retreat/shared/failure"
	"retreat/shared/logger"
)

type Data[T any] struct {
	Data *T `json:"data,omitempty"`
}

// Error is the error body: {error, details?, status?}.
type Error struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
	Status  int    `json:"status,omitempty"`
}

type Message struct {
	Message *string `json:"message,omitempty"`
}

// WithMessage sends a response with a simple text message
func WithMessage(writer http.ResponseWriter, code int, message string) {
	response(writer, code, Message{Message: &message})
}

// WithJSON sends a response wrapped in a data envelope
func WithJSON(writer http.ResponseWriter, code int, jsonPayload any) {
	response(writer, code, Data[any]{Data: &jsonPayload})
}

// WithBody sends payload as the top-level JSON body
func WithBody(writer http.ResponseWriter, code int, payload any) {
	response(writer, code, payload)
}

// WithError renders a Failure with its code. Anything else is a 500 with a generic message;
// the cause only reaches the logs.
func WithError(writer http.ResponseWriter, err error) {
	fail, ok := failure.As(err)
	if !ok {
		logger.ErrorWithStack(err)

		response(writer, http.StatusInternalServerError, Error{Error: constant.ResponseErrorInternal})

		return
	}

	body := Error{Error: fail.Message, Details: fail.Details, Status: fail.UpstreamStatus}

	if fail.Code >= http.StatusInternalServerError && fail.Code != http.StatusBadGateway {
		logger.ErrorWithStack(err)

		body = Error{Error: constant.ResponseErrorInternal, Details: fail.Details}
	}

	response(writer, fail.Code, body)
}

// WithRequestLimitExceeded sends the rate-limit rejection; Retry-After is set by the caller
func WithRequestLimitExceeded(writer http.ResponseWriter) {
	response(writer, http.StatusTooManyRequests, Error{Error: constant.ResponseErrorRequestLimitExceeded})
}

// WithPreparingShutdown sends a default response for when the server is preparing to shut down
func WithPreparingShutdown(writer http.ResponseWriter) {
	WithMessage(writer, http.StatusServiceUnavailable, constant.ResponseErrorPrepareShutdown)
}

// WithUnhealthy sends a default response for when the server is unhealthy
func WithUnhealthy(writer http.ResponseWriter) {
	WithMessage(writer, http.StatusServiceUnavailable, constant.ResponseErrorUnhealthy)
}

func response(writer http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.ErrorWithStack(err)

		writer.WriteHeader(http.StatusInternalServerError)

		return
	}

	writer.Header().Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)
	writer.WriteHeader(code)

	if _, err = writer.Write(response); err != nil {
		logger.ErrorWithStack(err)
	}
}
