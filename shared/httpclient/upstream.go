package httpclient

import (
	"errors"
	"fmt"
	"net/http"

	"retreat/shared/failure"
)

// UpstreamError is a provider answer that was not 2xx once the retry budget was spent.
type UpstreamError struct {
	Operation string
	Status    int
	Body      string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream responded %d", e.Operation, e.Status)
}

// Expect reads the body and turns a non-2xx response into an UpstreamError.
func Expect(resp *http.Response, operation string) ([]byte, error) {
	body, err := ReadBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, &UpstreamError{Operation: operation, Status: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// AsFailure maps any provider call error to a 502 carrying the upstream status when there is one.
// Failures that are already typed pass through.
func AsFailure(err error, message string) error {
	if err == nil {
		return nil
	}

	if _, ok := failure.As(err); ok {
		return err
	}

	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return failure.BadGateway(message, upstream.Status)
	}

	return failure.BadGateway(message, 0)
}
