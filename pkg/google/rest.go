// Package google holds the pieces shared by the Drive and Sheets REST clients
package google

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// UserAgent is sent with every request
const UserAgent = "altsheet/1.0"

// APIError is the error body returned by Google REST APIs
type APIError struct {
	Body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Body.Status != "" {
		return fmt.Sprintf("HTTP %d %s: %s", e.Body.Code, e.Body.Status, e.Body.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Body.Code, e.Body.Message)
}

// NewRESTClient creates a resty client on top of an authorized HTTP client.
// Retries are disabled; a failed call is reported to the caller as is.
func NewRESTClient(httpClient *http.Client, baseURL string, timeout time.Duration) *resty.Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	client := resty.NewWithClient(httpClient)
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	client.SetRetryCount(0)
	client.SetHeader("Accept", "application/json")
	client.SetHeader("User-Agent", UserAgent)
	client.SetError(&APIError{})
	return client
}

// ErrDeadline is returned by CheckResponse when the call ran out of time
var ErrDeadline = stderrors.New("deadline exceeded")

// CheckResponse turns a transport error or a non-2xx response into an error
func CheckResponse(ctx context.Context, resp *resty.Response, err error) error {
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", ErrDeadline, err)
		}
		return err
	}
	if resp.IsError() {
		if apiErr, ok := resp.Error().(*APIError); ok && apiErr.Body.Message != "" {
			if apiErr.Body.Code == 0 {
				apiErr.Body.Code = resp.StatusCode()
			}
			return apiErr
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// IsDeadline reports whether err came from an exhausted call deadline
func IsDeadline(err error) bool {
	return stderrors.Is(err, ErrDeadline)
}
