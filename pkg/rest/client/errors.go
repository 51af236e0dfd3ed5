package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is matched by a StatusError carrying a 401 status.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is matched by a StatusError carrying a 404 status.
	ErrNotFound = errors.New("not found")

	// ErrDomainNotAvailable indicates the requested domain is unknown or inactive.
	ErrDomainNotAvailable = errors.New("domain not available")
)

// StatusError reports an unexpected HTTP status from an account, token or domain request.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string // hydra:description or detail from the error body, if any
	Body       []byte
}

func newStatusError(method, path string, resp *Response) *StatusError {
	e := &StatusError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
	}
	var problem struct {
		Description string `json:"hydra:description"`
		Detail      string `json:"detail"`
		Message     string `json:"message"`
	}
	if json.Unmarshal(resp.Body, &problem) == nil {
		switch {
		case problem.Description != "":
			e.Detail = problem.Description
		case problem.Detail != "":
			e.Detail = problem.Detail
		default:
			e.Detail = problem.Message
		}
	}
	return e
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s for %q, unexpected %v: %s",
		e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap maps well known statuses onto ErrUnauthorized and ErrNotFound.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}
