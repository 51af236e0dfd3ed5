package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mailtm/mailtm/pkg/rest/model"
	"github.com/rs/zerolog/log"
)

// httpClient allows http.Client to be mocked for tests
type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Response is the status code and body of a completed API request.
type Response struct {
	StatusCode int
	Body       []byte
}

// ConnectionManager issues requests against the API. Non-success statuses are reported in the
// Response; an error is only returned when no response was received.
type ConnectionManager interface {
	// Get requests path with the optional query parameters, authenticating with token when it
	// is not empty.
	Get(ctx context.Context, path string, query map[string]any, token model.Token) (*Response, error)

	// Send issues a request carrying body encoded as JSON; a nil body sends no content.
	Send(ctx context.Context, method, path string, body any, token model.Token) (*Response, error)
}

// Generic REST restClient
type restClient struct {
	client  httpClient
	baseURL *url.URL
}

var _ ConnectionManager = &restClient{}

// do performs an HTTP request with this client and returns the response.
func (c *restClient) do(
	ctx context.Context, method, uri string, token model.Token, body []byte,
) (*http.Response, error) {
	target := strings.TrimSuffix(c.baseURL.String(), "/") + "/" + strings.TrimPrefix(uri, "/")
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, r)
	if err != nil {
		return nil, fmt.Errorf("%s for %q: %v", method, target, err)
	}
	req.Header.Set("Accept", "application/ld+json")
	if body != nil {
		contentType := "application/json"
		if method == http.MethodPatch {
			contentType = "application/merge-patch+json"
		}
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+string(token))
	}

	return c.client.Do(req)
}

// exchange performs a request and reads the complete response body.
func (c *restClient) exchange(
	ctx context.Context, method, uri string, token model.Token, body []byte,
) (*Response, error) {
	resp, err := c.do(ctx, method, uri, token, body)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = resp.Body.Close()
	}()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s for %q, reading body: %v", method, uri, err)
	}
	log.Debug().Str("module", "rest").Str("method", method).Str("uri", uri).
		Int("status", resp.StatusCode).Bool("auth", token != "").Msg("API response")
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// Get implements ConnectionManager.
func (c *restClient) Get(
	ctx context.Context, path string, query map[string]any, token model.Token,
) (*Response, error) {
	return c.exchange(ctx, http.MethodGet, AddQuery(path, query), token, nil)
}

// Send implements ConnectionManager.
func (c *restClient) Send(
	ctx context.Context, method, path string, body any, token model.Token,
) (*Response, error) {
	var b []byte
	if body != nil {
		var err error
		b, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s for %q, encoding body: %v", method, path, err)
		}
	}
	return c.exchange(ctx, method, path, token, b)
}

// doJSON sends body and unmarshalls a successful JSON response into v. Any non-2xx status is
// returned as a *StatusError.
func (c *restClient) doJSON(
	ctx context.Context, method, uri string, token model.Token, body any, v any,
) error {
	resp, err := c.Send(ctx, method, uri, body, token)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(method, uri, resp)
	}
	if v == nil || len(resp.Body) == 0 {
		return nil
	}
	return json.Unmarshal(resp.Body, v)
}
