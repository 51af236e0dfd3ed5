package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/mailtm/mailtm/pkg/rest/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURLStr = "http://test.local:8080"
const baseURLPathStr = "http://test.local:8080/mailtm"

var baseURL *url.URL

var baseURLPath *url.URL

func init() {
	var err error
	baseURL, err = url.Parse(baseURLStr)
	if err != nil {
		panic(err)
	}
	baseURLPath, err = url.Parse(baseURLPathStr)
	if err != nil {
		panic(err)
	}
}

type mockHTTPClient struct {
	req        *http.Request
	statusCode int
	body       string
	err        error
}

func (m *mockHTTPClient) Do(req *http.Request) (resp *http.Response, err error) {
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	if m.statusCode == 0 {
		m.statusCode = 200
	}
	resp = &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}
	return
}

func (m *mockHTTPClient) ReqBody() []byte {
	r, err := m.req.GetBody()
	if err != nil {
		return nil
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil
	}
	_ = r.Close()
	return body
}

func TestDoTable(t *testing.T) {
	tests := []struct {
		method     string
		uri        string
		wantMethod string
		base       *url.URL
		wantURL    string
		wantBody   []byte
	}{
		{method: "GET", wantMethod: "GET", uri: "/doget", base: baseURL, wantURL: baseURLStr + "/doget", wantBody: []byte("Test body 1")},
		{method: "POST", wantMethod: "POST", uri: "/dopost", base: baseURL, wantURL: baseURLStr + "/dopost", wantBody: []byte("Test body 2")},
		{method: "GET", wantMethod: "GET", uri: "doget", base: baseURLPath, wantURL: baseURLPathStr + "/doget", wantBody: []byte("Test body 3")},
		{method: "POST", wantMethod: "POST", uri: "/dopost", base: baseURLPath, wantURL: baseURLPathStr + "/dopost", wantBody: []byte("Test body 4")},
		{method: "GET", wantMethod: "GET", uri: "messages?page=2", base: baseURL, wantURL: baseURLStr + "/messages?page=2", wantBody: []byte("Test body 5")},
	}
	for _, test := range tests {
		testname := fmt.Sprintf("%s,%s", test.method, test.wantURL)
		t.Run(testname, func(t *testing.T) {
			ctx := context.Background()
			mth := &mockHTTPClient{}
			c := &restClient{mth, test.base}

			resp, err := c.do(ctx, test.method, test.uri, "", test.wantBody)
			require.NoError(t, err)
			err = resp.Body.Close()
			require.NoError(t, err)

			if mth.req.Method != test.wantMethod {
				t.Errorf("req.Method == %q, want %q", mth.req.Method, test.wantMethod)
			}
			if mth.req.URL.String() != test.wantURL {
				t.Errorf("req.URL == %q, want %q", mth.req.URL.String(), test.wantURL)
			}
			if !bytes.Equal(mth.ReqBody(), test.wantBody) {
				t.Errorf("req.Body == %q, want %q", mth.ReqBody(), test.wantBody)
			}
		})
	}
}

func TestGetHeaders(t *testing.T) {
	mth := &mockHTTPClient{statusCode: 401, body: `{"code":401}`}
	c := &restClient{mth, baseURL}

	resp, err := c.Get(context.Background(), "messages", map[string]any{"page": 3}, "tok")
	require.NoError(t, err, "non-success statuses are not errors")
	assert.Equal(t, 401, resp.StatusCode)
	assert.Equal(t, `{"code":401}`, string(resp.Body))

	assert.Equal(t, "GET", mth.req.Method)
	assert.Equal(t, baseURLStr+"/messages?page=3", mth.req.URL.String())
	assert.Equal(t, "Bearer tok", mth.req.Header.Get("Authorization"))
	assert.Equal(t, "application/ld+json", mth.req.Header.Get("Accept"))
	assert.Empty(t, mth.req.Header.Get("Content-Type"))
}

func TestGetWithoutToken(t *testing.T) {
	mth := &mockHTTPClient{}
	c := &restClient{mth, baseURL}

	_, err := c.Get(context.Background(), "domains", nil, "")
	require.NoError(t, err)
	assert.Equal(t, baseURLStr+"/domains", mth.req.URL.String())
	assert.Empty(t, mth.req.Header.Get("Authorization"))
}

func TestGetTransportError(t *testing.T) {
	boom := errors.New("connection refused")
	mth := &mockHTTPClient{err: boom}
	c := &restClient{mth, baseURL}

	_, err := c.Get(context.Background(), "messages", nil, "tok")
	assert.ErrorIs(t, err, boom)
}

func TestSendJSON(t *testing.T) {
	tests := []struct {
		method      string
		contentType string
	}{
		{http.MethodPost, "application/json"},
		{http.MethodPatch, "application/merge-patch+json"},
	}
	for _, tc := range tests {
		t.Run(tc.method, func(t *testing.T) {
			mth := &mockHTTPClient{statusCode: 201}
			c := &restClient{mth, baseURL}

			resp, err := c.Send(context.Background(), tc.method, "accounts",
				&model.Credentials{Address: "a@b.org", Password: "pw"}, "")
			require.NoError(t, err)
			assert.Equal(t, 201, resp.StatusCode)
			assert.Equal(t, tc.contentType, mth.req.Header.Get("Content-Type"))
			assert.JSONEq(t, `{"address":"a@b.org","password":"pw"}`, string(mth.ReqBody()))
		})
	}
}

func TestDoJSON(t *testing.T) {
	var want, got string

	mth := &mockHTTPClient{
		body: `{"foo": "bar"}`,
	}
	c := &restClient{mth, baseURL}

	var v map[string]interface{}
	err := c.doJSON(context.Background(), "GET", "/doget", "", nil, &v)
	if err != nil {
		t.Fatal(err)
	}

	want = "GET"
	got = mth.req.Method
	if got != want {
		t.Errorf("req.Method == %q, want %q", got, want)
	}

	want = baseURLStr + "/doget"
	got = mth.req.URL.String()
	if got != want {
		t.Errorf("req.URL == %q, want %q", got, want)
	}

	want = "bar"
	if val, ok := v["foo"]; ok {
		got = val.(string)
		if got != want {
			t.Errorf("map[foo] == %q, want: %q", got, want)
		}
	} else {
		t.Errorf("Map did not contain key foo, want: %q", want)
	}
}

func TestDoJSONNilV(t *testing.T) {
	var want, got string

	mth := &mockHTTPClient{statusCode: 204}
	c := &restClient{mth, baseURL}

	err := c.doJSON(context.Background(), "DELETE", "/dodelete", "tok", nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	want = "DELETE"
	got = mth.req.Method
	if got != want {
		t.Errorf("req.Method == %q, want %q", got, want)
	}

	want = baseURLStr + "/dodelete"
	got = mth.req.URL.String()
	if got != want {
		t.Errorf("req.URL == %q, want %q", got, want)
	}
}

func TestDoJSONStatusError(t *testing.T) {
	tests := []struct {
		status     int
		body       string
		sentinel   error
		wantDetail string
	}{
		{401, `{"code":401,"message":"Invalid credentials."}`, ErrUnauthorized, "Invalid credentials."},
		{404, `{"hydra:description":"Not Found"}`, ErrNotFound, "Not Found"},
		{422, `{"hydra:description":"address: This value is already used."}`, nil,
			"address: This value is already used."},
		{500, `oops`, nil, ""},
	}
	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			mth := &mockHTTPClient{statusCode: tc.status, body: tc.body}
			c := &restClient{mth, baseURL}

			var v map[string]interface{}
			err := c.doJSON(context.Background(), "POST", "accounts", "", nil, &v)
			var serr *StatusError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tc.status, serr.StatusCode)
			assert.Equal(t, "accounts", serr.Path)
			assert.Equal(t, tc.wantDetail, serr.Detail)
			if tc.sentinel != nil {
				assert.ErrorIs(t, err, tc.sentinel)
			} else {
				assert.NotErrorIs(t, err, ErrUnauthorized)
				assert.NotErrorIs(t, err, ErrNotFound)
			}
		})
	}
}

func TestDoJSONValidationError(t *testing.T) {
	mth := &mockHTTPClient{body: `{"id": "only"}`}
	c := &restClient{mth, baseURL}

	err := c.doJSON(context.Background(), "GET", "me", "tok", nil, &model.Account{})
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
}
