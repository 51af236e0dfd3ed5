package client

import (
	"fmt"
	"net/url"
	"strings"
)

// JoinPath appends path elements to an endpoint, escaping each element. Elements that are
// dot segments are percent encoded so they name a resource rather than a parent directory.
func JoinPath(endpoint string, elem ...string) string {
	parts := make([]string, 0, len(elem)+1)
	parts = append(parts, strings.TrimSuffix(endpoint, "/"))
	for _, e := range elem {
		e = url.PathEscape(strings.Trim(e, "/"))
		if e == "." || e == ".." {
			e = strings.ReplaceAll(e, ".", "%2E")
		}
		parts = append(parts, e)
	}
	return strings.Join(parts, "/")
}

// AddQuery appends params to path as an encoded query string, sorted by key. Values are
// formatted with fmt.Sprint.
func AddQuery(path string, params map[string]any) string {
	if len(params) == 0 {
		return path
	}
	q := make(url.Values, len(params))
	for k, v := range params {
		q.Set(k, fmt.Sprint(v))
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode()
}
