package sanitize

import (
	"bytes"
	"strings"
	"testing"
)

func TestCleanStyle(t *testing.T) {
	testCases := []struct {
		input, want string
	}{
		{"", ""},
		{
			"color: red;",
			"color: red;",
		},
		{
			"background-color: black; color: white",
			"background-color: black;color: white",
		},
		{
			"background-color: black; invalid: true; color: white",
			"background-color: black;color: white",
		},
		{
			"; color: red",
			"color: red",
		},
		{
			"position: fixed",
			"",
		},
		{
			"color: red; background-color: url(http://tracker.example.com/p.png)",
			"",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got := cleanStyle(tc.input)
			if got != tc.want {
				t.Errorf("got: %q, want: %q, input: %q", got, tc.want, tc.input)
			}
		})
	}
}

func TestFilterAttrsRemoteImages(t *testing.T) {
	testCases := []struct {
		name, input, want string
		block             bool
	}{
		{
			"allowed",
			`<img src="http://example.com/a.png" alt="a">`,
			`<img src="http://example.com/a.png" alt="a">`,
			false,
		},
		{
			"blocked http",
			`<img src="http://example.com/a.png" alt="a">`,
			`<img alt="a">`,
			true,
		},
		{
			"blocked protocol relative",
			`<img SRC=' //example.com/a.png'/>`,
			`<img/>`,
			true,
		},
		{
			"inline kept",
			`<img src="cid:logo@example.org">`,
			`<img src="cid:logo@example.org">`,
			true,
		},
		{
			"links untouched",
			`<a src="http://example.com/">x</a>`,
			`<a src="http://example.com/">x</a>`,
			true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var opts []Option
			if tc.block {
				opts = append(opts, WithRemoteImagesBlocked())
			}
			b := &bytes.Buffer{}
			if err := New(opts...).filterAttrs(b, strings.NewReader(tc.input)); err != nil {
				t.Fatal(err)
			}
			if got := b.String(); got != tc.want {
				t.Errorf("input: %s\ngot : %s\nwant: %s", tc.input, got, tc.want)
			}
		})
	}
}
