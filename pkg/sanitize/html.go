// Package sanitize cleans message HTML before it is displayed.
package sanitize

import (
	"bufio"
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var cssSafe = regexp.MustCompile(".*")

// Sanitizer removes scripts, event handlers and unsafe styling from message HTML, while
// attempting to preserve inline CSS.
type Sanitizer struct {
	policy            *bluemonday.Policy
	blockRemoteImages bool
}

// Option configures a Sanitizer.
type Option func(*Sanitizer)

// WithRemoteImagesBlocked drops the src of images served over http(s), which are commonly
// used to track when a message is read. Inline cid: and data: images are kept.
func WithRemoteImagesBlocked() Option {
	return func(s *Sanitizer) {
		s.blockRemoteImages = true
	}
}

// New creates a Sanitizer.
func New(opts ...Option) *Sanitizer {
	p := bluemonday.UGCPolicy().
		AllowElements("center").
		AllowAttrs("style").Matching(cssSafe).Globally().
		AllowURLSchemes("cid").
		AddTargetBlankToFullyQualifiedLinks(true)
	s := &Sanitizer{policy: p}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HTML sanitizes a single HTML document or fragment.
func (s *Sanitizer) HTML(input string) (string, error) {
	b := &bytes.Buffer{}
	if err := s.filterAttrs(b, strings.NewReader(input)); err != nil {
		return "", err
	}
	return s.policy.Sanitize(b.String()), nil
}

// Fragments sanitizes each of the HTML parts of a message and concatenates them in order.
func (s *Sanitizer) Fragments(parts []string) (string, error) {
	var sb strings.Builder
	for _, part := range parts {
		clean, err := s.HTML(part)
		if err != nil {
			return "", err
		}
		sb.WriteString(clean)
	}
	return sb.String(), nil
}

// HTML sanitizes input with the default Sanitizer.
func HTML(input string) (string, error) {
	return defaultSanitizer.HTML(input)
}

var defaultSanitizer = New()

// filterAttrs copies the tokens of r to w, rewriting style attributes to their allowed
// declarations and dropping remote image sources when configured to.
func (s *Sanitizer) filterAttrs(w io.Writer, r io.Reader) error {
	bw := bufio.NewWriter(w)
	b := make([]byte, 0, 256)
	z := html.NewTokenizer(r)
	for {
		b = b[:0]
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			err := z.Err()
			if err == io.EOF {
				return bw.Flush()
			}
			return err
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if !hasAttr {
				if _, err := bw.Write(z.Raw()); err != nil {
					return err
				}
				continue
			}
			img := string(name) == "img"
			b = append(b, '<')
			b = append(b, name...)
			for more := true; more; {
				var key, val []byte
				key, val, more = z.TagAttr()
				k := strings.ToLower(string(key))
				v := string(val)
				switch {
				case k == "style":
					if v = cleanStyle(v); v == "" {
						continue
					}
				case img && k == "src" && s.blockRemoteImages && isRemote(v):
					continue
				}
				b = append(b, ' ')
				b = append(b, k...)
				b = append(b, '=', '"')
				b = append(b, html.EscapeString(v)...)
				b = append(b, '"')
			}
			if tt == html.SelfClosingTagToken {
				b = append(b, '/')
			}
			if _, err := bw.Write(append(b, '>')); err != nil {
				return err
			}
		default:
			if _, err := bw.Write(z.Raw()); err != nil {
				return err
			}
		}
	}
}

func isRemote(src string) bool {
	src = strings.ToLower(strings.TrimSpace(src))
	return strings.HasPrefix(src, "http:") || strings.HasPrefix(src, "https:") ||
		strings.HasPrefix(src, "//")
}
