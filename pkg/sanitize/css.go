package sanitize

import (
	"bytes"
	"strings"

	"github.com/gorilla/css/scanner"
)

// Properties permitted in style attributes. Anything able to move content outside of its box,
// such as position, is left out.
var allowedProperties = map[string]bool{
	"align":            true,
	"background-color": true,
	"border":           true,
	"border-bottom":    true,
	"border-collapse":  true,
	"border-left":      true,
	"border-radius":    true,
	"border-right":     true,
	"border-spacing":   true,
	"border-top":       true,
	"box-sizing":       true,
	"clear":            true,
	"color":            true,
	"display":          true,
	"font":             true,
	"font-family":      true,
	"font-size":        true,
	"font-style":       true,
	"font-weight":      true,
	"height":           true,
	"letter-spacing":   true,
	"line-height":      true,
	"list-style-type":  true,
	"margin":           true,
	"margin-bottom":    true,
	"margin-left":      true,
	"margin-right":     true,
	"margin-top":       true,
	"max-height":       true,
	"max-width":        true,
	"min-width":        true,
	"overflow":         true,
	"padding":          true,
	"padding-bottom":   true,
	"padding-left":     true,
	"padding-right":    true,
	"padding-top":      true,
	"table-layout":     true,
	"text-align":       true,
	"text-decoration":  true,
	"text-shadow":      true,
	"text-transform":   true,
	"vertical-align":   true,
	"white-space":      true,
	"width":            true,
	"word-break":       true,
}

// declFilter consumes one CSS token and returns the filter for the next.
type declFilter func(b *bytes.Buffer, t *scanner.Token) declFilter

// cleanStyle returns the declarations of a style attribute whose property is allowed. A value
// that fails to scan, or that references a url(), yields an empty string.
func cleanStyle(input string) string {
	b := &bytes.Buffer{}
	scan := scanner.New(input)
	filter := expectProperty
	for {
		t := scan.Next()
		switch t.Type {
		case scanner.TokenEOF:
			return b.String()
		case scanner.TokenError:
			return ""
		}
		filter = filter(b, t)
		if filter == nil {
			return ""
		}
	}
}

func expectProperty(b *bytes.Buffer, t *scanner.Token) declFilter {
	switch t.Type {
	case scanner.TokenIdent:
		if !allowedProperties[strings.ToLower(t.Value)] {
			return skipDeclaration
		}
		b.WriteString(t.Value)
		return copyDeclaration
	case scanner.TokenS:
		return expectProperty
	case scanner.TokenChar:
		if t.Value == ";" {
			// Stray separator.
			return expectProperty
		}
	}
	return skipDeclaration
}

func skipDeclaration(_ *bytes.Buffer, t *scanner.Token) declFilter {
	if t.Type == scanner.TokenChar && t.Value == ";" {
		return expectProperty
	}
	return skipDeclaration
}

func copyDeclaration(b *bytes.Buffer, t *scanner.Token) declFilter {
	switch t.Type {
	case scanner.TokenChar:
		if t.Value == ";" {
			b.WriteString(t.Value)
			return expectProperty
		}
	case scanner.TokenURI:
		return nil
	}
	b.WriteString(t.Value)
	return copyDeclaration
}
