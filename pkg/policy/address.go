// Package policy validates the addresses accounts are created under.
package policy

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

const (
	maxAddressLen = 320
	maxLocalLen   = 128
	maxDomainLen  = 255
	maxLabelLen   = 63
)

// ErrInvalidAddress is wrapped by every address validation error.
var ErrInvalidAddress = errors.New("invalid address")

// AccountAddress validates an account address and returns it in the lower case form the
// service stores. Unlike ParseEmailAddress, quoting is not accepted: account names are limited
// to unquoted atext and periods.
func AccountAddress(address string) (string, error) {
	local, domain, err := ParseEmailAddress(address)
	if err != nil {
		return "", err
	}
	name, err := accountName(local)
	if err != nil {
		return "", err
	}
	return name + "@" + strings.ToLower(strings.TrimSuffix(domain, ".")), nil
}

// ParseEmailAddress unescapes an email address, and splits the local part from the domain part.
// An error is returned if the local or domain parts fail validation following the guidelines
// in RFC3696.
func ParseEmailAddress(address string) (local string, domain string, err error) {
	local, domain, err = parseEmailAddress(address)
	if err != nil {
		return "", "", err
	}
	if !ValidateDomainPart(domain) {
		return "", "", invalid("domain part %q failed validation", domain)
	}
	return local, domain, nil
}

// ValidateDomainPart returns true if the domain part complies to RFC3696, RFC1035.
func ValidateDomainPart(domain string) bool {
	if len(domain) == 0 || len(domain) > maxDomainLen {
		return false
	}
	if domain[len(domain)-1] != '.' {
		domain += "."
	}
	prev := byte('.')
	labelLen := 0
	hasAlphaNum := false
	for i := 0; i < len(domain); i++ {
		c := domain[i]
		switch {
		case isAlphaNum(c) || c == '_':
			hasAlphaNum = true
			labelLen++
		case c == '-':
			if prev == '.' {
				// Cannot lead with hyphen.
				return false
			}
		case c == '.':
			// Labels cannot end with a hyphen, or be empty.
			if prev == '.' || prev == '-' || labelLen > maxLabelLen || !hasAlphaNum {
				return false
			}
			labelLen = 0
			hasAlphaNum = false
		default:
			return false
		}
		prev = c
	}
	return true
}

// parseEmailAddress unescapes address and splits the local part from the domain part. The
// local part is validated, the domain part is not.
func parseEmailAddress(address string) (local string, domain string, err error) {
	switch {
	case address == "":
		return "", "", invalid("empty address")
	case len(address) > maxAddressLen:
		return "", "", invalid("address exceeds %d characters", maxAddressLen)
	case address[0] == '@':
		return "", "", invalid("address cannot start with @ symbol")
	case address[0] == '.':
		return "", "", invalid("address cannot start with a period")
	}
	buf := new(bytes.Buffer)
	prev := byte('.')
	inCharQuote := false
	inStringQuote := false
	quoted := func() bool { return inCharQuote || inStringQuote }
LOOP:
	for i := 0; i < len(address); i++ {
		c := address[i]
		switch {
		case c > 127:
			return "", "", invalid("characters outside of US-ASCII range not permitted")
		case isAtext(c):
			buf.WriteByte(c)
			inCharQuote = false
		case c == '.':
			if prev == '.' {
				return "", "", invalid("sequence of periods is not permitted")
			}
			buf.WriteByte(c)
			inCharQuote = false
		case c == '\\' && !inCharQuote:
			inCharQuote = true
		case c == '"' && !inCharQuote:
			if inStringQuote {
				inStringQuote = false
			} else if i == 0 {
				inStringQuote = true
			} else {
				return "", "", invalid("quoted string can only begin at start of address")
			}
		case c == '@' && !quoted():
			if i > maxLocalLen {
				return "", "", invalid("local part must not exceed %d characters", maxLocalLen)
			}
			if prev == '.' {
				return "", "", invalid("local part cannot end with a period")
			}
			domain = address[i+1:]
			break LOOP
		case quoted():
			buf.WriteByte(c)
			inCharQuote = false
		default:
			return "", "", invalid("character %q must be quoted", c)
		}
		prev = c
	}
	if inCharQuote {
		return "", "", invalid("cannot end address with unterminated quoted-pair")
	}
	if inStringQuote {
		return "", "", invalid("cannot end address with unterminated string quote")
	}
	return buf.String(), domain, nil
}

// accountName lower cases an unescaped local part, rejecting characters that would need to be
// quoted.
func accountName(local string) (string, error) {
	if local == "" {
		return "", invalid("account name cannot be empty")
	}
	name := strings.ToLower(local)
	var bad []byte
	for i := 0; i < len(name); i++ {
		if c := name[i]; !isAtext(c) && c != '.' {
			bad = append(bad, c)
		}
	}
	if len(bad) > 0 {
		return "", invalid("account name contained invalid character(s): %q", bad)
	}
	return name, nil
}

func isAlphaNum(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// isAtext reports whether c may appear unquoted in a local part, periods aside.
func isAtext(c byte) bool {
	return isAlphaNum(c) || strings.IndexByte("!#$%&'*+-/=?^_`{|}~", c) >= 0
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidAddress, fmt.Sprintf(format, args...))
}
