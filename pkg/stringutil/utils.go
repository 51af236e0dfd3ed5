package stringutil

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/mailtm/mailtm/pkg/policy"
	"github.com/mailtm/mailtm/pkg/rest/model"
)

// MakeAddress joins a local part and a domain into an address.
func MakeAddress(local, domain string) string {
	return strings.ToLower(local) + "@" + strings.ToLower(domain)
}

// SplitAddress parses an RFC 5322 address, which may carry a display name, and returns its
// unescaped local part and domain.
func SplitAddress(address string) (local, domain string, err error) {
	addr, err := mail.ParseAddress(address)
	if err != nil {
		return "", "", fmt.Errorf("invalid address %q: %w", address, err)
	}
	return policy.ParseEmailAddress(addr.Address)
}

// RandomLocalPart returns a random 12 character local part.
func RandomLocalPart() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// JoinContacts formats a list of contacts as a comma separated string.
func JoinContacts(contacts []model.Contact) string {
	s := make([]string, len(contacts))
	for i, c := range contacts {
		s[i] = c.String()
	}
	return strings.Join(s, ", ")
}
