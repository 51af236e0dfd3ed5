// Package test provides an in-process mail service speaking the same hydra REST dialect as
// mail.tm, for use in tests.
package test

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mailtm/mailtm/pkg/message"
	"github.com/mailtm/mailtm/pkg/policy"
	"github.com/mailtm/mailtm/pkg/rest/model"
	"github.com/mailtm/mailtm/pkg/stringutil"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultPageSize matches the page size of the public service.
	DefaultPageSize = 30

	defaultQuota     = 40000000
	defaultRetention = 7 * 24 * time.Hour
)

// ErrNoAccount is returned by Deliver when the recipient has no account.
var ErrNoAccount = errors.New("no account for recipient")

// account is a registered account along with its inbox, newest message first.
type account struct {
	model.Account
	password string
	messages []*model.Message
	sources  map[string][]byte
}

// Service is a fake mail service. It is safe for concurrent use.
type Service struct {
	pageSize int
	secret   []byte
	tokenTTL time.Duration
	clock    func() time.Time

	mu        sync.Mutex
	domains   []model.Domain
	accounts  map[string]*account // by id
	addresses map[string]string   // address to account id

	server *httptest.Server
}

// Option configures a Service.
type Option func(*Service)

// WithPageSize sets the number of items per collection page.
func WithPageSize(n int) Option {
	return func(s *Service) {
		s.pageSize = n
	}
}

// WithClock sets the time source used for timestamps and token expiry.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.tokenTTL = ttl
	}
}

// NewService creates a Service with the given active domains and starts serving it over HTTP.
// Close must be called to release the listener.
func NewService(domains []string, opts ...Option) *Service {
	s := &Service{
		pageSize:  DefaultPageSize,
		secret:    []byte(uuid.NewString()),
		tokenTTL:  time.Hour,
		clock:     time.Now,
		accounts:  make(map[string]*account),
		addresses: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, d := range domains {
		s.AddDomain(d, true)
	}
	s.server = httptest.NewServer(s.routes())
	log.Debug().Str("module", "test").Str("url", s.server.URL).Msg("Fake mail service started")
	return s
}

// URL returns the base URL of the running service.
func (s *Service) URL() string {
	return s.server.URL
}

// Close shuts down the HTTP server.
func (s *Service) Close() {
	s.server.Close()
}

// AddDomain registers a mail domain.
func (s *Service) AddDomain(name string, active bool) model.Domain {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	d := model.Domain{
		ID:        newID(),
		Domain:    strings.ToLower(name),
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.domains = append(s.domains, d)
	return d
}

// Deliver adds a message to the inbox of the account registered for recipient. The message
// is parsed from its RFC 5322 source.
func (s *Service) Deliver(recipient string, source []byte) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.addresses[strings.ToLower(recipient)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoAccount, recipient)
	}
	acct := s.accounts[id]
	d := &message.Delivery{
		ID:        newID(),
		AccountID: "/accounts/" + acct.ID,
		Recipient: acct.Address,
		Date:      s.now(),
		Retention: defaultRetention,
		Source:    source,
	}
	m, err := d.Build()
	if err != nil {
		return nil, err
	}
	acct.messages = append([]*model.Message{m}, acct.messages...)
	acct.sources[m.ID] = source
	acct.Used += m.Size
	log.Debug().Str("module", "test").Str("to", acct.Address).Str("id", m.ID).
		Msg("Delivered message")
	cp := *m
	return &cp, nil
}

// MessageCount returns the number of messages held for address.
func (s *Service) MessageCount(address string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.addresses[strings.ToLower(address)]; ok {
		return len(s.accounts[id].messages)
	}
	return 0
}

func (s *Service) now() time.Time {
	// Second precision, like the service.
	return s.clock().UTC().Truncate(time.Second)
}

// activeDomain reports whether the domain of address is registered and active.
func (s *Service) activeDomain(address string) bool {
	_, domain, err := stringutil.SplitAddress(address)
	if err != nil {
		return false
	}
	for _, d := range s.domains {
		if d.IsActive && strings.EqualFold(d.Domain, domain) {
			return true
		}
	}
	return false
}

// createAccount registers an account, or returns the reason the request was rejected.
func (s *Service) createAccount(address, password string) (*model.Account, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	address, err := policy.AccountAddress(address)
	if err != nil || !s.activeDomain(address) {
		return nil, "address: This value is not valid."
	}
	if len(password) < 6 {
		return nil, "password: This value is too short."
	}
	if _, ok := s.addresses[address]; ok {
		return nil, "address: This value is already used."
	}
	now := s.now()
	acct := &account{
		Account: model.Account{
			ID:        newID(),
			Address:   address,
			Quota:     defaultQuota,
			CreatedAt: now,
			UpdatedAt: now,
		},
		password: password,
		sources:  make(map[string][]byte),
	}
	s.accounts[acct.ID] = acct
	s.addresses[address] = acct.ID
	a := acct.Account
	return &a, ""
}

func (s *Service) authenticate(address, password string) (*model.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.addresses[strings.ToLower(address)]
	if !ok || s.accounts[id].password != password {
		return nil, false
	}
	a := s.accounts[id].Account
	return &a, true
}

func (s *Service) getAccount(id string) (*model.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[id]
	if !ok {
		return nil, false
	}
	a := acct.Account
	return &a, true
}

func (s *Service) deleteAccount(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[id]
	if !ok {
		return false
	}
	delete(s.accounts, id)
	delete(s.addresses, acct.Address)
	return true
}

// domainPage returns page n of the registered domains and their total.
func (s *Service) domainPage(n int) ([]model.Domain, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lo, hi := pageBounds(n, s.pageSize, len(s.domains))
	return append([]model.Domain{}, s.domains[lo:hi]...), len(s.domains)
}

func (s *Service) getDomain(id string) (*model.Domain, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.domains {
		if d.ID == id {
			d := d
			return &d, true
		}
	}
	return nil, false
}

// messagePage returns page n of the intros in the inbox of account id and their total.
func (s *Service) messagePage(id string, n int) ([]model.Message, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[id]
	if !ok {
		return nil, 0
	}
	lo, hi := pageBounds(n, s.pageSize, len(acct.messages))
	intros := make([]model.Message, 0, hi-lo)
	for _, m := range acct.messages[lo:hi] {
		intros = append(intros, m.IntroView())
	}
	return intros, len(acct.messages)
}

// findMessage returns the message with msgID if it belongs to account id.
func (s *Service) findMessage(id, msgID string) (*model.Message, []byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[id]
	if !ok {
		return nil, nil, false
	}
	for _, m := range acct.messages {
		if m.ID == msgID {
			cp := *m
			return &cp, acct.sources[msgID], true
		}
	}
	return nil, nil, false
}

// setSeen updates the seen flag of a message, returning the updated message.
func (s *Service) setSeen(id, msgID string, seen bool) (*model.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[id]
	if !ok {
		return nil, false
	}
	for _, m := range acct.messages {
		if m.ID == msgID {
			m.Seen = seen
			m.UpdatedAt = s.now()
			cp := *m
			return &cp, true
		}
	}
	return nil, false
}

func (s *Service) deleteMessage(id, msgID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[id]
	if !ok {
		return false
	}
	for i, m := range acct.messages {
		if m.ID == msgID {
			acct.messages = append(acct.messages[:i], acct.messages[i+1:]...)
			delete(acct.sources, msgID)
			acct.Used -= m.Size
			return true
		}
	}
	return false
}

// pageBounds returns the slice bounds of page n, numbered from 1.
func pageBounds(n, size, total int) (lo, hi int) {
	lo = (n - 1) * size
	if lo > total {
		lo = total
	}
	hi = lo + size
	if hi > total {
		hi = total
	}
	return lo, hi
}

// pageCount returns the number of pages required to hold total items, at least 1.
func pageCount(size, total int) int {
	if total == 0 {
		return 1
	}
	return (total + size - 1) / size
}

// newID returns a 24 character hex identifier like those issued by the service.
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}
