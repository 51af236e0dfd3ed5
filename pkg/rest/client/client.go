// Package client provides a REST client for mail.tm style disposable mail services
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mailtm/mailtm/pkg/policy"
	"github.com/mailtm/mailtm/pkg/rest/model"
	"github.com/mailtm/mailtm/pkg/stringutil"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the public mail.tm API.
const DefaultBaseURL = "https://api.mail.tm"

const (
	accountsEndpoint = "accounts"
	domainsEndpoint  = "domains"
	meEndpoint       = "me"
	tokenEndpoint    = "token"
)

// Client accesses the mail service API
type Client struct {
	restClient
}

// New creates a new REST API client given the base URL of the service, ex:
// "https://api.mail.tm"
func New(baseURL string, opts ...func(*ClientOptions)) (*Client, error) {
	options := getDefaultClientOptions()
	for _, opt := range opts {
		opt(options)
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}
	c := &Client{
		restClient{
			client: &http.Client{
				Transport: options.transport,
				Timeout:   options.timeout,
			},
			baseURL: parsedURL,
		},
	}
	return c, nil
}

// ConnectionManager returns the connection manager used by this client.
func (c *Client) ConnectionManager() ConnectionManager {
	return &c.restClient
}

// Messages returns a controller for the messages of the account token was issued to.
func (c *Client) Messages(token model.Token) *MessageController {
	return NewMessageController(&c.restClient, token)
}

// Domains returns an iterator over every domain known to the service.
func (c *Client) Domains() *LinkedCollectionIterator[model.Domain] {
	return NewLinkedCollectionIterator[model.Domain](&c.restClient, domainsEndpoint, "")
}

// ActiveDomains returns the domains new accounts may be created under.
func (c *Client) ActiveDomains(ctx context.Context) ([]model.Domain, error) {
	it := c.Domains()
	var active []model.Domain
	for it.Next(ctx) {
		if d := it.Item(); d.IsActive {
			active = append(active, d)
		}
	}
	return active, it.Err()
}

// GetDomain returns the domain with the given id.
func (c *Client) GetDomain(ctx context.Context, id string) (*model.Domain, error) {
	d := &model.Domain{}
	if err := c.doJSON(ctx, http.MethodGet, JoinPath(domainsEndpoint, id), "", nil, d); err != nil {
		return nil, err
	}
	return d, nil
}

// GenerateAddress builds an address for a new account. An empty user is replaced by a random
// local part, an empty domain by the first active domain. Users that are not valid account
// names are rejected with an error wrapping policy.ErrInvalidAddress.
func (c *Client) GenerateAddress(ctx context.Context, user, domain string) (string, error) {
	if user == "" {
		user = stringutil.RandomLocalPart()
	}
	domains, err := c.ActiveDomains(ctx)
	if err != nil {
		return "", err
	}
	if domain == "" {
		if len(domains) == 0 {
			return "", ErrDomainNotAvailable
		}
		domain = domains[0].Domain
	} else {
		found := false
		for _, d := range domains {
			if strings.EqualFold(d.Domain, domain) {
				domain, found = d.Domain, true
				break
			}
		}
		if !found {
			return "", fmt.Errorf("%w: %s", ErrDomainNotAvailable, domain)
		}
	}
	return policy.AccountAddress(stringutil.MakeAddress(user, domain))
}

// CreateAccount registers a new account.
func (c *Client) CreateAccount(ctx context.Context, address, password string) (*model.Account, error) {
	log.Debug().Str("module", "rest").Str("address", address).Msg("Account creation requested")
	a := &model.Account{}
	err := c.doJSON(ctx, http.MethodPost, accountsEndpoint, "",
		&model.Credentials{Address: address, Password: password}, a)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetToken requests a bearer token for an account.
func (c *Client) GetToken(ctx context.Context, address, password string) (*model.TokenResponse, error) {
	log.Debug().Str("module", "rest").Str("address", address).Msg("Token requested")
	t := &model.TokenResponse{}
	err := c.doJSON(ctx, http.MethodPost, tokenEndpoint, "",
		&model.Credentials{Address: address, Password: password}, t)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// AccountData returns the account with the given id, or the account token was issued to when
// id is empty.
func (c *Client) AccountData(ctx context.Context, token model.Token, id string) (*model.Account, error) {
	uri := meEndpoint
	if id != "" {
		uri = JoinPath(accountsEndpoint, id)
	}
	a := &model.Account{}
	if err := c.doJSON(ctx, http.MethodGet, uri, token, nil, a); err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteAccount deletes the account with the given id.
func (c *Client) DeleteAccount(ctx context.Context, token model.Token, id string) error {
	log.Debug().Str("module", "rest").Str("id", id).Msg("Account deletion requested")
	return c.doJSON(ctx, http.MethodDelete, JoinPath(accountsEndpoint, id), token, nil, nil)
}

// NewAccount creates an account, see GenerateAddress for the handling of empty user and
// domain. The returned account is not logged in.
func (c *Client) NewAccount(ctx context.Context, user, domain, password string) (*Account, error) {
	if password == "" {
		return nil, errors.New("password required")
	}
	address, err := c.GenerateAddress(ctx, user, domain)
	if err != nil {
		return nil, err
	}
	a, err := c.CreateAccount(ctx, address, password)
	if err != nil {
		return nil, err
	}
	return &Account{Account: a, Password: password, client: c}, nil
}

// Login requests a token for an existing account and loads its data.
func (c *Client) Login(ctx context.Context, address, password string) (*Account, error) {
	t, err := c.GetToken(ctx, address, password)
	if err != nil {
		return nil, err
	}
	a, err := c.AccountData(ctx, t.Token, "")
	if err != nil {
		return nil, err
	}
	return &Account{Account: a, Password: password, Token: t.Token, client: c}, nil
}
