package model

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Domain is a mail domain accounts can be created under.
type Domain struct {
	ID        string    `json:"id"`
	Domain    string    `json:"domain"`
	IsActive  bool      `json:"isActive"`
	IsPrivate bool      `json:"isPrivate"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (d *Domain) UnmarshalJSON(data []byte) error {
	if _, err := requireFields("domain", data,
		"id", "domain", "isActive", "isPrivate", "createdAt", "updatedAt"); err != nil {
		return err
	}
	type domain Domain
	return decodeInto("domain", data, (*domain)(d))
}

// Account is a disposable mail account.
type Account struct {
	ID         string    `json:"id"`
	Address    string    `json:"address"`
	Quota      int64     `json:"quota"`
	Used       int64     `json:"used"`
	IsDisabled bool      `json:"isDisabled"`
	IsDeleted  bool      `json:"isDeleted"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (a *Account) UnmarshalJSON(data []byte) error {
	if _, err := requireFields("account", data,
		"id", "address", "quota", "used", "isDisabled", "isDeleted", "createdAt",
		"updatedAt"); err != nil {
		return err
	}
	type account Account
	return decodeInto("account", data, (*account)(a))
}

// Credentials is the request body for account creation and token requests.
type Credentials struct {
	Address  string `json:"address"`
	Password string `json:"password"`
}

// Token is an opaque bearer credential. Its lifetime is controlled by the caller.
type Token string

// TokenClaims are the claims carried by a service issued token.
type TokenClaims struct {
	jwt.RegisteredClaims
	AccountID string `json:"id,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Claims decodes the claims of t without verifying its signature; the issuer is the only
// party able to do that.
func (t Token) Claims() (*TokenClaims, error) {
	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(string(t), claims); err != nil {
		return nil, fmt.Errorf("decode token claims: %w", err)
	}
	return claims, nil
}

// ExpiresAt returns the expiry of t, if it carries one.
func (t Token) ExpiresAt() (time.Time, bool) {
	claims, err := t.Claims()
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// TokenResponse is returned by the token endpoint.
type TokenResponse struct {
	ID    string `json:"id"`
	Token Token  `json:"token"`
}

func (r *TokenResponse) UnmarshalJSON(data []byte) error {
	if _, err := requireFields("token", data, "token"); err != nil {
		return err
	}
	type tokenResponse TokenResponse
	return decodeInto("token", data, (*tokenResponse)(r))
}
