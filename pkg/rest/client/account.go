package client

import (
	"context"

	"github.com/mailtm/mailtm/pkg/rest/model"
)

// Account represents a service account along with its credentials
type Account struct {
	*model.Account
	Password string
	Token    model.Token
	client   *Client
}

// Login obtains a new token for this account
func (a *Account) Login(ctx context.Context) error {
	t, err := a.client.GetToken(ctx, a.Address, a.Password)
	if err != nil {
		return err
	}
	a.Token = t.Token
	return nil
}

// IsLoggedIn reports whether this account holds a token
func (a *Account) IsLoggedIn() bool {
	return a.Token != ""
}

// Messages returns a controller for the messages of this account
func (a *Account) Messages() *MessageController {
	return a.client.Messages(a.Token)
}

// Delete deletes this account from the service
func (a *Account) Delete(ctx context.Context) error {
	return a.client.DeleteAccount(ctx, a.Token, a.ID)
}
