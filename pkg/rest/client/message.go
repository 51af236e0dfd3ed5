package client

import (
	"context"
	"net/http"

	"github.com/mailtm/mailtm/pkg/rest/model"
	"github.com/rs/zerolog/log"
)

const messagesEndpoint = "messages"

// MessageController reads the messages of the account token was issued to. Messages that are
// not available, whatever the reason, are reported as nil results rather than errors: polling
// an inbox that has nothing yet is the normal case.
type MessageController struct {
	conn  ConnectionManager
	token model.Token
}

// NewMessageController creates a controller issuing requests through conn with token.
func NewMessageController(conn ConnectionManager, token model.Token) *MessageController {
	return &MessageController{conn: conn, token: token}
}

// MessageIntros returns a new iterator over every message intro, starting at the first page.
func (c *MessageController) MessageIntros() *LinkedCollectionIterator[model.Message] {
	log.Debug().Str("module", "rest").Msg("Messages iterator requested")
	return NewLinkedCollectionIterator[model.Message](c.conn, messagesEndpoint, c.token)
}

// GetMessageIntrosPage returns a single page of message intros, or nil if the page is not
// available. Pages are numbered from 1.
func (c *MessageController) GetMessageIntrosPage(
	ctx context.Context, page int,
) (*model.MessageIntros, error) {
	if page < 1 {
		page = 1
	}
	logger := log.With().Str("module", "rest").Int("page", page).Logger()
	logger.Debug().Msg("Messages page requested")
	resp, err := c.conn.Get(ctx, messagesEndpoint, map[string]any{"page": page}, c.token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		logger.Debug().Int("status", resp.StatusCode).Msg("Messages page not available")
		return nil, nil
	}
	return model.DecodeCollection[model.Message](resp.Body)
}

// GetCount returns the total number of messages, as reported by the first page. It returns 0
// when the first page is not available.
func (c *MessageController) GetCount(ctx context.Context) (int, error) {
	log.Debug().Str("module", "rest").Msg("Messages count requested")
	page, err := c.GetMessageIntrosPage(ctx, 1)
	if err != nil || page == nil {
		return 0, err
	}
	return page.TotalCount(), nil
}

// GetMessage returns the full message with the given id, or nil if it is not available.
func (c *MessageController) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	logger := log.With().Str("module", "rest").Str("id", id).Logger()
	logger.Debug().Msg("Full message requested")
	resp, err := c.conn.Get(ctx, JoinPath(messagesEndpoint, id), nil, c.token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		logger.Debug().Int("status", resp.StatusCode).Msg("Message not available")
		return nil, nil
	}
	return model.DecodeMessage(resp.Body)
}

// GetMessageSource returns the RFC 822 source of a message, or nil if it is not available.
func (c *MessageController) GetMessageSource(ctx context.Context, id string) ([]byte, error) {
	log.Debug().Str("module", "rest").Str("id", id).Msg("Message source requested")
	resp, err := c.conn.Get(ctx, JoinPath(messagesEndpoint, id, "download"), nil, c.token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}
	return resp.Body, nil
}

// MarkSeen marks a message as read. It returns false if the message is not available.
func (c *MessageController) MarkSeen(ctx context.Context, id string) (bool, error) {
	log.Debug().Str("module", "rest").Str("id", id).Msg("Mark seen requested")
	resp, err := c.conn.Send(ctx, http.MethodPatch, JoinPath(messagesEndpoint, id),
		map[string]bool{"seen": true}, c.token)
	if err != nil {
		return false, err
	}
	return resp.StatusCode == http.StatusOK, nil
}

// DeleteMessage deletes a message. It returns false if the message is not available.
func (c *MessageController) DeleteMessage(ctx context.Context, id string) (bool, error) {
	log.Debug().Str("module", "rest").Str("id", id).Msg("Delete requested")
	resp, err := c.conn.Send(ctx, http.MethodDelete, JoinPath(messagesEndpoint, id), nil, c.token)
	if err != nil {
		return false, err
	}
	return resp.StatusCode >= 200 && resp.StatusCode <= 299, nil
}
